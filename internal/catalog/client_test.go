package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"medmaster/internal/config"
)

func testClientConfig(baseURL string) config.Config {
	return config.Config{
		FormularyAPIBaseURL:   baseURL,
		FormularyAPIToken:     "test-token",
		FormularyRateLimitRPS: 1000,
		FormularyTimeoutMs:    5000,
	}
}

func scrollResponse(t *testing.T, medicines []map[string]any, scrollID string) []byte {
	t.Helper()
	data := map[string]any{"medicines": medicines}
	if scrollID != "" {
		data["scrollId"] = scrollID
	}
	body, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestGetMedicinesScrollAll(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		switch calls.Add(1) {
		case 1:
			if r.URL.Query().Get("scrollId") != "" {
				t.Errorf("first page carried scrollId")
			}
			_, _ = w.Write(scrollResponse(t, []map[string]any{
				{"name": "Paracetamol", "company": "ABC Pharma", "strength": "500mg", "form": "Tablet"},
				{"name": "Ibuprofen", "pediatric": true},
			}, "page-2"))
		case 2:
			if r.URL.Query().Get("scrollId") != "page-2" {
				t.Errorf("scrollId not propagated: %q", r.URL.Query().Get("scrollId"))
			}
			_, _ = w.Write(scrollResponse(t, []map[string]any{
				{"name": "Metformin", "pediatric": "no"},
				{"name": ""}, // dropped
			}, ""))
		default:
			t.Errorf("unexpected extra call")
		}
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	records, err := client.GetMedicinesScrollAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records %d", len(records))
	}
	if records[0].MedicineName != "Paracetamol" || records[0].DosageMg != "500mg" {
		t.Fatalf("record %+v", records[0])
	}
	if records[1].IsPediatric != 1 {
		t.Fatalf("bool pediatric not parsed: %+v", records[1])
	}
	if records[2].IsPediatric != 0 {
		t.Fatalf("string pediatric not parsed: %+v", records[2])
	}
}

func TestFetchRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(scrollResponse(t, []map[string]any{{"name": "Paracetamol"}}, ""))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	records, err := client.GetMedicinesScrollAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records %d", len(records))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls %d", calls.Load())
	}
}

func TestFetchFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	if _, err := client.GetMedicinesScrollAll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("403 retried: %d calls", calls.Load())
	}
}

func TestFetchRequiresCredentials(t *testing.T) {
	client := NewClient(config.Config{FormularyRateLimitRPS: 1, FormularyTimeoutMs: 1000})
	if _, err := client.GetMedicinesScrollAll(context.Background()); err == nil {
		t.Fatal("expected error without token and base url")
	}
}
