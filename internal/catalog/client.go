package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medmaster/internal"
	"medmaster/internal/config"
	"medmaster/internal/util"
)

// Client pulls medicine records from the hospital group's central formulary
// API: bearer token, scroll pagination, bounded retry with backoff, and a
// client-side rate limit so a full sync does not hammer the service.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type scrollPayload struct {
	Medicines []map[string]any `json:"medicines"`
	ScrollID  *string          `json:"scrollId"`
	Total     *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.FormularyTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.FormularyRateLimitRPS),
	}
}

func (c *Client) GetMedicinesScrollAll(ctx context.Context) ([]internal.MedicineRecord, error) {
	all := make([]internal.MedicineRecord, 0)
	seen := map[string]struct{}{}
	var scrollID string

	for {
		query := map[string]string{}
		if scrollID != "" {
			query["scrollId"] = scrollID
		}

		body, err := c.fetchJSON(ctx, "medicine/scroll", query)
		if err != nil {
			return nil, err
		}

		var payload scrollPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Medicines {
			record, err := toMedicineRecord(raw)
			if err != nil {
				continue
			}
			all = append(all, record)
		}

		if payload.ScrollID == nil || *payload.ScrollID == "" || len(payload.Medicines) == 0 {
			break
		}
		if _, ok := seen[*payload.ScrollID]; ok {
			break
		}
		seen[*payload.ScrollID] = struct{}{}
		scrollID = *payload.ScrollID
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.FormularyAPIToken) == "" {
		return nil, errors.New("missing FORMULARY_API_TOKEN")
	}
	if strings.TrimSpace(c.cfg.FormularyAPIBaseURL) == "" {
		return nil, errors.New("missing FORMULARY_API_BASE_URL")
	}

	baseURL := strings.TrimRight(c.cfg.FormularyAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.FormularyAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("formulary status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("formulary api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("formulary api unsuccessful: %s", string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("formulary request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toMedicineRecord(raw map[string]any) (internal.MedicineRecord, error) {
	name := util.CleanCell(toString(raw["name"]))
	if name == "" {
		return internal.MedicineRecord{}, errors.New("empty medicine name")
	}

	record := internal.MedicineRecord{
		MedicineName: name,
		CompanyName:  util.CleanCell(toString(raw["company"])),
		Category:     util.CleanCell(toString(raw["category"])),
		DosageMg:     util.CleanCell(toString(raw["strength"])),
		DosageForm:   util.CleanCell(toString(raw["form"])),
		Description:  util.CleanCell(toString(raw["description"])),
	}

	switch v := raw["pediatric"].(type) {
	case bool:
		if v {
			record.IsPediatric = 1
		}
	case float64:
		if v != 0 {
			record.IsPediatric = 1
		}
	case string:
		record.IsPediatric = util.ParseBoolFlag(v)
	}

	return record, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
