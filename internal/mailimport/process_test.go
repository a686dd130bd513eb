package mailimport

import (
	"os"
	"path/filepath"
	"testing"

	"medmaster/internal/config"
	"medmaster/internal/storage"
)

func testSetup(t *testing.T) (*storage.DB, config.Config, string) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "hospital.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		IncomingDir:     filepath.Join(tmp, "incoming"),
		ImportBatchSize: 1000,
	}
	return db, cfg, tmp
}

func TestProcessMailImportsAttachment(t *testing.T) {
	db, cfg, tmp := testSetup(t)

	raw, err := os.ReadFile(filepath.Join("testdata", "vendor_catalogue.eml"))
	if err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(tmp, "mail.eml")
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	mail, err := db.UpsertMail("imap", "<catalogue-2026-08@abcpharma.example>", "Updated medicine price list August",
		"sales@abcpharma.example", "2026-08-24T10:15:00Z", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewProcessingService(db, cfg).ProcessMail(mail)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sources != 1 {
		t.Fatalf("sources %d", res.Sources)
	}
	if res.Result.Imported != 2 || res.Result.Failed != 0 {
		t.Fatalf("result %+v", res.Result)
	}

	count, err := db.CountMedicines()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("stored %d medicines", count)
	}

	updated, err := db.MustMailByProviderMessageID("imap", "<catalogue-2026-08@abcpharma.example>")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "processed" {
		t.Fatalf("status %q", updated.Status)
	}

	// The attachment lands in the incoming directory for audit.
	entries, err := os.ReadDir(cfg.IncomingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("incoming dir has %d entries", len(entries))
	}
}

func TestProcessMailSkipsNonCatalogue(t *testing.T) {
	db, cfg, tmp := testSetup(t)

	raw := "From: someone@example.com\r\n" +
		"Subject: Meeting tomorrow\r\n" +
		"Message-ID: <meet-1@example.com>\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"See you at 10.\r\n"
	rawPath := filepath.Join(tmp, "meeting.eml")
	if err := os.WriteFile(rawPath, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	mail, err := db.UpsertMail("imap", "<meet-1@example.com>", "Meeting tomorrow",
		"someone@example.com", "2026-08-24T09:00:00Z", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewProcessingService(db, cfg).ProcessMail(mail)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sources != 0 || res.Result.Imported != 0 {
		t.Fatalf("result %+v", res)
	}

	updated, err := db.MustMailByProviderMessageID("imap", "<meet-1@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "skipped" {
		t.Fatalf("status %q", updated.Status)
	}
}

func TestProcessMailImportsHTMLBodyTable(t *testing.T) {
	db, cfg, tmp := testSetup(t)

	raw := "From: sales@vendor.example\r\n" +
		"Subject: Medicine catalogue\r\n" +
		"Message-ID: <html-1@vendor.example>\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		"<html><body><table>" +
		"<tr><th>Product Name</th><th>Manufacturer</th><th>Dosage</th></tr>" +
		"<tr><td>Cetirizine</td><td>XYZ Labs</td><td>10mg</td></tr>" +
		"</table></body></html>\r\n"
	rawPath := filepath.Join(tmp, "html.eml")
	if err := os.WriteFile(rawPath, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	mail, err := db.UpsertMail("imap", "<html-1@vendor.example>", "Medicine catalogue",
		"sales@vendor.example", "2026-08-24T11:00:00Z", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewProcessingService(db, cfg).ProcessMail(mail)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sources != 1 || res.Result.Imported != 1 {
		t.Fatalf("result %+v", res)
	}

	rows, err := db.SearchMedicines("Cetirizine")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].DosageMg != "10mg" {
		t.Fatalf("rows %+v", rows)
	}
}

func TestProcessPending(t *testing.T) {
	db, cfg, tmp := testSetup(t)

	raw, err := os.ReadFile(filepath.Join("testdata", "vendor_catalogue.eml"))
	if err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(tmp, "mail.eml")
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := db.UpsertMail("imap", "<catalogue-2026-08@abcpharma.example>", "Updated medicine price list August",
		"sales@abcpharma.example", "2026-08-24T10:15:00Z", "hash", rawPath, "fetched"); err != nil {
		t.Fatal(err)
	}

	mails, imported, err := NewProcessingService(db, cfg).ProcessPending(10, "imap")
	if err != nil {
		t.Fatal(err)
	}
	if mails != 1 || imported != 2 {
		t.Fatalf("mails=%d imported=%d", mails, imported)
	}

	// Nothing left pending afterwards.
	mails, imported, err = NewProcessingService(db, cfg).ProcessPending(10, "imap")
	if err != nil {
		t.Fatal(err)
	}
	if mails != 0 || imported != 0 {
		t.Fatalf("second pass mails=%d imported=%d", mails, imported)
	}
}
