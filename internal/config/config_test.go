package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImportBatchSize != 1000 {
		t.Fatalf("batch size %d", cfg.ImportBatchSize)
	}
	if cfg.IMAPPort != 993 || !cfg.IMAPSecure {
		t.Fatalf("imap defaults: port=%d secure=%v", cfg.IMAPPort, cfg.IMAPSecure)
	}
	if cfg.MailListenerLabel != "INBOX" {
		t.Fatalf("listener label %q", cfg.MailListenerLabel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "250")
	t.Setenv("IMPORT_ENRICH", "yes")
	t.Setenv("FORMULARY_RATE_LIMIT_RPS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImportBatchSize != 250 {
		t.Fatalf("batch size %d", cfg.ImportBatchSize)
	}
	if !cfg.ImportEnrich {
		t.Fatal("enrich flag not set")
	}
	if cfg.FormularyRateLimitRPS != 5 {
		t.Fatalf("bad int should fall back, got %d", cfg.FormularyRateLimitRPS)
	}
}

func TestRequire(t *testing.T) {
	cfg := Config{}
	if err := cfg.Require("SOME_VAR", ""); err == nil {
		t.Fatal("expected error for empty value")
	}
	if err := cfg.Require("SOME_VAR", "set"); err != nil {
		t.Fatal(err)
	}
}
