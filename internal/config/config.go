package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	IncomingDir string
	OutputDir  string

	ImportBatchSize int
	ImportEnrich    bool

	FormularyAPIBaseURL   string
	FormularyAPIToken     string
	FormularyRateLimitRPS int
	FormularyTimeoutMs    int

	BackupBucket          string
	BackupCredentialsFile string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider    string
	MailListenerLabel       string
	MailListenerIntervalSec int
	MailListenerFetchMax    int
	MailListenerBatch       int
	MailListenerAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "hospital.db")),
		RawMailDir:  getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		IncomingDir: getEnv("INCOMING_DIR", filepath.Join(cwd, "data", "incoming")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ImportBatchSize: getEnvInt("IMPORT_BATCH_SIZE", 1000),
		ImportEnrich:    getEnvBool("IMPORT_ENRICH", false),

		FormularyAPIBaseURL:   getEnv("FORMULARY_API_BASE_URL", ""),
		FormularyAPIToken:     getEnv("FORMULARY_API_TOKEN", ""),
		FormularyRateLimitRPS: getEnvInt("FORMULARY_RATE_LIMIT_RPS", 5),
		FormularyTimeoutMs:    getEnvInt("FORMULARY_TIMEOUT_MS", 30000),

		BackupBucket:          getEnv("BACKUP_BUCKET", ""),
		BackupCredentialsFile: getEnv("BACKUP_CREDENTIALS_FILE", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:    getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:       getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec: getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:    getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerBatch:       getEnvInt("MAIL_LISTENER_BATCH", 20),
		MailListenerAutoExport:  getEnvBool("MAIL_LISTENER_AUTO_EXPORT", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
