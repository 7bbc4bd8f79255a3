package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendRemote = "remote"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendSheets, BackendRemote}

// writableBackends are the backends the worker can store events in.
var writableBackends = []string{BackendSQLite, BackendSheets}

type Config struct {
	// HTTP Server
	Port               string
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath string

	// Donation platform API
	RemoteAPIURL       string
	RemoteAPIToken     string
	RemoteClientID     string
	RemoteClientSecret string
	RemoteTokenURL     string
	RemoteTimeout      time.Duration

	// Identity enrichment
	IdentityLookupTimeout     time.Duration
	IdentityLookupConcurrency int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleDonationsSheet     string
	GoogleDonorsSheet        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker: backend events are stored in, and the backend copied into it
	// on startup (empty to skip).
	IngestBackend string
	BackfillFrom  string

	LogLevel          string
	LogFormat         string
	CollationLanguage string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/donorboard.db"),

		RemoteAPIURL:       getEnv("REMOTE_API_URL", ""),
		RemoteAPIToken:     getEnv("REMOTE_API_TOKEN", ""),
		RemoteClientID:     getEnv("REMOTE_OAUTH_CLIENT_ID", ""),
		RemoteClientSecret: getEnv("REMOTE_OAUTH_CLIENT_SECRET", ""),
		RemoteTokenURL:     getEnv("REMOTE_OAUTH_TOKEN_URL", ""),
		RemoteTimeout:      getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		IdentityLookupTimeout:     getEnvDuration("IDENTITY_LOOKUP_TIMEOUT", 5*time.Second),
		IdentityLookupConcurrency: getEnvInt("IDENTITY_LOOKUP_CONCURRENCY", 8),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "donations"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "donation_recorded"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleDonationsSheet:     getEnv("GOOGLE_DONATIONS_SHEET", "Donations"),
		GoogleDonorsSheet:        getEnv("GOOGLE_DONORS_SHEET", "Donors"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		IngestBackend: getEnv("INGEST_BACKEND", BackendSQLite),
		BackfillFrom:  getEnv("BACKFILL_FROM", ""),

		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		CollationLanguage: getEnv("COLLATION_LANGUAGE", "en"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be zero (disabled) or positive", c.RateLimitPerMinute))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if !slices.Contains(writableBackends, c.IngestBackend) {
		errors = append(errors, fmt.Sprintf("invalid ingest backend '%s': must be one of %v", c.IngestBackend, writableBackends))
	}
	if c.BackfillFrom != "" && (c.BackfillFrom == c.IngestBackend || !slices.Contains(validBackends, c.BackfillFrom)) {
		errors = append(errors, fmt.Sprintf("invalid backfill source '%s': must be a backend other than the ingest backend '%s'", c.BackfillFrom, c.IngestBackend))
	}

	uses := func(backend string) bool {
		return c.DataBackend == backend || c.IngestBackend == backend || c.BackfillFrom == backend
	}

	if uses(BackendMemory) && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using memory backend")
	}
	if uses(BackendSQLite) && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if uses(BackendRemote) {
		if u, err := url.Parse(c.RemoteAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid remote API URL '%s': must be an absolute http(s) URL", c.RemoteAPIURL))
		}
		if c.RemoteClientID != "" && (c.RemoteClientSecret == "" || c.RemoteTokenURL == "") {
			errors = append(errors, "REMOTE_OAUTH_CLIENT_SECRET and REMOTE_OAUTH_TOKEN_URL are required with REMOTE_OAUTH_CLIENT_ID")
		}
	}
	if err := checkDuration("remote timeout", c.RemoteTimeout); err != "" {
		errors = append(errors, err)
	}
	if err := checkDuration("identity lookup timeout", c.IdentityLookupTimeout); err != "" {
		errors = append(errors, err)
	}
	if c.IdentityLookupConcurrency < 1 || c.IdentityLookupConcurrency > 256 {
		errors = append(errors, fmt.Sprintf("invalid identity lookup concurrency %d: must be between 1 and 256", c.IdentityLookupConcurrency))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if uses(BackendSheets) {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		} else if c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}
	if _, err := language.Parse(c.CollationLanguage); err != nil {
		errors = append(errors, fmt.Sprintf("invalid collation language '%s': %v", c.CollationLanguage, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Language returns the collation language, English when unset or invalid.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.CollationLanguage)
	if err != nil {
		return language.English
	}
	return tag
}

func checkDuration(name string, d time.Duration) string {
	if d <= 0 || d > 5*time.Minute {
		return fmt.Sprintf("invalid %s %v: must be between 0 and 5 minutes", name, d)
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
