package backend

import (
	"errors"
	"fmt"

	"donorboard/internal/config"
)

// FromAppConfig builds the configuration of the backend named by
// DATA_BACKEND.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	return ForType(appConfig, BackendType(appConfig.DataBackend))
}

// ForType builds the configuration of an arbitrary backend from the
// application config. The worker uses it for its backfill source.
func ForType(appConfig *config.Config, backendType BackendType) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", backendType)
	}

	return Config{
		Type: backendType,

		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleDonationsSheet:     appConfig.GoogleDonationsSheet,
		GoogleDonorsSheet:        appConfig.GoogleDonorsSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		RemoteAPIURL:       appConfig.RemoteAPIURL,
		RemoteAPIToken:     appConfig.RemoteAPIToken,
		RemoteClientID:     appConfig.RemoteClientID,
		RemoteClientSecret: appConfig.RemoteClientSecret,
		RemoteTokenURL:     appConfig.RemoteTokenURL,
		RemoteTimeout:      appConfig.RemoteTimeout,
	}, nil
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets backend")
		}
	case RemoteBackend:
		if c.RemoteAPIURL == "" {
			return errors.New("platform API URL is required for remote backend")
		}
		if c.RemoteClientID != "" && (c.RemoteClientSecret == "" || c.RemoteTokenURL == "") {
			return errors.New("OAuth client secret and token URL are required when a client ID is set")
		}
	case MemoryBackend:
		// DataDirectory may be empty; the store then starts empty.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend, RemoteBackend}
}
