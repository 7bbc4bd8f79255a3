package backend

import (
	"context"
	"time"

	"donorboard/internal/source"
)

// BackendResult is a constructed backend plus its lifecycle hooks.
type BackendResult struct {
	// Fetcher serves dashboard reads.
	Fetcher source.Fetcher
	// Writer is nil for read-only backends.
	Writer source.DonationWriter
	// Cleanup releases connections and background goroutines. It may be nil.
	Cleanup func() error
	// Ready reports whether the backend can serve requests. It may be nil.
	Ready func(ctx context.Context) error
}

// Close runs Cleanup when one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleDonationsSheet     string
	GoogleDonorsSheet        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Platform API
	RemoteAPIURL       string
	RemoteAPIToken     string
	RemoteClientID     string
	RemoteClientSecret string
	RemoteTokenURL     string
	RemoteTimeout      time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	RemoteBackend BackendType = "remote"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
