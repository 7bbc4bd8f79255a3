// Package backend builds the record fetcher selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"donorboard/internal/cache"
	"donorboard/internal/log"
	"donorboard/internal/source/google"
	"donorboard/internal/source/memory"
	"donorboard/internal/source/remote"
	"donorboard/internal/storage"
)

// cacheSweepInterval is how often expired Sheets snapshots are evicted.
const cacheSweepInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case RemoteBackend:
		return f.createRemoteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New(nil, nil)
	if config.DataDirectory != "" {
		var err error
		store, err = memory.NewFromFiles(ctx, config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory backend: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Fetcher: store,
		Writer:  store,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Fetcher: repo,
		Writer:  repo,
		Cleanup: repo.Close,
		Ready:   repo.Ping,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		DonationsSheet:  config.GoogleDonationsSheet,
		DonorsSheet:     config.GoogleDonorsSheet,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	manager := cache.NewManager(f.logger)
	manager.Register(cli.Cache())
	manager.Start(sweepCtx, cacheSweepInterval)

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{
		Fetcher: cli,
		Writer:  cli,
		Cleanup: func() error {
			cancel()
			manager.Wait()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createRemoteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := remote.New(ctx, remote.Config{
		BaseURL:      config.RemoteAPIURL,
		Token:        config.RemoteAPIToken,
		ClientID:     config.RemoteClientID,
		ClientSecret: config.RemoteClientSecret,
		TokenURL:     config.RemoteTokenURL,
		Timeout:      config.RemoteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize platform API client: %w", err)
	}

	f.logger.Info("Initialized platform API backend",
		"base_url", config.RemoteAPIURL,
		"oauth", config.RemoteClientID != "")

	return &BackendResult{Fetcher: cli}, nil
}
