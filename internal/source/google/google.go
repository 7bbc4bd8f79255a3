// Package google reads donations and donor identities from a Google
// Spreadsheet with a "Donations" and a "Donors" sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"donorboard/internal/cache"
	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

const (
	DefaultDonationsSheet = "Donations"
	DefaultDonorsSheet    = "Donors"
	// DefaultDonorsTTL bounds how long a snapshot of the donors sheet is reused
	// for identity lookups.
	DefaultDonorsTTL = 5 * time.Second

	donorsKey = "donors"
)

// Config selects the spreadsheet and the credentials used to read it.
type Config struct {
	SpreadsheetID   string
	DonationsSheet  string
	DonorsSheet     string
	CredentialsJSON string
	CredentialsFile string
	DonorsTTL       time.Duration
}

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	donationsSheet string
	donorsSheet    string
	donors         *cache.LRUCache[map[string]core.DonorIdentity]
	// loads collapses concurrent reads of the donors sheet on a cold cache.
	loads singleflight.Group
}

var (
	_ source.Fetcher        = (*Client)(nil)
	_ source.DonationWriter = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	donations := strings.TrimSpace(cfg.DonationsSheet)
	if donations == "" {
		donations = DefaultDonationsSheet
	}
	donors := strings.TrimSpace(cfg.DonorsSheet)
	if donors == "" {
		donors = DefaultDonorsSheet
	}
	ttl := cfg.DonorsTTL
	if ttl <= 0 {
		ttl = DefaultDonorsTTL
	}
	return &Client{
		svc:            svc,
		spreadsheetID:  cfg.SpreadsheetID,
		donationsSheet: donations,
		donorsSheet:    donors,
		donors:         cache.NewLRUCache[map[string]core.DonorIdentity](1, ttl),
	}
}

// Cache exposes the donors snapshot cache so a cache.Manager can expire it.
func (c *Client) Cache() cache.Cleaner {
	return c.donors
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	log.FromContext(ctx).InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func (c *Client) ListDonations(ctx context.Context, filter source.DonationFilter) ([]core.DonationRecord, error) {
	values, err := c.readSheet(ctx, c.donationsSheet)
	if err != nil {
		return nil, &source.TransportError{Op: "list donations", StatusCode: statusOf(err), Err: err}
	}
	donations, err := parseDonations(ctx, values)
	if err != nil {
		return nil, &source.TransportError{Op: "decode donations", Err: err}
	}
	return source.FilterByOrg(donations, filter.OrgID), nil
}

// GetDonorIdentity looks the donor up in a snapshot of the donors sheet. The
// snapshot is re-read at most once per TTL, however many lookups miss it at
// the same time.
func (c *Client) GetDonorIdentity(ctx context.Context, donorID string) (core.DonorIdentity, error) {
	index, err := c.donorIndex(ctx)
	if err != nil {
		return core.DonorIdentity{}, err
	}
	identity, ok := index[donorID]
	if !ok {
		return core.DonorIdentity{}, source.ErrNotFound
	}
	return identity, nil
}

func (c *Client) donorIndex(ctx context.Context) (map[string]core.DonorIdentity, error) {
	if index, ok := c.donors.Get(donorsKey); ok {
		return index, nil
	}
	v, err, _ := c.loads.Do(donorsKey, func() (any, error) {
		if index, ok := c.donors.Get(donorsKey); ok {
			return index, nil
		}
		values, err := c.readSheet(ctx, c.donorsSheet)
		if err != nil {
			return nil, &source.TransportError{Op: "read donors", StatusCode: statusOf(err), Err: err}
		}
		index, err := parseDonors(values)
		if err != nil {
			return nil, fmt.Errorf("decode donors: %w", err)
		}
		c.donors.Set(donorsKey, index)
		return index, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]core.DonorIdentity), nil
}

// SaveDonation appends the donation as a new row of the donations sheet,
// in donationColumns order.
func (c *Client) SaveDonation(ctx context.Context, d core.DonationRecord) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:I", c.donationsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{donationRow(d)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return &source.TransportError{Op: "append donation", StatusCode: statusOf(err), Err: err}
	}
	return nil
}

func (c *Client) readSheet(ctx context.Context, sheet string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
