// Package memory is an in-process record store seeded from JSON files. It
// backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

const (
	DonationsFile = "donations.json"
	DonorsFile    = "donors.json"
)

type Store struct {
	mu         sync.RWMutex
	donations  []core.DonationRecord
	index      map[string]int
	identities map[string]core.DonorIdentity
}

func New(donations []core.DonationRecord, identities []core.DonorIdentity) *Store {
	s := &Store{
		index:      make(map[string]int, len(donations)),
		identities: make(map[string]core.DonorIdentity, len(identities)),
	}
	for _, d := range donations {
		s.upsert(d)
	}
	for _, id := range identities {
		s.identities[id.DonorID] = id
	}
	return s
}

// NewFromFiles seeds a store from donations.json and donors.json in base.
// Missing files yield an empty store; malformed files are an error.
func NewFromFiles(ctx context.Context, base string) (*Store, error) {
	var dp []source.DonationPayload
	if err := readJSON(filepath.Join(base, DonationsFile), &dp); err != nil {
		return nil, err
	}
	donations, err := source.DecodeDonations(ctx, dp)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", DonationsFile, err)
	}

	var ip []source.IdentityPayload
	if err := readJSON(filepath.Join(base, DonorsFile), &ip); err != nil {
		return nil, err
	}
	identities := make([]core.DonorIdentity, 0, len(ip))
	for i, p := range ip {
		id, err := source.DecodeIdentity(p, "")
		if err != nil {
			return nil, fmt.Errorf("seed %s: donor %d: %w", DonorsFile, i, err)
		}
		identities = append(identities, id)
	}
	return New(donations, identities), nil
}

// ListDonations returns donations in insertion order.
func (s *Store) ListDonations(_ context.Context, filter source.DonationFilter) ([]core.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return source.FilterByOrg(s.donations, filter.OrgID), nil
}

func (s *Store) GetDonorIdentity(ctx context.Context, donorID string) (core.DonorIdentity, error) {
	if err := ctx.Err(); err != nil {
		return core.DonorIdentity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[donorID]
	if !ok {
		return core.DonorIdentity{}, source.ErrNotFound
	}
	return id, nil
}

// SaveDonation stores d, replacing an earlier donation with the same id.
func (s *Store) SaveDonation(_ context.Context, d core.DonationRecord) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(d)
	return nil
}

func (s *Store) SaveIdentity(_ context.Context, id core.DonorIdentity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id.DonorID] = id
	return nil
}

func (s *Store) upsert(d core.DonationRecord) {
	if i, ok := s.index[d.ID]; ok {
		s.donations[i] = d
		return
	}
	s.index[d.ID] = len(s.donations)
	s.donations = append(s.donations, d)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
