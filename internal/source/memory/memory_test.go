package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

func TestStoreListAndLookup(t *testing.T) {
	s := New([]core.DonationRecord{
		{ID: "1", DonorID: "a", OrgID: "o1", Amount: core.NewAmount(10), Status: core.StatusCompleted},
		{ID: "2", DonorID: "b", OrgID: "o2", Amount: core.NewAmount(20), Status: core.StatusCompleted},
	}, []core.DonorIdentity{{DonorID: "a", DisplayName: "Ana"}})

	got, err := s.ListDonations(context.Background(), source.DonationFilter{OrgID: "o1"})
	if err != nil || len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected list: %+v err=%v", got, err)
	}

	id, err := s.GetDonorIdentity(context.Background(), "a")
	if err != nil || id.DisplayName != "Ana" {
		t.Fatalf("unexpected identity: %+v err=%v", id, err)
	}
	if _, err := s.GetDonorIdentity(context.Background(), "b"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDonationUpserts(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()
	d := core.DonationRecord{ID: "1", DonorID: "a", OrgID: "o", Amount: core.NewAmount(5), Status: core.StatusPending}
	if err := s.SaveDonation(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	d.Status = core.StatusCompleted
	if err := s.SaveDonation(ctx, d); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, _ := s.ListDonations(ctx, source.DonationFilter{})
	if len(got) != 1 || got[0].Status != core.StatusCompleted {
		t.Fatalf("expected one updated donation, got %+v", got)
	}
	if err := s.SaveDonation(ctx, core.DonationRecord{ID: "2"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(ctx, dir)
	if err != nil {
		t.Fatalf("missing files should yield an empty store: %v", err)
	}
	if got, _ := s.ListDonations(ctx, source.DonationFilter{}); len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(DonationsFile, `[
		{"id": 1, "donorId": 1, "orgId": "o", "amount": 50, "date": "2024-01-10", "status": "completed"},
		{"id": 2, "donorId": 2, "orgId": "o", "amount": "12,5", "date": "10/01/2024", "status": "pending"}
	]`)
	mustWrite(DonorsFile, `[{"donorId": 1, "displayName": "Ana"}]`)

	s, err = NewFromFiles(ctx, dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := s.ListDonations(ctx, source.DonationFilter{OrgID: "o"})
	if len(got) != 2 {
		t.Fatalf("expected 2 donations, got %d", len(got))
	}
	if got[1].HasDate() || got[1].RawDate != "10/01/2024" {
		t.Fatalf("expected quarantined date, got %+v", got[1])
	}
	if id, err := s.GetDonorIdentity(ctx, "1"); err != nil || id.DisplayName != "Ana" {
		t.Fatalf("unexpected identity: %+v err=%v", id, err)
	}

	mustWrite(DonationsFile, `[{"id": 3, "donorId": 1, "orgId": "o", "amount": -1, "status": "completed"}]`)
	if _, err := NewFromFiles(ctx, dir); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
