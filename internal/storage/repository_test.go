package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "donorboard.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndListDonations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	msg := "for the shelter"

	in := []core.DonationRecord{
		{ID: "1", DonorID: "10", OrgID: "o1", Amount: core.AmountFromCents(5000), Method: "card",
			Date: core.NewDate(2024, 1, 10), RawDate: "2024-01-10", Status: core.StatusCompleted, DonorMessage: &msg},
		{ID: "2", DonorID: "11", OrgID: "o2", Amount: core.AmountFromCents(1234),
			Date: core.NewDate(2024, 2, 1), RawDate: "2024-02-01", Status: core.StatusPending},
		{ID: "3", DonorID: "10", OrgID: "o1", Amount: core.AmountFromCents(250),
			RawDate: "01/03/2024", Status: core.StatusFailed, IsAnonymous: true},
	}
	for _, d := range in {
		if err := repo.SaveDonation(ctx, d); err != nil {
			t.Fatalf("save %s: %v", d.ID, err)
		}
	}

	got, err := repo.ListDonations(ctx, source.DonationFilter{OrgID: "o1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected donations: %+v", got)
	}
	first := got[0]
	if !first.Amount.Equal(core.NewAmount(50)) || first.Date != core.NewDate(2024, 1, 10) || first.Method != "card" {
		t.Fatalf("unexpected first donation: %+v", first)
	}
	if first.DonorMessage == nil || *first.DonorMessage != msg {
		t.Fatalf("unexpected message: %v", first.DonorMessage)
	}
	third := got[1]
	if third.HasDate() || third.RawDate != "01/03/2024" || !third.IsAnonymous || third.DonorMessage != nil {
		t.Fatalf("unexpected quarantined donation: %+v", third)
	}

	all, err := repo.ListDonations(ctx, source.DonationFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 donations, got %d err=%v", len(all), err)
	}
}

func TestSaveDonationIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	d := core.DonationRecord{ID: "1", DonorID: "10", OrgID: "o", Amount: core.NewAmount(5),
		Date: core.NewDate(2024, 1, 1), Status: core.StatusPending}
	if err := repo.SaveDonation(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	d.Status = core.StatusCompleted
	if err := repo.SaveDonation(ctx, d); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, _ := repo.ListDonations(ctx, source.DonationFilter{})
	if len(got) != 1 || got[0].Status != core.StatusCompleted {
		t.Fatalf("expected one completed donation, got %+v", got)
	}

	if err := repo.SaveDonation(ctx, core.DonationRecord{ID: "2", DonorID: "1", OrgID: "o", Status: "refunded"}); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDonorIdentities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	img := "https://img/10.png"

	if _, err := repo.GetDonorIdentity(ctx, "10"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SaveIdentity(ctx, core.DonorIdentity{DonorID: "10", DisplayName: "Ana", ImageURL: &img}); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if err := repo.SaveIdentity(ctx, core.DonorIdentity{DonorID: "10", DisplayName: "Ana Maria", ImageURL: &img}); err != nil {
		t.Fatalf("update identity: %v", err)
	}
	id, err := repo.GetDonorIdentity(ctx, "10")
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if id.DisplayName != "Ana Maria" || id.Image() != img || id.Phone != nil {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if err := repo.SaveIdentity(ctx, core.DonorIdentity{}); !errors.Is(err, core.ErrEmptyDonorID) {
		t.Fatalf("expected ErrEmptyDonorID, got %v", err)
	}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
