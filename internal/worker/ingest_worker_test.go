package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"donorboard/internal/amqp"
	"donorboard/internal/core"
	"donorboard/internal/source"
	"donorboard/internal/source/memory"
	"donorboard/internal/storage"
)

type fakeWriter struct {
	mu     sync.Mutex
	saved  []core.DonationRecord
	donors []core.DonorIdentity
	err    error
}

func (f *fakeWriter) SaveDonation(_ context.Context, d core.DonationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, d)
	return nil
}

func (f *fakeWriter) SaveIdentity(_ context.Context, id core.DonorIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.donors = append(f.donors, id)
	return nil
}

type fakeLister struct {
	donations  []core.DonationRecord
	identities map[string]core.DonorIdentity
	err        error
}

func (f fakeLister) ListDonations(context.Context, source.DonationFilter) ([]core.DonationRecord, error) {
	return f.donations, f.err
}

func (f fakeLister) GetDonorIdentity(_ context.Context, donorID string) (core.DonorIdentity, error) {
	id, ok := f.identities[donorID]
	if !ok {
		return core.DonorIdentity{}, source.ErrNotFound
	}
	return id, nil
}

func message(p source.DonationPayload) *amqp.DonationRecordedMessage {
	return &amqp.DonationRecordedMessage{MessageID: "m-1", Donation: p}
}

func payload() source.DonationPayload {
	return source.DonationPayload{ID: "1", DonorID: "2", OrgID: "o", Amount: "20", Date: "2024-02-01", Status: "completed"}
}

func TestHandleDonationRecorded(t *testing.T) {
	w := &fakeWriter{}
	iw := NewIngestWorker(w, nil)

	if err := iw.HandleDonationRecorded(context.Background(), message(payload())); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(w.saved) != 1 || w.saved[0].ID != "1" || w.saved[0].Date != core.NewDate(2024, 2, 1) {
		t.Fatalf("unexpected saved donations: %+v", w.saved)
	}

	odd := payload()
	odd.ID = "2"
	odd.Date = "01/02/2024"
	if err := iw.HandleDonationRecorded(context.Background(), message(odd)); err != nil {
		t.Fatalf("malformed dates are stored, got %v", err)
	}
	if len(w.saved) != 2 || w.saved[1].HasDate() {
		t.Fatalf("expected quarantined donation to be stored: %+v", w.saved)
	}
}

func TestHandleDonationRecordedRejectsInvalidPayload(t *testing.T) {
	w := &fakeWriter{}
	iw := NewIngestWorker(w, nil)
	bad := payload()
	bad.Amount = "-10"

	err := iw.HandleDonationRecorded(context.Background(), message(bad))
	if !amqp.IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	var ve *source.ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("expected amount validation error, got %v", err)
	}
	if len(w.saved) != 0 {
		t.Fatalf("invalid donation must not be stored")
	}
}

func TestHandleDonationRecordedRequeuesStorageErrors(t *testing.T) {
	storageErr := errors.New("database is locked")
	iw := NewIngestWorker(&fakeWriter{err: storageErr}, nil)

	err := iw.HandleDonationRecorded(context.Background(), message(payload()))
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if amqp.IsRejected(err) {
		t.Fatalf("storage errors must be requeued")
	}
}

func TestBackfill(t *testing.T) {
	donations := []core.DonationRecord{
		{ID: "1", DonorID: "a", OrgID: "o", Amount: core.NewAmount(1), Status: core.StatusCompleted},
		{ID: "2", DonorID: "b", OrgID: "o", Amount: core.NewAmount(2), Status: core.StatusCompleted},
	}
	w := &fakeWriter{}
	n, err := NewIngestWorker(w, nil).Backfill(context.Background(), fakeLister{donations: donations})
	if err != nil || n != 2 || len(w.saved) != 2 {
		t.Fatalf("backfill: n=%d err=%v saved=%d", n, err, len(w.saved))
	}

	listErr := &source.TransportError{Op: "list donations", Err: errors.New("down")}
	if _, err := NewIngestWorker(w, nil).Backfill(context.Background(), fakeLister{err: listErr}); !source.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}

	n, err = NewIngestWorker(&fakeWriter{err: errors.New("full")}, nil).Backfill(context.Background(), fakeLister{donations: donations})
	if err == nil || n != 0 {
		t.Fatalf("expected joined errors, got n=%d err=%v", n, err)
	}
}

func TestBackfillCopiesIdentities(t *testing.T) {
	donations := []core.DonationRecord{
		{ID: "1", DonorID: "7", OrgID: "o", Amount: core.NewAmount(10), Status: core.StatusCompleted},
		{ID: "2", DonorID: "8", OrgID: "o", Amount: core.NewAmount(5), Status: core.StatusCompleted},
		{ID: "3", DonorID: "7", OrgID: "o", Amount: core.NewAmount(1), Status: core.StatusCompleted},
	}
	src := memory.New(donations, []core.DonorIdentity{{DonorID: "7", DisplayName: "Ana"}})

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	n, err := NewIngestWorker(repo, nil).Backfill(ctx, src)
	if err != nil || n != 3 {
		t.Fatalf("backfill: n=%d err=%v", n, err)
	}

	id, err := repo.GetDonorIdentity(ctx, "7")
	if err != nil || id.DisplayName != "Ana" {
		t.Fatalf("identity 7 = %+v, err=%v", id, err)
	}
	if _, err := repo.GetDonorIdentity(ctx, "8"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("donor unknown to the source must stay unknown, got %v", err)
	}
}

func TestBackfillReportsIdentityFailures(t *testing.T) {
	donations := []core.DonationRecord{
		{ID: "1", DonorID: "a", OrgID: "o", Amount: core.NewAmount(1), Status: core.StatusCompleted},
	}
	w := &fakeWriter{}
	src := fakeLister{donations: donations, identities: map[string]core.DonorIdentity{"a": {DisplayName: "Bo"}}}
	n, err := NewIngestWorker(w, nil).Backfill(context.Background(), src)
	if err != nil || n != 1 {
		t.Fatalf("backfill: n=%d err=%v", n, err)
	}
	if len(w.donors) != 1 || w.donors[0].DonorID != "a" || w.donors[0].DisplayName != "Bo" {
		t.Fatalf("unexpected identities: %+v", w.donors)
	}

	lookupErr := &source.TransportError{Op: "get donor", Err: errors.New("down")}
	n, err = NewIngestWorker(&fakeWriter{}, nil).Backfill(context.Background(), failingIdentities{fakeLister{donations: donations}, lookupErr})
	if n != 1 || !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error after saving donations, got n=%d err=%v", n, err)
	}
}

type failingIdentities struct {
	fakeLister
	err error
}

func (f failingIdentities) GetDonorIdentity(context.Context, string) (core.DonorIdentity, error) {
	return core.DonorIdentity{}, f.err
}
