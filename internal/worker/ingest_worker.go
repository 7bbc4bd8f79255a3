// Package worker turns donation events into stored donation records.
package worker

import (
	"context"
	"errors"
	"fmt"

	"donorboard/internal/amqp"
	"donorboard/internal/analytics"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

// IngestWorker validates donation.recorded events and stores them.
type IngestWorker struct {
	writer source.DonationWriter
	logger *log.Logger
}

func NewIngestWorker(writer source.DonationWriter, logger *log.Logger) *IngestWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &IngestWorker{writer: writer, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleDonationRecorded stores the donation carried by msg. Payloads that
// fail validation are rejected so the broker drops them; storage failures
// are returned as-is and the message is redelivered.
func (w *IngestWorker) HandleDonationRecorded(ctx context.Context, msg *amqp.DonationRecordedMessage) error {
	d, err := source.DecodeDonation(msg.Donation)
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpValidate).
			WithError(err)
		fields["message_id"] = msg.MessageID
		w.logger.WarnContext(ctx, "Rejecting invalid donation event", fields.ToSlice()...)
		return amqp.Reject(fmt.Errorf("decode donation: %w", err))
	}
	if !d.HasDate() {
		w.logger.WarnContext(ctx, "Donation date is not ISO 8601, excluded from monthly buckets",
			log.FieldDonationID, d.ID,
			log.FieldRawDate, d.RawDate)
	}

	if err := w.writer.SaveDonation(ctx, d); err != nil {
		return fmt.Errorf("save donation %s: %w", d.ID, err)
	}

	fields := log.NewFields().
		WithDonation(d.ID, d.DonorID, d.OrgID).
		WithOperation(log.OpIngest)
	fields["message_id"] = msg.MessageID
	w.logger.InfoContext(ctx, "Donation ingested", fields.ToSlice()...)
	return nil
}

// Backfill copies every donation from src into the worker's store. It is
// used on startup to recover events missed while the worker was down. When
// the store also keeps identities, the identity of every backfilled donor is
// copied too; donors src does not know are skipped.
func (w *IngestWorker) Backfill(ctx context.Context, src source.Fetcher) (int, error) {
	donations, err := src.ListDonations(ctx, source.DonationFilter{})
	if err != nil {
		return 0, fmt.Errorf("list donations: %w", err)
	}

	saved := 0
	var errs []error
	for _, d := range donations {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := w.writer.SaveDonation(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("save donation %s: %w", d.ID, err))
			continue
		}
		saved++
	}

	identities := 0
	if iw, ok := w.writer.(source.IdentityWriter); ok {
		for _, donorID := range analytics.UniqueDonorIDs(donations) {
			if err := ctx.Err(); err != nil {
				return saved, err
			}
			identity, err := src.GetDonorIdentity(ctx, donorID)
			if errors.Is(err, source.ErrNotFound) {
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("get donor %s: %w", donorID, err))
				continue
			}
			identity.DonorID = donorID
			if err := iw.SaveIdentity(ctx, identity); err != nil {
				errs = append(errs, fmt.Errorf("save donor %s: %w", donorID, err))
				continue
			}
			identities++
		}
	}

	w.logger.InfoContext(ctx, "Backfill finished",
		log.FieldCount, saved,
		"identities", identities,
		"failed", len(errs))
	return saved, errors.Join(errs...)
}
