// Package analytics implements the donation aggregation engine: the donor
// enrichment join, the per-donor, per-organization and monthly aggregators,
// and the filter/sort pipeline used by dashboard views.
//
// Every function here is a pure transformation of its inputs, except
// Enricher.Enrich, which performs one identity lookup per distinct donor.
package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

const (
	// DefaultLookupTimeout bounds a single identity lookup.
	DefaultLookupTimeout = 5 * time.Second
	// DefaultLookupConcurrency bounds in-flight identity lookups per call.
	DefaultLookupConcurrency = 8
)

// Enricher joins donations with donor identities.
type Enricher struct {
	identities  source.IdentityReader
	timeout     time.Duration
	concurrency int
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithLookupTimeout sets the per-lookup timeout. Non-positive values are ignored.
func WithLookupTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLookupConcurrency sets how many lookups may run at once. Non-positive values are ignored.
func WithLookupConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewEnricher(identities source.IdentityReader, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		identities:  identities,
		timeout:     DefaultLookupTimeout,
		concurrency: DefaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich resolves each distinct donor id exactly once and attaches the
// resolved name and image to every donation by that donor. A failed lookup
// degrades to the sentinel identity for that donor only; Enrich itself never
// fails and always returns one entry per input donation, in input order.
func (e *Enricher) Enrich(ctx context.Context, donations []core.DonationRecord) []core.EnrichedDonation {
	ids := UniqueDonorIDs(donations)
	resolved := make([]core.DonorIdentity, len(ids))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			resolved[i] = e.lookup(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	table := make(map[string]core.DonorIdentity, len(ids))
	for i, id := range ids {
		table[id] = resolved[i]
	}

	log.FromContext(ctx).DebugContext(ctx, "Donations enriched",
		log.FieldOperation, log.OpEnrich,
		log.FieldCount, len(donations),
		"unique_donors", len(ids))

	return EnrichWith(donations, table)
}

func (e *Enricher) lookup(ctx context.Context, donorID string) core.DonorIdentity {
	if e.identities == nil {
		return core.UnknownDonor(donorID)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	identity, err := e.identities.GetDonorIdentity(ctx, donorID)
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpLookup).
			WithError(err)
		fields[log.FieldDonorID] = donorID
		log.FromContext(ctx).WarnContext(ctx, "Donor identity lookup failed, using placeholder", fields.ToSlice()...)
		return core.UnknownDonor(donorID)
	}
	identity.DonorID = donorID
	return identity
}

// EnrichWith attaches identities that are already known. Donors missing from
// identities, including when identities is nil, get the sentinel identity.
func EnrichWith(donations []core.DonationRecord, identities map[string]core.DonorIdentity) []core.EnrichedDonation {
	out := make([]core.EnrichedDonation, len(donations))
	for i, d := range donations {
		identity, ok := identities[d.DonorID]
		if !ok {
			identity = core.UnknownDonor(d.DonorID)
		}
		out[i] = core.EnrichedDonation{
			DonationRecord: d,
			DonorName:      identity.DisplayName,
			DonorImageURL:  identity.Image(),
		}
	}
	return out
}

// UniqueDonorIDs returns the distinct donor ids in order of first appearance.
func UniqueDonorIDs(donations []core.DonationRecord) []string {
	seen := make(map[string]struct{}, len(donations))
	out := make([]string, 0, len(donations))
	for _, d := range donations {
		if _, ok := seen[d.DonorID]; ok {
			continue
		}
		seen[d.DonorID] = struct{}{}
		out = append(out, d.DonorID)
	}
	return out
}
