// Package services orchestrates dashboard queries: one fetch of the
// organization's donations, the enrichment join, then the aggregators.
package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"donorboard/internal/analytics"
	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

// ListOptions is the text filter and sort requested for a list view.
type ListOptions struct {
	Text      string
	Sort      string
	Direction analytics.Direction
}

// Overview bundles the three dashboard aggregates computed from one fetch.
type Overview struct {
	OrgID     string                `json:"orgId"`
	Start     core.Date             `json:"start"`
	End       core.Date             `json:"end"`
	Stats     core.OrgDonationStats `json:"stats"`
	Donors    []core.DonorSummary   `json:"donors"`
	Monthly   []core.MonthlyBucket  `json:"monthly"`
	Undated   int                   `json:"undatedDonations"`
	Truncated bool                  `json:"truncated,omitempty"`
}

// DashboardService answers dashboard queries for one organization at a time.
// It holds no per-organization state; the organization and the window are
// arguments of every call.
type DashboardService struct {
	donations source.DonationLister
	enricher  *analytics.Enricher
	language  language.Tag
	logger    *log.Logger

	enricherOpts []analytics.EnricherOption
}

type Option func(*DashboardService)

// WithLanguage sets the collation language for name sorting.
func WithLanguage(tag language.Tag) Option {
	return func(s *DashboardService) { s.language = tag }
}

func WithLogger(l *log.Logger) Option {
	return func(s *DashboardService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEnricherOptions forwards lookup timeout and concurrency settings.
func WithEnricherOptions(opts ...analytics.EnricherOption) Option {
	return func(s *DashboardService) { s.enricherOpts = append(s.enricherOpts, opts...) }
}

func NewDashboardService(donations source.DonationLister, identities source.IdentityReader, opts ...Option) *DashboardService {
	s := &DashboardService{
		donations: donations,
		language:  language.English,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enricher = analytics.NewEnricher(identities, s.enricherOpts...)
	s.logger = s.logger.WithComponent(log.ComponentAnalytics)
	return s
}

// OrgStats returns the organization's totals. It needs no identities.
func (s *DashboardService) OrgStats(ctx context.Context, orgID string) (core.OrgDonationStats, error) {
	donations, err := s.fetch(ctx, orgID)
	if err != nil {
		return core.OrgDonationStats{}, err
	}
	return analytics.ComputeOrgStats(orgID, donations), nil
}

// DonorSummaries returns one summary per donor, filtered and sorted by opts.
func (s *DashboardService) DonorSummaries(ctx context.Context, orgID string, opts ListOptions) ([]core.DonorSummary, error) {
	key, err := analytics.DonorSummaryKeys.Lookup(opts.Sort)
	if err != nil {
		return nil, err
	}
	donations, err := s.fetch(ctx, orgID)
	if err != nil {
		return nil, err
	}
	summaries := analytics.ComputeDonorSummaries(s.enricher.Enrich(ctx, donations), orgID)
	return analytics.FilterAndSort(summaries, analytics.ListQuery[core.DonorSummary]{
		Text:      opts.Text,
		Fields:    analytics.DonorSummaryText,
		Sort:      key,
		Direction: opts.Direction,
		Language:  s.language,
	}), nil
}

// Donations returns the organization's donations with donor names attached.
func (s *DashboardService) Donations(ctx context.Context, orgID string, opts ListOptions) ([]core.EnrichedDonation, error) {
	key, err := analytics.DonationKeys.Lookup(opts.Sort)
	if err != nil {
		return nil, err
	}
	donations, err := s.fetch(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return analytics.FilterAndSort(s.enricher.Enrich(ctx, donations), analytics.ListQuery[core.EnrichedDonation]{
		Text:      opts.Text,
		Fields:    analytics.DonationText,
		Sort:      key,
		Direction: opts.Direction,
		Language:  s.language,
	}), nil
}

// MonthlyBuckets returns the zero-filled monthly series for window.
func (s *DashboardService) MonthlyBuckets(ctx context.Context, orgID string, window core.DateWindow) (analytics.BucketReport, error) {
	donations, err := s.fetch(ctx, orgID)
	if err != nil {
		return analytics.BucketReport{}, err
	}
	report := analytics.BucketMonths(donations, window)
	s.logSkipped(ctx, orgID, window, report)
	return report, nil
}

// Overview computes stats, donor summaries and the monthly series from a
// single fetch and a single enrichment pass.
func (s *DashboardService) Overview(ctx context.Context, orgID string, window core.DateWindow) (Overview, error) {
	donations, err := s.fetch(ctx, orgID)
	if err != nil {
		return Overview{}, err
	}
	report := analytics.BucketMonths(donations, window)
	s.logSkipped(ctx, orgID, window, report)

	return Overview{
		OrgID:     orgID,
		Start:     window.Start,
		End:       window.End,
		Stats:     analytics.ComputeOrgStats(orgID, donations),
		Donors:    analytics.ComputeDonorSummaries(s.enricher.Enrich(ctx, donations), orgID),
		Monthly:   report.Buckets,
		Undated:   report.Undated,
		Truncated: report.Truncated,
	}, nil
}

// fetch lists the organization's donations. Every listing failure is
// reported as a *source.TransportError.
func (s *DashboardService) fetch(ctx context.Context, orgID string) ([]core.DonationRecord, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, core.ErrEmptyOrgID
	}
	donations, err := s.donations.ListDonations(ctx, source.DonationFilter{OrgID: orgID})
	if err != nil {
		s.logger.ErrorContext(ctx, "Donation fetch failed",
			log.FieldOrgID, orgID,
			log.FieldOperation, log.OpList,
			log.FieldError, err.Error())
		if !source.IsTransport(err) {
			err = &source.TransportError{Op: "list donations", Err: err}
		}
		return nil, fmt.Errorf("org %s: %w", orgID, err)
	}
	// Backends filter by organization too; this keeps the aggregators
	// scoped even when one does not.
	return source.FilterByOrg(donations, orgID), nil
}

func (s *DashboardService) logSkipped(ctx context.Context, orgID string, window core.DateWindow, report analytics.BucketReport) {
	if report.Undated == 0 && !report.Truncated {
		return
	}
	s.logger.WarnContext(ctx, "Donations left out of monthly buckets",
		log.FieldOperation, log.OpAggregate,
		log.FieldOrgID, orgID,
		log.FieldWindowStart, window.Start.String(),
		log.FieldWindowEnd, window.End.String(),
		"undated", report.Undated,
		"truncated", report.Truncated)
}
