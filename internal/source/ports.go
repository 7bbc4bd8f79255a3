// Package source defines the record fetcher boundary: the ports the analytics
// engine reads donations and donor identities through, the wire payloads
// collaborators speak, and the validating adapter between the two.
package source

import (
	"context"
	"errors"
	"fmt"

	"donorboard/internal/core"
)

// Ports for outbound adapters.
type (
	// DonationFilter scopes a donation listing. An empty OrgID means all organizations.
	DonationFilter struct {
		OrgID string
	}

	DonationLister interface {
		// ListDonations returns every donation matching filter. Implementations
		// report unreachable backends as *TransportError.
		ListDonations(ctx context.Context, filter DonationFilter) ([]core.DonationRecord, error)
	}

	IdentityReader interface {
		// GetDonorIdentity returns the identity of one donor, or ErrNotFound.
		GetDonorIdentity(ctx context.Context, donorID string) (core.DonorIdentity, error)
	}

	DonationWriter interface {
		SaveDonation(ctx context.Context, d core.DonationRecord) error
	}

	IdentityWriter interface {
		SaveIdentity(ctx context.Context, id core.DonorIdentity) error
	}

	// Fetcher is everything the dashboard reads from a backend.
	Fetcher interface {
		DonationLister
		IdentityReader
	}
)

// ErrNotFound is returned by IdentityReader when the donor does not exist.
var ErrNotFound = errors.New("not found")

// TransportError reports that the record fetcher could not be reached or
// answered with a non-success status. It is the only failure that aborts a
// dashboard computation.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FilterByOrg returns the donations that belong to orgID. An empty orgID
// returns a copy of the input.
func FilterByOrg(donations []core.DonationRecord, orgID string) []core.DonationRecord {
	out := make([]core.DonationRecord, 0, len(donations))
	for _, d := range donations {
		if orgID == "" || d.OrgID == orgID {
			out = append(out, d)
		}
	}
	return out
}
