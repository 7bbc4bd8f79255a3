package core

import (
	"errors"
	"strings"
)

const (
	StatusCompleted DonationStatus = "completed"
	StatusPending   DonationStatus = "pending"
	StatusFailed    DonationStatus = "failed"
)

// UnknownDonorName is the display name of the sentinel identity.
const UnknownDonorName = "Unknown donor"

type (
	DonationStatus string

	// DonationRecord is one donation as produced by the payment flow.
	// It is read-only input for the analytics engine.
	DonationRecord struct {
		ID           string         `json:"id"`
		DonorID      string         `json:"donorId"`
		OrgID        string         `json:"orgId"`
		Amount       Amount         `json:"amount"`
		Method       string         `json:"method"` // free-text payment method label
		Date         Date           `json:"date"`
		RawDate      string         `json:"rawDate,omitempty"` // date as received, kept when Date could not be parsed
		IsAnonymous  bool           `json:"isAnonymous"`
		DonorMessage *string        `json:"donorMessage,omitempty"`
		Status       DonationStatus `json:"status"`
	}

	// DonorIdentity is the identity snapshot of a donor.
	DonorIdentity struct {
		DonorID        string
		DisplayName    string
		Email          string
		DocumentNumber *string
		Phone          *string
		ImageURL       *string
	}

	// EnrichedDonation is a donation with the resolved donor name and image attached.
	EnrichedDonation struct {
		DonationRecord
		DonorName     string `json:"donorName"`
		DonorImageURL string `json:"donorImageUrl,omitempty"`
	}
)

var (
	ErrEmptyDonationID = errors.New("empty donation id")
	ErrEmptyDonorID    = errors.New("empty donor id")
	ErrEmptyOrgID      = errors.New("empty organization id")
	ErrInvalidStatus   = errors.New("invalid donation status")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMalformedDate   = errors.New("malformed date")
)

// ParseStatus maps a wire status to a DonationStatus. Matching is case-insensitive.
func ParseStatus(s string) (DonationStatus, error) {
	st := DonationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// IsValid reports whether s is one of the three known states.
func (s DonationStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	default:
		return false
	}
}

func (s DonationStatus) String() string {
	return string(s)
}

// HasDate reports whether the record carries a usable calendar date.
// Records without one are quarantined from time-bucket aggregation.
func (d DonationRecord) HasDate() bool {
	return !d.Date.IsZero()
}

func (d DonationRecord) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyDonationID
	}
	if strings.TrimSpace(d.DonorID) == "" {
		return ErrEmptyDonorID
	}
	if strings.TrimSpace(d.OrgID) == "" {
		return ErrEmptyOrgID
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (i DonorIdentity) Validate() error {
	if strings.TrimSpace(i.DonorID) == "" {
		return ErrEmptyDonorID
	}
	return nil
}

// UnknownDonor returns the placeholder identity substituted when a lookup fails.
func UnknownDonor(donorID string) DonorIdentity {
	return DonorIdentity{
		DonorID:     donorID,
		DisplayName: UnknownDonorName,
	}
}

// Image returns the image URL or "" when the donor has none.
func (i DonorIdentity) Image() string {
	if i.ImageURL == nil {
		return ""
	}
	return *i.ImageURL
}
