package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"donorboard/internal/core"
	"donorboard/internal/log"
)

// FlexID is an identifier that may arrive as a JSON string or number.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// FlexAmount is an amount that may arrive as a JSON number or as a string.
// Strings may use a comma as the decimal separator.
type FlexAmount string

func (a *FlexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = FlexAmount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = FlexAmount(n.String())
	return nil
}

// MarshalJSON writes a number when the value is one and a string otherwise.
func (a FlexAmount) MarshalJSON() ([]byte, error) {
	if d, err := decimal.NewFromString(string(a)); err == nil {
		return []byte(d.String()), nil
	}
	return json.Marshal(string(a))
}

// Parse converts the value to an Amount. Exponent forms such as 1e2 are
// valid JSON numbers and are accepted here; everything else goes through
// core.ParseAmount.
func (a FlexAmount) Parse() (core.Amount, error) {
	s := strings.TrimSpace(string(a))
	if strings.ContainsAny(s, "eE") {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return core.Amount{}, core.ErrInvalidAmount
		}
		return core.Amount{Decimal: d}, nil
	}
	return core.ParseAmount(s)
}

// DonationPayload is a donation as the platform API and the payment flow send it.
type DonationPayload struct {
	ID           FlexID      `json:"id"`
	DonorID      FlexID      `json:"donorId"`
	OrgID        FlexID      `json:"orgId"`
	Amount       FlexAmount  `json:"amount"`
	Method       string      `json:"method"`
	Date         string      `json:"date"`
	IsAnonymous  bool        `json:"isAnonymous"`
	DonorMessage *string     `json:"donorMessage,omitempty"`
	Status       string      `json:"status"`
}

// IdentityPayload is a donor identity as the platform API sends it.
type IdentityPayload struct {
	DonorID        FlexID  `json:"donorId"`
	DisplayName    string  `json:"displayName"`
	Email          string  `json:"email"`
	DocumentNumber *string `json:"documentNumber,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}

// ValidationError reports a payload that cannot be turned into a domain record.
type ValidationError struct {
	RecordID string
	Field    string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("record %q: field %s: %v", e.RecordID, e.Field, e.Err)
	}
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeDonation validates a payload and converts it to a DonationRecord.
//
// Missing ids, non-numeric or negative amounts and unknown statuses fail.
// A date that is not ISO 8601 does not fail: the record is returned with a
// zero Date and the original text in RawDate, so it still counts in totals
// but is kept out of time buckets.
func DecodeDonation(p DonationPayload) (core.DonationRecord, error) {
	id := strings.TrimSpace(string(p.ID))
	if id == "" {
		return core.DonationRecord{}, &ValidationError{Field: "id", Err: core.ErrEmptyDonationID}
	}
	amount, err := p.Amount.Parse()
	if err != nil {
		return core.DonationRecord{}, &ValidationError{RecordID: id, Field: "amount", Err: err}
	}
	status, err := core.ParseStatus(p.Status)
	if err != nil {
		return core.DonationRecord{}, &ValidationError{RecordID: id, Field: "status", Err: fmt.Errorf("%w: %q", err, p.Status)}
	}

	d := core.DonationRecord{
		ID:           id,
		DonorID:      strings.TrimSpace(string(p.DonorID)),
		OrgID:        strings.TrimSpace(string(p.OrgID)),
		Amount:       amount,
		Method:       strings.TrimSpace(p.Method),
		RawDate:      p.Date,
		IsAnonymous:  p.IsAnonymous,
		DonorMessage: p.DonorMessage,
		Status:       status,
	}
	if date, err := core.ParseDate(p.Date); err == nil {
		d.Date = date
	}

	if err := d.Validate(); err != nil {
		return core.DonationRecord{}, &ValidationError{RecordID: id, Field: fieldOf(err), Err: err}
	}
	return d, nil
}

// DecodeDonations decodes a batch, failing on the first invalid payload.
// Quarantined dates are logged at warn level.
func DecodeDonations(ctx context.Context, payloads []DonationPayload) ([]core.DonationRecord, error) {
	out := make([]core.DonationRecord, 0, len(payloads))
	for i, p := range payloads {
		d, err := DecodeDonation(p)
		if err != nil {
			return nil, fmt.Errorf("donation %d: %w", i, err)
		}
		if !d.HasDate() {
			log.FromContext(ctx).WarnContext(ctx, "Donation date is not ISO 8601, excluded from monthly buckets",
				log.FieldDonationID, d.ID,
				log.FieldRawDate, d.RawDate)
		}
		out = append(out, d)
	}
	return out, nil
}

// EncodeDonation is the inverse of DecodeDonation.
func EncodeDonation(d core.DonationRecord) DonationPayload {
	date := d.Date.String()
	if date == "" {
		date = d.RawDate
	}
	return DonationPayload{
		ID:           FlexID(d.ID),
		DonorID:      FlexID(d.DonorID),
		OrgID:        FlexID(d.OrgID),
		Amount:       FlexAmount(d.Amount.Decimal.String()),
		Method:       d.Method,
		Date:         date,
		IsAnonymous:  d.IsAnonymous,
		DonorMessage: d.DonorMessage,
		Status:       string(d.Status),
	}
}

// DecodeIdentity validates an identity payload. When the payload carries no
// donor id, requestedID is used.
func DecodeIdentity(p IdentityPayload, requestedID string) (core.DonorIdentity, error) {
	id := strings.TrimSpace(string(p.DonorID))
	if id == "" {
		id = strings.TrimSpace(requestedID)
	}
	if requestedID != "" && id != requestedID {
		return core.DonorIdentity{}, &ValidationError{RecordID: requestedID, Field: "donorId",
			Err: fmt.Errorf("identity for %q returned for %q", id, requestedID)}
	}
	identity := core.DonorIdentity{
		DonorID:        id,
		DisplayName:    strings.TrimSpace(p.DisplayName),
		Email:          strings.TrimSpace(p.Email),
		DocumentNumber: p.DocumentNumber,
		Phone:          p.Phone,
		ImageURL:       p.ImageURL,
	}
	if err := identity.Validate(); err != nil {
		return core.DonorIdentity{}, &ValidationError{Field: "donorId", Err: err}
	}
	return identity, nil
}

func fieldOf(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyDonationID):
		return "id"
	case errors.Is(err, core.ErrEmptyDonorID):
		return "donorId"
	case errors.Is(err, core.ErrEmptyOrgID):
		return "orgId"
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, core.ErrInvalidStatus):
		return "status"
	default:
		return "record"
	}
}
