package google

import (
	"context"
	"fmt"
	"strings"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

// donationColumns is the header row of the donations sheet. Columns may
// appear in any order when reading; writes use this order.
var donationColumns = []string{"id", "donorId", "orgId", "amount", "method", "date", "isAnonymous", "donorMessage", "status"}

var requiredDonationColumns = []string{"id", "donorId", "orgId", "amount", "status"}

// parseDonations converts a values matrix into donation records. The first
// row is the header; blank rows are skipped.
func parseDonations(ctx context.Context, values [][]any) ([]core.DonationRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(donationColumns))
	for _, name := range donationColumns {
		cols[name] = indexOf(headers, name)
	}
	if missing := missingColumns(cols, requiredDonationColumns); len(missing) > 0 {
		return nil, fmt.Errorf("unexpected donations header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	payloads := make([]source.DonationPayload, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		p := source.DonationPayload{
			ID:          source.FlexID(safeGet(row, cols["id"])),
			DonorID:     source.FlexID(safeGet(row, cols["donorId"])),
			OrgID:       source.FlexID(safeGet(row, cols["orgId"])),
			Amount:      source.FlexAmount(safeGet(row, cols["amount"])),
			Method:      safeGet(row, cols["method"]),
			Date:        safeGet(row, cols["date"]),
			IsAnonymous: parseBool(safeGet(row, cols["isAnonymous"])),
			Status:      safeGet(row, cols["status"]),
		}
		if msg := safeGet(row, cols["donorMessage"]); msg != "" {
			p.DonorMessage = &msg
		}
		payloads = append(payloads, p)
	}
	return source.DecodeDonations(ctx, payloads)
}

// parseDonors converts a values matrix into identities keyed by donor id.
func parseDonors(values [][]any) (map[string]core.DonorIdentity, error) {
	out := make(map[string]core.DonorIdentity)
	if len(values) == 0 {
		return out, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "donorId")
	if colID == -1 {
		return nil, fmt.Errorf("unexpected donors header: missing donorId; got headers=%v", headers)
	}
	colName := indexOf(headers, "displayName")
	colEmail := indexOf(headers, "email")
	colDoc := indexOf(headers, "documentNumber")
	colPhone := indexOf(headers, "phone")
	colImage := indexOf(headers, "imageUrl")

	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		identity, err := source.DecodeIdentity(source.IdentityPayload{
			DonorID:        source.FlexID(safeGet(row, colID)),
			DisplayName:    safeGet(row, colName),
			Email:          safeGet(row, colEmail),
			DocumentNumber: optional(safeGet(row, colDoc)),
			Phone:          optional(safeGet(row, colPhone)),
			ImageURL:       optional(safeGet(row, colImage)),
		}, "")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[identity.DonorID] = identity
	}
	return out, nil
}

func donationRow(d core.DonationRecord) []any {
	p := source.EncodeDonation(d)
	msg := ""
	if p.DonorMessage != nil {
		msg = *p.DonorMessage
	}
	return []any{string(p.ID), string(p.DonorID), string(p.OrgID), string(p.Amount), p.Method, p.Date, p.IsAnonymous, msg, p.Status}
}

func missingColumns(cols map[string]int, required []string) []string {
	var missing []string
	for _, name := range required {
		if cols[name] == -1 {
			missing = append(missing, name)
		}
	}
	return missing
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	default:
		return false
	}
}
