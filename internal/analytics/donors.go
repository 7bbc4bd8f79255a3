package analytics

import "donorboard/internal/core"

// ComputeDonorSummaries groups donations by donor and derives lifetime
// statistics for each. When orgID is not empty only that organization's
// donations qualify. Donors appear in order of their first qualifying
// donation; donors without one are not reported.
func ComputeDonorSummaries(donations []core.EnrichedDonation, orgID string) []core.DonorSummary {
	index := make(map[string]int)
	var out []core.DonorSummary

	for _, d := range donations {
		if orgID != "" && d.OrgID != orgID {
			continue
		}
		i, ok := index[d.DonorID]
		if !ok {
			i = len(out)
			index[d.DonorID] = i
			out = append(out, core.DonorSummary{
				DonorID:       d.DonorID,
				DonorName:     d.DonorName,
				DonorImageURL: d.DonorImageURL,
				TotalDonated:  core.ZeroAmount,
			})
		}
		s := &out[i]
		s.TotalDonated = s.TotalDonated.Add(d.Amount)
		s.DonationCount++
		if d.HasDate() && (s.LastDonationDate == nil || d.Date.After(*s.LastDonationDate)) {
			last := d.Date
			s.LastDonationDate = &last
		}
	}

	for i := range out {
		out[i].AverageDonation = out[i].TotalDonated.DivBy(out[i].DonationCount)
		out[i].IsRecurring = out[i].DonationCount > 1
	}
	return out
}

// SummarizeDonors is ComputeDonorSummaries over raw donations with optional,
// already-resolved identities. Donors missing from identities are reported
// under the sentinel name.
func SummarizeDonors(donations []core.DonationRecord, identities map[string]core.DonorIdentity) []core.DonorSummary {
	return ComputeDonorSummaries(EnrichWith(donations, identities), "")
}
