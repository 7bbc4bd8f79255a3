package analytics

import "donorboard/internal/core"

// ComputeOrgStats summarizes the donations of one organization. Donations of
// other organizations are ignored even if the caller passed them in.
//
// DonorCount counts distinct donors, and AvgDonation is the total divided by
// that count: the average given per donor, not the average donation amount.
func ComputeOrgStats(orgID string, donations []core.DonationRecord) core.OrgDonationStats {
	stats := core.OrgDonationStats{
		OrgID:          orgID,
		TotalDonations: core.ZeroAmount,
	}
	donors := make(map[string]struct{})
	for _, d := range donations {
		if orgID != "" && d.OrgID != orgID {
			continue
		}
		stats.TotalDonations = stats.TotalDonations.Add(d.Amount)
		donors[d.DonorID] = struct{}{}
	}
	stats.DonorCount = len(donors)
	stats.AvgDonation = stats.TotalDonations.DivBy(stats.DonorCount)
	return stats
}
