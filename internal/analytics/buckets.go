package analytics

import "donorboard/internal/core"

// MaxBuckets caps how many months a single window may span.
const MaxBuckets = 240

// BucketReport is the result of a monthly aggregation, with counts of the
// donations that were left out.
type BucketReport struct {
	Buckets []core.MonthlyBucket
	// Undated counts donations whose date could not be parsed.
	Undated int
	// OutOfWindow counts dated donations outside the window.
	OutOfWindow int
	// Truncated is set when the window spans more than MaxBuckets months.
	Truncated bool
}

// ComputeMonthlyBuckets returns one bucket per calendar month spanned by
// window, oldest first, including months without donations.
func ComputeMonthlyBuckets(donations []core.DonationRecord, window core.DateWindow) []core.MonthlyBucket {
	return BucketMonths(donations, window).Buckets
}

// BucketMonths is ComputeMonthlyBuckets with skip accounting.
func BucketMonths(donations []core.DonationRecord, window core.DateWindow) BucketReport {
	var report BucketReport
	if window.Start.IsZero() || window.End.IsZero() || window.IsEmpty() {
		report.Buckets = []core.MonthlyBucket{}
		return report
	}

	buckets, index, truncated := monthSlots(window)
	report.Truncated = truncated

	for _, d := range donations {
		if !d.HasDate() {
			report.Undated++
			continue
		}
		if !window.Contains(d.Date) {
			report.OutOfWindow++
			continue
		}
		i, ok := index[core.KeyOf(d.Date)]
		if !ok {
			// Only reachable past the MaxBuckets cap.
			report.OutOfWindow++
			continue
		}
		buckets[i].DonationCount++
		buckets[i].TotalAmount = buckets[i].TotalAmount.Add(d.Amount)
	}

	report.Buckets = buckets
	return report
}

// monthSlots lays out the zero-filled buckets for window and indexes them by
// (year, month).
func monthSlots(window core.DateWindow) ([]core.MonthlyBucket, map[core.MonthKey]int, bool) {
	last := core.KeyOf(window.End)
	key := core.KeyOf(window.Start)

	buckets := make([]core.MonthlyBucket, 0, 12)
	index := make(map[core.MonthKey]int)
	for i := 0; !key.After(last); i++ {
		if i == MaxBuckets {
			return buckets, index, true
		}
		index[key] = len(buckets)
		buckets = append(buckets, core.MonthlyBucket{
			Year:        key.Year,
			Month:       key.Month,
			MonthLabel:  key.Label(),
			TotalAmount: core.ZeroAmount,
		})
		key = key.Next()
	}
	return buckets, index, false
}
