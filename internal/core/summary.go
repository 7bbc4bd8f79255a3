package core

import (
	"fmt"
	"time"
)

// DonorSummary holds lifetime statistics for one donor. It is derived on
// every query and never stored.
type DonorSummary struct {
	DonorID          string `json:"donorId"`
	DonorName        string `json:"donorName"`
	DonorImageURL    string `json:"donorImageUrl,omitempty"`
	TotalDonated     Amount `json:"totalDonated"`
	DonationCount    int    `json:"donationCount"`
	AverageDonation  Amount `json:"averageDonation"`
	LastDonationDate *Date  `json:"lastDonationDate"`
	IsRecurring      bool   `json:"isRecurring"`
}

// OrgDonationStats summarizes one organization.
// AvgDonation is the average per donor, not per donation.
type OrgDonationStats struct {
	OrgID          string `json:"orgId"`
	TotalDonations Amount `json:"totalDonations"`
	DonorCount     int    `json:"donorCount"`
	AvgDonation    Amount `json:"avgDonation"`
}

// MonthlyBucket is one calendar month of a time series.
type MonthlyBucket struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	MonthLabel    string     `json:"monthLabel"`
	DonationCount int        `json:"donationCount"`
	TotalAmount   Amount     `json:"totalAmount"`
}

// MonthKey identifies a calendar month. The year is part of the key so that
// windows longer than twelve months never merge two Januaries.
type MonthKey struct {
	Year  int
	Month time.Month
}

// KeyOf returns the month key a date falls in.
func KeyOf(d Date) MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// Label renders the key as "Jan 2024".
func (k MonthKey) Label() string {
	return fmt.Sprintf("%s %d", k.Month.String()[:3], k.Year)
}

// Next returns the following calendar month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// After reports whether k is a later month than o.
func (k MonthKey) After(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year > o.Year
	}
	return k.Month > o.Month
}
