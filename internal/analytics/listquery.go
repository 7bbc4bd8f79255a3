package analytics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"donorboard/internal/core"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseDirection accepts "asc" and "desc" (case-insensitive); anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Descending
	}
	return Ascending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKey orders values of T by one field using the natural ordering of the
// field's type.
type SortKey[T any] struct {
	Name    string
	compare func(a, b T, coll *collate.Collator) int
}

// AmountKey orders by a decimal amount.
func AmountKey[T any](name string, get func(T) core.Amount) SortKey[T] {
	return SortKey[T]{Name: name, compare: func(a, b T, _ *collate.Collator) int {
		return get(a).Cmp(get(b))
	}}
}

// IntKey orders by an integer field.
func IntKey[T any](name string, get func(T) int) SortKey[T] {
	return SortKey[T]{Name: name, compare: func(a, b T, _ *collate.Collator) int {
		return cmp.Compare(get(a), get(b))
	}}
}

// DateKey orders by a date; the zero date sorts before every real date.
func DateKey[T any](name string, get func(T) core.Date) SortKey[T] {
	return SortKey[T]{Name: name, compare: func(a, b T, _ *collate.Collator) int {
		return get(a).Compare(get(b).Time)
	}}
}

// StringKey orders by a string using locale collation.
func StringKey[T any](name string, get func(T) string) SortKey[T] {
	return SortKey[T]{Name: name, compare: func(a, b T, coll *collate.Collator) int {
		return coll.CompareString(get(a), get(b))
	}}
}

// ListQuery describes a free-text filter and an optional sort.
type ListQuery[T any] struct {
	// Text is matched case-insensitively as a substring of any Fields value.
	Text string
	// Fields selects the text fields Text is matched against.
	Fields []func(T) string
	// Sort is the key to order by; nil keeps input order.
	Sort      *SortKey[T]
	Direction Direction
	// Language drives string collation; the zero tag means English.
	Language language.Tag
}

// FilterAndSort returns a new list with the elements of list that match q,
// ordered by q.Sort. The input is never modified. Sorting is stable, so equal
// keys keep their relative order and re-sorting a sorted list is a no-op.
func FilterAndSort[T any](list []T, q ListQuery[T]) []T {
	out := filter(list, q.Text, q.Fields)
	if q.Sort == nil || q.Sort.compare == nil {
		return out
	}

	tag := q.Language
	if tag == language.Und {
		tag = language.English
	}
	coll := collate.New(tag)

	sign := 1
	if q.Direction == Descending {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return sign * q.Sort.compare(a, b, coll)
	})
	return out
}

func filter[T any](list []T, text string, fields []func(T) string) []T {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" || len(fields) == 0 {
		return slices.Clone(list)
	}
	out := make([]T, 0, len(list))
	for _, v := range list {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(v)), needle) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// KeySet maps public sort key names to keys.
type KeySet[T any] map[string]SortKey[T]

// Lookup returns the named key, or ErrUnknownSortKey.
func (ks KeySet[T]) Lookup(name string) (*SortKey[T], error) {
	if name == "" {
		return nil, nil
	}
	k, ok := ks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, name)
	}
	return &k, nil
}

func newKeySet[T any](keys ...SortKey[T]) KeySet[T] {
	ks := make(KeySet[T], len(keys))
	for _, k := range keys {
		ks[k.Name] = k
	}
	return ks
}

// DonorSummaryKeys are the sort keys offered for donor lists.
var DonorSummaryKeys = newKeySet(
	StringKey("name", func(s core.DonorSummary) string { return s.DonorName }),
	AmountKey("total", func(s core.DonorSummary) core.Amount { return s.TotalDonated }),
	AmountKey("average", func(s core.DonorSummary) core.Amount { return s.AverageDonation }),
	IntKey("count", func(s core.DonorSummary) int { return s.DonationCount }),
	DateKey("last", func(s core.DonorSummary) core.Date {
		if s.LastDonationDate == nil {
			return core.Date{}
		}
		return *s.LastDonationDate
	}),
)

// DonorSummaryText are the fields donor lists are searched by.
var DonorSummaryText = []func(core.DonorSummary) string{
	func(s core.DonorSummary) string { return s.DonorName },
	func(s core.DonorSummary) string { return s.DonorID },
}

// DonationKeys are the sort keys offered for donation lists.
var DonationKeys = newKeySet(
	AmountKey("amount", func(d core.EnrichedDonation) core.Amount { return d.Amount }),
	DateKey("date", func(d core.EnrichedDonation) core.Date { return d.Date }),
	StringKey("name", func(d core.EnrichedDonation) string { return d.DonorName }),
	StringKey("method", func(d core.EnrichedDonation) string { return d.Method }),
	StringKey("status", func(d core.EnrichedDonation) string { return string(d.Status) }),
)

// DonationText are the fields donation lists are searched by.
var DonationText = []func(core.EnrichedDonation) string{
	func(d core.EnrichedDonation) string { return d.DonorName },
	func(d core.EnrichedDonation) string { return d.Method },
	func(d core.EnrichedDonation) string { return string(d.Status) },
	func(d core.EnrichedDonation) string {
		if d.DonorMessage == nil {
			return ""
		}
		return *d.DonorMessage
	},
}
