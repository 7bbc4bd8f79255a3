package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0.00", true},
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,000.50", "", false},
		{"NaN", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountFromFloat(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	for _, v := range []float64{-1, nan} {
		if _, err := AmountFromFloat(v); err == nil {
			t.Fatalf("%v expected error", v)
		}
	}
	a, err := AmountFromFloat(12.5)
	if err != nil || a.String() != "12.50" {
		t.Fatalf("expected 12.50, got %s (err=%v)", a, err)
	}
}

func TestAmountDivBy(t *testing.T) {
	if got := NewAmount(180).DivBy(2); !got.Equal(NewAmount(90)) {
		t.Fatalf("180/2 = %s", got)
	}
	if got := NewAmount(100).DivBy(3); got.String() != "33.33" {
		t.Fatalf("100/3 = %s", got)
	}
	if got := NewAmount(100).DivBy(0); !got.Equal(ZeroAmount) {
		t.Fatalf("division by zero should yield 0, got %s", got)
	}
}

func TestAmountMarshalJSON(t *testing.T) {
	b, err := AmountFromCents(1234).MarshalJSON()
	if err != nil || string(b) != "12.34" {
		t.Fatalf("unexpected json %s (err=%v)", b, err)
	}
	var zero Amount
	b, _ = zero.MarshalJSON()
	if string(b) != "0.00" {
		t.Fatalf("zero amount json = %s", b)
	}
}
