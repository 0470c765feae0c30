package models

import (
	"fmt"
	"testing"
)

func TestItemNoRoundTrip(t *testing.T) {
	for n := 1; n <= 999999; n++ {
		padded := fmt.Sprintf("%06d", n)
		canonical := NewItemNo(padded)
		if canonical.Padded() != padded {
			t.Fatalf("round trip broke at %d: %q -> %q -> %q", n, padded, canonical, canonical.Padded())
		}
		if canonical.Int() != n {
			t.Fatalf("Int() = %d, want %d", canonical.Int(), n)
		}
	}
}

func TestNewItemNoCanonicalizes(t *testing.T) {
	cases := []struct {
		in   string
		want ItemNo
	}{
		{"000010", "10"},
		{"10", "10"},
		{" 000010 ", "10"},
		{"000000", "0"},
		{"", "0"},
		{"999999", "999999"},
	}
	for _, tc := range cases {
		if got := NewItemNo(tc.in); got != tc.want {
			t.Errorf("NewItemNo(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseEngineLineNumber(t *testing.T) {
	cases := []struct {
		in     string
		itemNo ItemNo
		seq    int
		ok     bool
	}{
		{"000010", "10", 0, true},
		{"000010.002", "10", 2, true},
		{"10.1", "10", 1, true},
		{"000010.000", "10", 0, true},
		{"", "", 0, false},
		{"abc", "", 0, false},
		{"10.xy", "", 0, false},
	}
	for _, tc := range cases {
		itemNo, seq, ok := ParseEngineLineNumber(tc.in)
		if ok != tc.ok || itemNo != tc.itemNo || seq != tc.seq {
			t.Errorf("ParseEngineLineNumber(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.in, itemNo, seq, ok, tc.itemNo, tc.seq, tc.ok)
		}
	}
}
