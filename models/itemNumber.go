package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemNo is an order line number in canonical (leading-zero-stripped) form.
// The wire exchanges the same number zero-padded to 6 digits; conversion
// happens only at the gateway boundary, everything internal compares the
// canonical form.
type ItemNo string

const itemNoWidth = 6

// NewItemNo canonicalizes a raw item number from any source.
// "000010" and "10" both become "10".
func NewItemNo(raw string) ItemNo {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return ItemNo("0")
	}
	return ItemNo(s)
}

// ItemNoFromInt builds a canonical item number from an integer.
func ItemNoFromInt(n int) ItemNo {
	return ItemNo(strconv.Itoa(n))
}

func (i ItemNo) String() string {
	return string(i)
}

// Padded returns the fixed-width wire form, e.g. "10" -> "000010".
func (i ItemNo) Padded() string {
	return fmt.Sprintf("%0*s", itemNoWidth, string(i))
}

// Int returns the numeric value, 0 when not numeric.
func (i ItemNo) Int() int {
	n, err := strconv.Atoi(string(i))
	if err != nil {
		return 0
	}
	return n
}

// ParseEngineLineNumber decodes a planning-engine line number which may carry
// a split suffix ("000010.002" means the engine split line 10, sub-line 2).
// The returned ItemNo is canonical; seq is 0 for an unsplit line.
func ParseEngineLineNumber(raw string) (itemNo ItemNo, seq int, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", 0, false
	}
	base := s
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		base = s[:idx]
		suffix := strings.TrimLeft(s[idx+1:], "0")
		if suffix != "" {
			n, err := strconv.Atoi(suffix)
			if err != nil {
				return "", 0, false
			}
			seq = n
		}
	}
	if _, err := strconv.Atoi(base); err != nil {
		return "", 0, false
	}
	return NewItemNo(base), seq, true
}
