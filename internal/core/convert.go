package core

// convert.go coerces trimmed cell strings to the types stored in the
// destination.
//
// Per-row problems never fail a run: an unparseable number becomes 0.0 and an
// empty string becomes an absent (invalid) pgtype.Text, which the store writes
// as NULL.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates a number after separator cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ParseNumber parses a finite number written with either decimal separator.
// "1,5" and "1.5" are both 1.5; when both separators occur the last one is
// the decimal separator ("1.234,5", "1,234.5"). Spaces are taken as digit
// grouping and accounting parentheses as a negative sign.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	s = normalizeSeparators(s)

	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator
// and no grouping separators remain.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// ToFloat coerces a numeric cell, yielding 0.0 for absent or unparseable
// input.
func ToFloat(s string) float64 {
	v, ok := ParseNumber(s)
	if !ok {
		return 0
	}
	return v
}

// ToQuantity coerces a quantity cell. The result is always finite and
// non-negative: absent, unparseable and negative input yield 0.0.
func ToQuantity(s string) float64 {
	v, ok := ParseNumber(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// PadIdentifier converts a numeric identifier to an integer and zero-pads it
// to width digits: "7" -> "000007" for width 6. Fractions are truncated.
// Absent, non-numeric and out-of-range input returns invalid.
func PadIdentifier(s string, width int) pgtype.Text {
	v, ok := ParseNumber(s)
	if !ok || math.Abs(v) >= math.MaxInt64 {
		return pgtype.Text{Valid: false}
	}
	n := int64(v)
	if width <= 0 {
		return pgtype.Text{String: strconv.FormatInt(n, 10), Valid: true}
	}
	return pgtype.Text{String: fmt.Sprintf("%0*d", width, n), Valid: true}
}
