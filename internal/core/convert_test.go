package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// ToPgText Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantValid  bool
		wantString string
	}{
		{name: "simple string", input: "Vijak M6", wantValid: true, wantString: "Vijak M6"},
		{name: "surrounded whitespace trimmed", input: "  Lim 2mm  ", wantValid: true, wantString: "Lim 2mm"},
		{name: "croatian letters preserved", input: "Količina", wantValid: true, wantString: "Količina"},
		{name: "empty string", input: "", wantValid: false},
		{name: "only spaces", input: "   ", wantValid: false},
		{name: "only tabs", input: "\t\t", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPgText(tt.input)

			if result.Valid != tt.wantValid {
				t.Errorf("ToPgText(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
				return
			}
			if tt.wantValid && result.String != tt.wantString {
				t.Errorf("ToPgText(%q).String = %q, want %q", tt.input, result.String, tt.wantString)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		// Plain numbers
		{name: "integer", input: "12", want: 12, wantOK: true},
		{name: "decimal point", input: "1.5", want: 1.5, wantOK: true},
		{name: "signed", input: "-4.25", want: -4.25, wantOK: true},
		{name: "explicit plus", input: "+2", want: 2, wantOK: true},
		{name: "exponent", input: "1e3", want: 1000, wantOK: true},
		{name: "leading decimal point", input: ".5", want: 0.5, wantOK: true},
		{name: "surrounding whitespace", input: "  3  ", want: 3, wantOK: true},

		// Separators
		{name: "decimal comma", input: "1,5", want: 1.5, wantOK: true},
		{name: "european grouping", input: "1.234,5", want: 1234.5, wantOK: true},
		{name: "english grouping", input: "1,234.5", want: 1234.5, wantOK: true},
		{name: "repeated dot grouping", input: "1.234.567", want: 1234567, wantOK: true},
		{name: "repeated comma grouping", input: "1,234,567", want: 1234567, wantOK: true},
		{name: "space grouping", input: "1 234,5", want: 1234.5, wantOK: true},
		{name: "non-breaking space grouping", input: "1 234", want: 1234, wantOK: true},

		// Accounting negatives
		{name: "parentheses", input: "(12,5)", want: -12.5, wantOK: true},

		// Rejected
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "trailing text", input: "12kg", wantOK: false},
		{name: "nan", input: "NaN", wantOK: false},
		{name: "infinity", input: "Inf", wantOK: false},
		{name: "overflow", input: "1e400", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	if got := ToFloat("2,75"); got != 2.75 {
		t.Errorf("ToFloat(\"2,75\") = %v, want 2.75", got)
	}
	if got := ToFloat("n/a"); got != 0 {
		t.Errorf("ToFloat(\"n/a\") = %v, want 0", got)
	}
	if got := ToFloat("-3"); got != -3 {
		t.Errorf("ToFloat(\"-3\") = %v, want -3", got)
	}
}

// ----------------------------------------------------------------------------
// ToQuantity Tests
// ----------------------------------------------------------------------------

func TestToQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{input: "0", want: 0},
		{input: "2.0", want: 2},
		{input: "2,5", want: 2.5},
		{input: "", want: 0},
		{input: "   ", want: 0},
		{input: "abc", want: 0},
		{input: "-1", want: 0},
		{input: "NaN", want: 0},
		{input: "1e400", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToQuantity(tt.input)
			if got != tt.want {
				t.Errorf("ToQuantity(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got < 0 || math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("ToQuantity(%q) = %v, want finite and non-negative", tt.input, got)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// PadIdentifier Tests
// ----------------------------------------------------------------------------

func TestPadIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		width     int
		wantValid bool
		want      string
	}{
		{name: "short id padded", input: "7", width: 6, wantValid: true, want: "000007"},
		{name: "exact width unchanged", input: "123456", width: 6, wantValid: true, want: "123456"},
		{name: "wider than width kept", input: "1234567", width: 6, wantValid: true, want: "1234567"},
		{name: "fraction truncated", input: "42.0", width: 6, wantValid: true, want: "000042"},
		{name: "spreadsheet float", input: "7.9", width: 6, wantValid: true, want: "000007"},
		{name: "zero width", input: "7", width: 0, wantValid: true, want: "7"},
		{name: "empty is absent", input: "", width: 6, wantValid: false},
		{name: "text is absent", input: "ABC", width: 6, wantValid: false},
		{name: "too large is absent", input: "1e20", width: 6, wantValid: false},
		{name: "too small is absent", input: "-1e19", width: 6, wantValid: false},
		{name: "large in range", input: "9007199254740992", width: 6, wantValid: true, want: "9007199254740992"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadIdentifier(tt.input, tt.width)
			if got.Valid != tt.wantValid {
				t.Fatalf("PadIdentifier(%q, %d).Valid = %v, want %v", tt.input, tt.width, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.String != tt.want {
				t.Errorf("PadIdentifier(%q, %d) = %q, want %q", tt.input, tt.width, got.String, tt.want)
			}
		})
	}
}
