package core

// reader.go turns the bytes of a delimited export into RawRows.
//
// Exports come from a Windows reporting tool and are rarely UTF-8. Decoding
// tries each configured encoding in order; a candidate fails when any byte has
// no mapping in it, and the next candidate starts again from the first byte.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncodings is the fallback order used when a source names none.
var DefaultEncodings = []string{"windows-1250", "iso-8859-2"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder converts one legacy encoding to UTF-8, failing on unmapped input.
type Decoder struct {
	Name string
	enc  encoding.Encoding
	utf8 bool
}

// LookupDecoder resolves an encoding label such as "windows-1250", "cp1250"
// or "ISO-8859-2".
func LookupDecoder(label string) (Decoder, error) {
	label = strings.TrimSpace(label)
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(label)
		if err != nil {
			return Decoder{}, fmt.Errorf("unknown encoding %q", label)
		}
	}

	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		name = label
	}

	return Decoder{
		Name: name,
		enc:  enc,
		utf8: strings.EqualFold(name, "UTF-8"),
	}, nil
}

// LookupDecoders resolves labels in order. An empty list yields
// DefaultEncodings.
func LookupDecoders(labels []string) ([]Decoder, error) {
	if len(labels) == 0 {
		labels = DefaultEncodings
	}
	decoders := make([]Decoder, 0, len(labels))
	for _, l := range labels {
		d, err := LookupDecoder(l)
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, d)
	}
	return decoders, nil
}

// Decode returns data as UTF-8.
func (d Decoder) Decode(data []byte) ([]byte, error) {
	if d.utf8 {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s: invalid byte sequence", d.Name)
		}
		return data, nil
	}

	if cm, ok := d.enc.(*charmap.Charmap); ok {
		for i, b := range data {
			if cm.DecodeByte(b) == utf8.RuneError {
				return nil, fmt.Errorf("%s: byte 0x%02X at offset %d has no mapping", d.Name, b, i)
			}
		}
	}

	out, _, err := transform.Bytes(d.enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("%s: input has no mapping", d.Name)
	}
	return out, nil
}

// DecodeFallback tries each decoder in order and returns the first success
// with the name of the encoding used. When every candidate fails the last
// failure is returned wrapped in ErrUnparsableSource.
func DecodeFallback(data []byte, decoders []Decoder) ([]byte, string, error) {
	var lastErr error
	for _, d := range decoders {
		out, err := d.Decode(data)
		if err == nil {
			return out, d.Name, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no encodings configured")
	}
	return nil, "", fmt.Errorf("%w: %v", ErrUnparsableSource, lastErr)
}

// ReadOptions configures ReadDelimited.
type ReadOptions struct {
	Delimiter rune
	// Width is the expected field count. Zero takes the width of the first
	// record.
	Width        int
	SkipBadLines bool
}

// ReadDelimited parses decoded text into rows padded to the expected width.
// Records wider than the width are skipped when SkipBadLines is set and
// abort the read otherwise. It returns the number of skipped records.
func ReadDelimited(text []byte, opts ReadOptions) ([]RawRow, int, error) {
	r := csv.NewReader(bytes.NewReader(text))
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	width := opts.Width
	skipped := 0
	var rows []RawRow

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if opts.SkipBadLines && errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("%w: %v", ErrUnparsableSource, err)
		}

		if width == 0 {
			width = len(rec)
		}
		if len(rec) > width {
			if opts.SkipBadLines {
				skipped++
				continue
			}
			line, _ := r.FieldPos(0)
			return nil, skipped, fmt.Errorf("%w: line %d: expected %d fields, saw %d",
				ErrUnparsableSource, line, width, len(rec))
		}

		row := make(RawRow, width)
		copy(row, rec)
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// isBlankRow reports whether every cell is empty after trimming.
func isBlankRow(row RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
