package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Normalize turns the rows of one source into a table. The first
// spec.SkipRows rows are dropped. When the source declares fixed columns they
// are the header and every row is body; otherwise the header is located in
// rows. A source with no non-blank row fails with ErrHeaderNotFound either
// way, so no table is produced.
func Normalize(spec SourceSpec, rows []RawRow) (*Table, RunStats, error) {
	def, err := Lookup(spec.Layout)
	if err != nil {
		return nil, RunStats{}, err
	}

	if spec.SkipRows > 0 {
		rows = rows[min(spec.SkipRows, len(rows)):]
	}

	var (
		headerRow RawRow
		body      []RawRow
	)
	if len(spec.Columns) > 0 {
		if _, err := LocateHeader(rows); err != nil {
			return nil, RunStats{}, err
		}
		headerRow = RawRow(spec.Columns)
		body = rows
	} else {
		var loc HeaderLocation
		loc, body, err = SplitHeader(rows)
		if err != nil {
			return nil, RunStats{}, err
		}
		headerRow = loc.Row
	}

	h := NewHeader(headerRow, spec.Remap)

	cls, err := def.NewClassifier(spec, h)
	if err != nil {
		return nil, RunStats{}, fmt.Errorf("layout %s: %w", spec.Layout, err)
	}
	emit, cols, err := def.NewEmitter(spec, h)
	if err != nil {
		return nil, RunStats{}, fmt.Errorf("layout %s: %w", spec.Layout, err)
	}

	records, stats := Reconstruct(h, body, cls, emit)

	return &Table{
		Name:    spec.Table,
		Policy:  spec.Policy,
		Columns: cols,
		Records: records,
	}, stats, nil
}

// ReadSource reads the raw rows of a source file. The returned stats carry
// the encoding used and the number of skipped bad lines.
func ReadSource(spec SourceSpec) ([]RawRow, RunStats, error) {
	var stats RunStats

	f, err := os.Open(spec.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, fmt.Errorf("%w: %s", ErrSourceNotFound, spec.Path)
		}
		return nil, stats, fmt.Errorf("open source %s: %w", spec.Path, err)
	}
	defer f.Close()

	switch spec.Format {
	case FormatSpreadsheet:
		if err := checkWorkbook(f); err != nil {
			return nil, stats, fmt.Errorf("%s: %w", spec.Path, err)
		}
		rows, err := ReadSpreadsheet(f, spec.Sheet)
		return rows, stats, err
	case FormatDelimited, "":
		return readDelimitedSource(f, spec)
	default:
		return nil, stats, fmt.Errorf("%w: unsupported format %q", ErrUnparsableSource, spec.Format)
	}
}

// checkWorkbook sniffs f and rewinds it. Workbooks are zip containers; the
// legacy binary .xls format is reported as such.
func checkWorkbook(f io.ReadSeeker) error {
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsableSource, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source: %w", err)
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	if mtype.Is("application/vnd.ms-excel") || mtype.Is("application/x-ole-storage") {
		return fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx", ErrUnparsableSource)
	}
	return fmt.Errorf("%w: not an .xlsx workbook (detected %s)", ErrUnparsableSource, mtype.String())
}

func readDelimitedSource(r io.Reader, spec SourceSpec) ([]RawRow, RunStats, error) {
	var stats RunStats

	decoders, err := LookupDecoders(spec.Encodings)
	if err != nil {
		return nil, stats, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, stats, fmt.Errorf("read source %s: %w", spec.Path, err)
	}

	text, enc, err := DecodeFallback(buf.Bytes(), decoders)
	if err != nil {
		return nil, stats, err
	}
	stats.Encoding = enc

	rows, skipped, err := ReadDelimited(text, ReadOptions{
		Delimiter:    spec.Delimiter,
		Width:        len(spec.Columns),
		SkipBadLines: spec.SkipBadLines,
	})
	stats.SkippedBad = skipped
	if err != nil {
		return nil, stats, err
	}
	return rows, stats, nil
}

// Convert reads and normalizes one source. The file is closed before
// Convert returns.
func Convert(spec SourceSpec) (*Table, RunStats, error) {
	rows, readStats, err := ReadSource(spec)
	if err != nil {
		return nil, readStats, err
	}

	table, stats, err := Normalize(spec, rows)
	stats.Encoding = readStats.Encoding
	stats.SkippedBad = readStats.SkippedBad
	if err != nil {
		return nil, stats, err
	}
	return table, stats, nil
}
