package core

import (
	"fmt"
	"strings"
)

// HeaderLocation is the position and content of a located header row.
type HeaderLocation struct {
	Index int
	Row   RawRow
}

// LocateHeader returns the first row that is not entirely blank. Export
// preambles carry a varying number of title and blank lines, so the header
// is searched for rather than taken from a fixed offset.
func LocateHeader(rows []RawRow) (HeaderLocation, error) {
	for i, row := range rows {
		if !isBlankRow(row) {
			return HeaderLocation{Index: i, Row: row}, nil
		}
	}
	return HeaderLocation{Index: -1}, fmt.Errorf("%w: %d rows scanned, all blank", ErrHeaderNotFound, len(rows))
}

// SplitHeader locates the header and returns it with the body rows that
// follow it, re-indexed from zero.
func SplitHeader(rows []RawRow) (HeaderLocation, []RawRow, error) {
	loc, err := LocateHeader(rows)
	if err != nil {
		return loc, nil, err
	}
	return loc, rows[loc.Index+1:], nil
}

// Header maps column names to positions for one source.
type Header struct {
	Labels []string       // Trimmed source labels
	Names  []string       // Canonical names after remap
	index  map[string]int // Canonical name -> position
}

// NewHeader builds the column mapping for a header row. Labels are trimmed
// and renamed through remap. Blank labels become column_<n> and repeated
// names get a _<k> suffix so every canonical name is unique.
func NewHeader(row RawRow, remap map[string]string) *Header {
	h := &Header{
		Labels: make([]string, len(row)),
		Names:  make([]string, len(row)),
		index:  make(map[string]int, len(row)),
	}

	used := make(map[string]bool, len(row))
	for i, cell := range row {
		label := strings.TrimSpace(cell)
		h.Labels[i] = label

		name := label
		if mapped, ok := remap[label]; ok && mapped != "" {
			name = mapped
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		if used[name] {
			base := name
			for k := 2; used[name]; k++ {
				name = fmt.Sprintf("%s_%d", base, k)
			}
		}
		used[name] = true

		h.Names[i] = name
		h.index[name] = i
	}

	return h
}

// Len returns the number of columns.
func (h *Header) Len() int {
	return len(h.Names)
}

// Index returns the position of a canonical column name.
func (h *Header) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Row is a body row addressed through its header.
type Row struct {
	Cells  RawRow
	Header *Header
}

// Cell returns the raw cell at position i, or "" when out of range.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Value returns the trimmed cell of a named column, or "" when the column
// does not exist.
func (r Row) Value(name string) string {
	i, ok := r.Header.Index(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.Cell(i))
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	return isBlankRow(r.Cells)
}
