// Package core provides the normalization logic for manufacturing exports.
// This package has no transport or storage dependencies beyond the Store
// interface and can be driven by any frontend.
package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// FieldType represents the storage type of a normalized column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// String returns the configuration name of the type.
func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// ParseFieldType maps a configuration name to a FieldType.
// Unknown names report false.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "", "text":
		return FieldText, true
	case "numeric":
		return FieldNumeric, true
	default:
		return FieldText, false
	}
}

// Format selects how a source file is read.
type Format string

const (
	FormatDelimited   Format = "csv"
	FormatSpreadsheet Format = "xlsx"
)

// WritePolicy selects how a table reaches the destination.
type WritePolicy string

const (
	// PolicyReplace discards the destination table and recreates it.
	PolicyReplace WritePolicy = "replace"
	// PolicyAppend adds rows to the destination table, creating it with a
	// surrogate id column when missing.
	PolicyAppend WritePolicy = "append"
)

// RawRow is one positional row as read from a source. An empty string is a
// null cell.
type RawRow []string

// FieldSpec declares the type of one flat-layout column.
type FieldSpec struct {
	Name string    // Canonical column name (after remap)
	Type FieldType // Storage type
}

// SentinelRule discards a row when the trimmed cell of Column equals one of
// Equals or contains one of Contains. An empty Column means the key column.
type SentinelRule struct {
	Column   string
	Equals   []string
	Contains []string
}

// IdentifierSpec coerces a column to a zero-padded identifier. Rows whose
// identifier is absent are dropped.
type IdentifierSpec struct {
	Column string
	Width  int
}

// GroupOutput names the destination columns of a hierarchical record.
type GroupOutput struct {
	Group    string
	Item     string
	Name     string
	Quantity string
}

// GroupingSpec configures the grouped layout.
type GroupingSpec struct {
	MarkerPrefix   string // Key prefix that starts a new group
	HeaderLabel    string // Key value of a repeated header row
	NameColumn     string
	QuantityColumn string
	Output         GroupOutput
}

// SourceSpec is everything needed to convert one export into a table.
type SourceSpec struct {
	Name        string
	Path        string
	Format      Format
	Sheet       string // Spreadsheet sheet; first sheet when empty
	Layout      string // Registered layout key
	Table       string
	Destination string // Store destination; store default when empty
	Policy      WritePolicy

	Delimiter    rune
	Encodings    []string
	SkipBadLines bool
	// SkipRows drops a fixed preamble before the header is searched for.
	SkipRows int

	// Columns, when set, is the header; no header row is searched for.
	Columns []string
	// Remap renames source labels to canonical names.
	Remap map[string]string
	// Select projects flat records onto these canonical names.
	Select []string

	KeyColumn      string // Canonical key column; first column when empty
	Discard        []SentinelRule
	Fields         []FieldSpec
	Identifier     IdentifierSpec
	Grouping       GroupingSpec
	ParamSeparator string
}

// Column is one destination column of a normalized table.
type Column struct {
	Name string
	Type FieldType
}

// Record is one normalized output unit.
type Record interface {
	// Values returns the record's values in the order of cols.
	Values(cols []Column) []any
}

// FlatRecord maps canonical column names to typed values
// (pgtype.Text or float64).
type FlatRecord map[string]any

// Values implements Record. Missing columns are null text.
func (r FlatRecord) Values(cols []Column) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		v, ok := r[c.Name]
		if !ok {
			v = pgtype.Text{}
		}
		out[i] = v
	}
	return out
}

// HierarchicalRecord is a constituent item attached to its group.
type HierarchicalRecord struct {
	GroupID  pgtype.Text
	ItemID   string
	Name     pgtype.Text
	Quantity float64
}

// Values implements Record. The columns are group, item, name, quantity.
func (r HierarchicalRecord) Values(_ []Column) []any {
	return []any{r.GroupID, r.ItemID, r.Name, r.Quantity}
}

// Table is the normalized result of one source.
type Table struct {
	Name    string
	Policy  WritePolicy
	Columns []Column
	Records []Record
}

// Rows returns every record as a positional value slice.
func (t *Table) Rows() [][]any {
	rows := make([][]any, len(t.Records))
	for i, r := range t.Records {
		rows[i] = r.Values(t.Columns)
	}
	return rows
}

// ColumnNames returns the destination column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Store persists normalized tables.
type Store interface {
	// Write stores the table with its policy and returns the rows written.
	Write(ctx context.Context, table *Table) (int64, error)
	Close() error
}

// StoreOpener acquires a Store for a destination. An empty destination
// selects the opener's default.
type StoreOpener interface {
	Open(ctx context.Context, destination string) (Store, error)
}

// RunStatus is the terminal state of a conversion run.
type RunStatus string

const (
	StatusSucceeded        RunStatus = "succeeded"
	StatusSourceNotFound   RunStatus = "source_not_found"
	StatusUnparsableSource RunStatus = "unparsable_source"
	StatusHeaderNotFound   RunStatus = "header_not_found"
	StatusFailed           RunStatus = "failed"
)

// RunStats counts what happened to the rows of one source.
type RunStats struct {
	RowsRead   int            `json:"rowsRead"`
	Emitted    int            `json:"emitted"`
	Markers    int            `json:"markers"`
	Dropped    int            `json:"dropped"` // Data rows dropped at emission
	Discarded  map[string]int `json:"discarded,omitempty"`
	SkippedBad int            `json:"skippedBadLines"`
	Encoding   string         `json:"encoding,omitempty"`
}

// Outcome is the terminal result of a conversion run.
type Outcome struct {
	RunID    string        `json:"runId"`
	Trigger  Trigger       `json:"trigger,omitempty"`
	Source   string        `json:"source"`
	Table    string        `json:"table"`
	Status   RunStatus     `json:"status"`
	Written  int64         `json:"written"`
	Stats    RunStats      `json:"stats"`
	Code     string        `json:"code,omitempty"`
	Message  string        `json:"message"`
	Action   string        `json:"action,omitempty"`
	Error    string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}
