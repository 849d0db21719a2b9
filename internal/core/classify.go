package core

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// RowKind tags a classified row.
type RowKind int

const (
	KindHeader RowKind = iota
	KindGroupMarker
	KindDiscard
	KindData
)

func (k RowKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindGroupMarker:
		return "group_marker"
	case KindDiscard:
		return "discard"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("RowKind(%d)", int(k))
	}
}

// Discard reasons reported in RunStats.
const (
	ReasonBlank          = "blank"
	ReasonRepeatedHeader = "repeated_header"
	ReasonSentinel       = "sentinel"
	ReasonBlankKey       = "blank_key"
	ReasonQuantity       = "quantity"
	ReasonNotParameter   = "not_parameter"
)

// Classification is the verdict for one body row.
type Classification struct {
	Kind    RowKind
	GroupID pgtype.Text // Set for KindGroupMarker
	Reason  string      // Set for KindDiscard
}

// Data, Discard and Marker build classifications.
func Data() Classification { return Classification{Kind: KindData} }

func Discard(reason string) Classification {
	return Classification{Kind: KindDiscard, Reason: reason}
}

func Marker(groupID string) Classification {
	return Classification{Kind: KindGroupMarker, GroupID: ToPgText(groupID)}
}

// Classifier decides what a body row is. Implementations are pure.
type Classifier interface {
	Classify(row Row) Classification
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(row Row) Classification

// Classify implements Classifier.
func (f ClassifierFunc) Classify(row Row) Classification { return f(row) }

type sentinelMatcher struct {
	col      int
	equals   []string
	contains []string
}

func (m sentinelMatcher) match(row Row) bool {
	v := strings.TrimSpace(row.Cell(m.col))
	for _, s := range m.equals {
		if v == s {
			return true
		}
	}
	for _, s := range m.contains {
		if s != "" && strings.Contains(v, s) {
			return true
		}
	}
	return false
}

func compileRules(rules []SentinelRule, h *Header, key int) ([]sentinelMatcher, error) {
	out := make([]sentinelMatcher, 0, len(rules))
	for _, r := range rules {
		col := key
		if r.Column != "" {
			i, ok := h.Index(r.Column)
			if !ok {
				return nil, fmt.Errorf("%w: discard rule column %q", ErrMissingColumn, r.Column)
			}
			col = i
		}
		out = append(out, sentinelMatcher{col: col, equals: r.Equals, contains: r.Contains})
	}
	return out, nil
}

func matchAny(ms []sentinelMatcher, row Row) bool {
	for _, m := range ms {
		if m.match(row) {
			return true
		}
	}
	return false
}

// keyIndex resolves the key column, defaulting to the first column.
func keyIndex(spec SourceSpec, h *Header) (int, error) {
	if spec.KeyColumn == "" {
		return 0, nil
	}
	i, ok := h.Index(spec.KeyColumn)
	if !ok {
		return 0, fmt.Errorf("%w: key column %q", ErrMissingColumn, spec.KeyColumn)
	}
	return i, nil
}

func columnIndex(h *Header, name, role string) (int, error) {
	i, ok := h.Index(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s column %q", ErrMissingColumn, role, name)
	}
	return i, nil
}

// FlatClassifier drops blank rows, repeated headers and sentinel rows.
type FlatClassifier struct {
	key      int
	keyLabel string
	rules    []sentinelMatcher
}

// NewFlatClassifier builds the flat-layout classifier for a header.
func NewFlatClassifier(spec SourceSpec, h *Header) (*FlatClassifier, error) {
	key, err := keyIndex(spec, h)
	if err != nil {
		return nil, err
	}
	rules, err := compileRules(spec.Discard, h, key)
	if err != nil {
		return nil, err
	}
	label := ""
	if key < len(h.Labels) {
		label = h.Labels[key]
	}
	return &FlatClassifier{key: key, keyLabel: label, rules: rules}, nil
}

// Classify implements Classifier.
func (c *FlatClassifier) Classify(row Row) Classification {
	if row.Blank() {
		return Discard(ReasonBlank)
	}
	k := strings.TrimSpace(row.Cell(c.key))
	if c.keyLabel != "" && k == c.keyLabel {
		return Discard(ReasonRepeatedHeader)
	}
	if matchAny(c.rules, row) {
		return Discard(ReasonSentinel)
	}
	return Data()
}

// GroupedClassifier recognizes group marker rows and the constituent rows
// that follow them.
type GroupedClassifier struct {
	key         int
	prefix      string
	headerLabel string
	quantity    int
	rules       []sentinelMatcher
}

// NewGroupedClassifier builds the grouped-layout classifier for a header.
// The group identifier of a marker is read from the column after the key.
func NewGroupedClassifier(spec SourceSpec, h *Header) (*GroupedClassifier, error) {
	key, err := keyIndex(spec, h)
	if err != nil {
		return nil, err
	}
	g := spec.Grouping
	qty, err := columnIndex(h, g.QuantityColumn, "quantity")
	if err != nil {
		return nil, err
	}
	rules, err := compileRules(spec.Discard, h, key)
	if err != nil {
		return nil, err
	}
	label := g.HeaderLabel
	if label == "" && key < len(h.Labels) {
		label = h.Labels[key]
	}
	return &GroupedClassifier{
		key:         key,
		prefix:      g.MarkerPrefix,
		headerLabel: label,
		quantity:    qty,
		rules:       rules,
	}, nil
}

// Classify implements Classifier.
func (c *GroupedClassifier) Classify(row Row) Classification {
	k := strings.TrimSpace(row.Cell(c.key))
	if c.prefix != "" && strings.HasPrefix(k, c.prefix) {
		return Marker(row.Cell(c.key + 1))
	}
	if k == "" {
		return Discard(ReasonBlankKey)
	}
	if k == c.headerLabel {
		return Discard(ReasonRepeatedHeader)
	}
	if matchAny(c.rules, row) {
		return Discard(ReasonSentinel)
	}
	if _, ok := ParseNumber(row.Cell(c.quantity)); !ok {
		return Discard(ReasonQuantity)
	}
	return Data()
}

// KeyValueClassifier keeps rows whose key looks like a structured parameter
// name.
type KeyValueClassifier struct {
	key   int
	sep   string
	rules []sentinelMatcher
}

// NewKeyValueClassifier builds the key-value classifier for a header.
func NewKeyValueClassifier(spec SourceSpec, h *Header) (*KeyValueClassifier, error) {
	key, err := keyIndex(spec, h)
	if err != nil {
		return nil, err
	}
	rules, err := compileRules(spec.Discard, h, key)
	if err != nil {
		return nil, err
	}
	sep := spec.ParamSeparator
	if sep == "" {
		sep = "."
	}
	return &KeyValueClassifier{key: key, sep: sep, rules: rules}, nil
}

// Classify implements Classifier.
func (c *KeyValueClassifier) Classify(row Row) Classification {
	k := strings.TrimSpace(row.Cell(c.key))
	if !strings.Contains(k, c.sep) {
		return Discard(ReasonNotParameter)
	}
	if matchAny(c.rules, row) {
		return Discard(ReasonSentinel)
	}
	return Data()
}
