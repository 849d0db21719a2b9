package core

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Default output columns of the grouped layout.
const (
	DefaultGroupColumn    = "product_id"
	DefaultItemColumn     = "ident"
	DefaultNameColumn     = "name"
	DefaultQuantityColumn = "quantity"
)

// NewFlatEmitter returns the emitter and destination columns of a flat
// source. Columns are the Select list when set, otherwise every header
// column. Declared numeric fields coerce to float64, everything else to
// pgtype.Text. When an identifier column is configured, rows without a
// numeric identifier are dropped and the rest are zero-padded.
func NewFlatEmitter(spec SourceSpec, h *Header) (EmitFunc, []Column, error) {
	names := h.Names
	if len(spec.Select) > 0 {
		for _, n := range spec.Select {
			if _, err := columnIndex(h, n, "selected"); err != nil {
				return nil, nil, err
			}
		}
		names = spec.Select
	}

	types := make(map[string]FieldType, len(spec.Fields))
	for _, f := range spec.Fields {
		types[f.Name] = f.Type
	}

	idCol := spec.Identifier.Column
	if idCol != "" {
		if _, err := columnIndex(h, idCol, "identifier"); err != nil {
			return nil, nil, err
		}
		types[idCol] = FieldText
	}

	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: types[n]}
	}

	width := spec.Identifier.Width
	emit := func(row Row, _ pgtype.Text) (Record, bool) {
		var id pgtype.Text
		if idCol != "" {
			id = PadIdentifier(row.Value(idCol), width)
			if !id.Valid {
				return nil, false
			}
		}

		rec := make(FlatRecord, len(cols))
		for _, c := range cols {
			raw := row.Value(c.Name)
			switch {
			case c.Name == idCol:
				rec[c.Name] = id
			case c.Type == FieldNumeric:
				rec[c.Name] = ToFloat(raw)
			default:
				rec[c.Name] = ToPgText(raw)
			}
		}
		return rec, true
	}

	return emit, cols, nil
}

// NewHierarchicalEmitter returns the emitter and destination columns of a
// grouped source. The key column is the item identifier.
func NewHierarchicalEmitter(spec SourceSpec, h *Header) (EmitFunc, []Column, error) {
	key, err := keyIndex(spec, h)
	if err != nil {
		return nil, nil, err
	}
	g := spec.Grouping
	qty, err := columnIndex(h, g.QuantityColumn, "quantity")
	if err != nil {
		return nil, nil, err
	}
	name := -1
	if g.NameColumn != "" {
		if name, err = columnIndex(h, g.NameColumn, "name"); err != nil {
			return nil, nil, err
		}
	}

	out := g.Output
	cols := []Column{
		{Name: orDefault(out.Group, DefaultGroupColumn), Type: FieldText},
		{Name: orDefault(out.Item, DefaultItemColumn), Type: FieldText},
		{Name: orDefault(out.Name, DefaultNameColumn), Type: FieldText},
		{Name: orDefault(out.Quantity, DefaultQuantityColumn), Type: FieldNumeric},
	}

	emit := func(row Row, group pgtype.Text) (Record, bool) {
		rec := HierarchicalRecord{
			GroupID:  group,
			ItemID:   strings.TrimSpace(row.Cell(key)),
			Quantity: ToQuantity(row.Cell(qty)),
		}
		if name >= 0 {
			rec.Name = ToPgText(row.Cell(name))
		}
		return rec, true
	}

	return emit, cols, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
