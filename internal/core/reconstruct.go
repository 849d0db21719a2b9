package core

import "github.com/jackc/pgx/v5/pgtype"

// GroupState is the group identifier in effect at a point of the row stream.
// The zero value (invalid Current) means no marker has been seen yet.
type GroupState struct {
	Current pgtype.Text
}

// Step returns the state after a classified row. Only markers change it.
func (s GroupState) Step(c Classification) GroupState {
	if c.Kind == KindGroupMarker {
		return GroupState{Current: c.GroupID}
	}
	return s
}

// EmitFunc builds the record of a Data row under its group. Returning false
// drops the row.
type EmitFunc func(row Row, group pgtype.Text) (Record, bool)

// Reconstruct folds the body rows in source order. Markers replace the group
// state and emit nothing; each Data row is emitted with the state current at
// that point, which is null before the first marker. Output order equals
// input order.
func Reconstruct(h *Header, body []RawRow, cls Classifier, emit EmitFunc) ([]Record, RunStats) {
	stats := RunStats{
		RowsRead:  len(body),
		Discarded: make(map[string]int),
	}
	records := make([]Record, 0, len(body))

	var state GroupState
	for _, cells := range body {
		row := Row{Cells: cells, Header: h}
		c := cls.Classify(row)
		state = state.Step(c)

		switch c.Kind {
		case KindGroupMarker:
			stats.Markers++
		case KindDiscard:
			stats.Discarded[c.Reason]++
		case KindData:
			rec, ok := emit(row, state.Current)
			if !ok {
				stats.Dropped++
				continue
			}
			records = append(records, rec)
			stats.Emitted++
		}
	}

	return records, stats
}
