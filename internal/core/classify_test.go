package core

import "testing"

func timelineSpec() SourceSpec {
	return SourceSpec{
		Name:   "timeline",
		Layout: "flat",
		Discard: []SentinelRule{
			{Equals: []string{"Strana", "Rok izr."}},
			{Contains: []string{"/"}},
		},
	}
}

func materialsSpec() SourceSpec {
	return SourceSpec{
		Name:   "materials",
		Layout: "grouped",
		Discard: []SentinelRule{
			{Column: "Naziv", Equals: []string{"UKUPNO proizvod RN"}},
		},
		Grouping: GroupingSpec{
			MarkerPrefix:   "Proizvod RN:",
			HeaderLabel:    "Ident",
			NameColumn:     "Naziv",
			QuantityColumn: "Količina",
		},
	}
}

func classifyAll(t *testing.T, cls Classifier, h *Header, rows []RawRow) []Classification {
	t.Helper()
	out := make([]Classification, len(rows))
	for i, r := range rows {
		out[i] = cls.Classify(Row{Cells: r, Header: h})
	}
	return out
}

func TestFlatClassifier(t *testing.T) {
	h := NewHeader(RawRow{"RN", "Kol"}, nil)
	cls, err := NewFlatClassifier(timelineSpec(), h)
	if err != nil {
		t.Fatalf("NewFlatClassifier error: %v", err)
	}

	tests := []struct {
		row        RawRow
		wantKind   RowKind
		wantReason string
	}{
		{row: RawRow{"Strana", "1"}, wantKind: KindDiscard, wantReason: ReasonSentinel},
		{row: RawRow{"A1", "10"}, wantKind: KindData},
		{row: RawRow{"Rok izr.", "x"}, wantKind: KindDiscard, wantReason: ReasonSentinel},
		{row: RawRow{"A2/B", "5"}, wantKind: KindDiscard, wantReason: ReasonSentinel},
		{row: RawRow{"A3", "7"}, wantKind: KindData},
		{row: RawRow{"", " "}, wantKind: KindDiscard, wantReason: ReasonBlank},
		{row: RawRow{"RN", "Kol"}, wantKind: KindDiscard, wantReason: ReasonRepeatedHeader},
		{row: RawRow{" strana ", "1"}, wantKind: KindData},
	}

	for _, tt := range tests {
		got := cls.Classify(Row{Cells: tt.row, Header: h})
		if got.Kind != tt.wantKind || got.Reason != tt.wantReason {
			t.Errorf("Classify(%q) = %v/%q, want %v/%q", tt.row, got.Kind, got.Reason, tt.wantKind, tt.wantReason)
		}
	}
}

func TestGroupedClassifier(t *testing.T) {
	h := NewHeader(RawRow{"Ident", "Naziv", "Količina"}, nil)
	cls, err := NewGroupedClassifier(materialsSpec(), h)
	if err != nil {
		t.Fatalf("NewGroupedClassifier error: %v", err)
	}

	tests := []struct {
		name       string
		row        RawRow
		wantKind   RowKind
		wantGroup  string
		wantReason string
	}{
		{name: "marker", row: RawRow{"Proizvod RN:", "P100", ""}, wantKind: KindGroupMarker, wantGroup: "P100"},
		{name: "marker with suffix text", row: RawRow{"Proizvod RN: 2024", " P7 ", ""}, wantKind: KindGroupMarker, wantGroup: "P7"},
		{name: "item", row: RawRow{"I1", "Bolt", "3"}, wantKind: KindData},
		{name: "decimal comma quantity", row: RawRow{"I2", "Nut", "2,5"}, wantKind: KindData},
		{name: "repeated header", row: RawRow{"Ident", "Naziv", "Količina"}, wantKind: KindDiscard, wantReason: ReasonRepeatedHeader},
		{name: "blank key", row: RawRow{"", "Bolt", "3"}, wantKind: KindDiscard, wantReason: ReasonBlankKey},
		{name: "summary row", row: RawRow{"x", "UKUPNO proizvod RN", "9"}, wantKind: KindDiscard, wantReason: ReasonSentinel},
		{name: "blank quantity", row: RawRow{"I3", "Washer", ""}, wantKind: KindDiscard, wantReason: ReasonQuantity},
		{name: "text quantity", row: RawRow{"I3", "Washer", "kom"}, wantKind: KindDiscard, wantReason: ReasonQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cls.Classify(Row{Cells: tt.row, Header: h})
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantKind == KindGroupMarker && (!got.GroupID.Valid || got.GroupID.String != tt.wantGroup) {
				t.Errorf("GroupID = %+v, want %q", got.GroupID, tt.wantGroup)
			}
		})
	}
}

func TestGroupedClassifier_MissingQuantityColumn(t *testing.T) {
	h := NewHeader(RawRow{"Ident", "Naziv"}, nil)
	if _, err := NewGroupedClassifier(materialsSpec(), h); err == nil {
		t.Error("NewGroupedClassifier should fail without the quantity column")
	}
}

func TestKeyValueClassifier(t *testing.T) {
	spec := SourceSpec{Layout: "keyvalue", Columns: []string{"Parametar", "Vrijednost"}}
	h := NewHeader(RawRow(spec.Columns), nil)
	cls, err := NewKeyValueClassifier(spec, h)
	if err != nil {
		t.Fatalf("NewKeyValueClassifier error: %v", err)
	}

	got := classifyAll(t, cls, h, []RawRow{
		{"Axis.X.Speed", "100"},
		{"[Section]", ""},
		{"", ""},
		{"Spindle.Max", "24000"},
	})

	want := []RowKind{KindData, KindDiscard, KindDiscard, KindData}
	for i := range want {
		if got[i].Kind != want[i] {
			t.Errorf("row %d Kind = %v, want %v", i, got[i].Kind, want[i])
		}
	}
	if got[1].Reason != ReasonNotParameter {
		t.Errorf("row 1 Reason = %q, want %q", got[1].Reason, ReasonNotParameter)
	}
}

func TestCompileRules_UnknownColumn(t *testing.T) {
	spec := timelineSpec()
	spec.Discard = append(spec.Discard, SentinelRule{Column: "Nope", Equals: []string{"x"}})
	if _, err := NewFlatClassifier(spec, NewHeader(RawRow{"RN"}, nil)); err == nil {
		t.Error("NewFlatClassifier should reject a rule on an unknown column")
	}
}

func TestRowKind_String(t *testing.T) {
	if got := KindGroupMarker.String(); got != "group_marker" {
		t.Errorf("String() = %q, want group_marker", got)
	}
	if got := RowKind(9).String(); got != "RowKind(9)" {
		t.Errorf("String() = %q, want RowKind(9)", got)
	}
}
