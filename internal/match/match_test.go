package match

import (
	"errors"
	"testing"

	"github.com/maruel/taxref/internal/darwincsv"
	"github.com/maruel/taxref/internal/name"
	"github.com/maruel/taxref/internal/rowindex"
)

func ingest(t *testing.T, in *name.Interner, headers []string, rows ...[]string) *rowindex.RowIndex {
	t.Helper()
	tbl, err := darwincsv.Ingest(headers, rows, &darwincsv.Options{Interner: in})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func fixture(t *testing.T) (from, against *rowindex.RowIndex, in *name.Interner) {
	t.Helper()
	in = name.NewInterner()
	against = ingest(t, in, []string{"scientificName", "family", "genus"},
		[]string{"Panthera leo", "Felidae", "Panthera"},
		[]string{"Panthera tigris", "Felidae", "Panthera"},
		[]string{"Canis lupus", "Canidae", "Canis"},
		[]string{"Canis lupus", "", "Canis"},
		[]string{"Ursus", "Ursidae", "Ursus"},
	)
	from = ingest(t, in, []string{"name", "notes"},
		[]string{"Panthera leo", "a"},
		[]string{"panthera LEO", "b"},
		[]string{"Panthera onca", "c"},
		[]string{"Lynx lynx", "d"},
		[]string{"", "e"},
		[]string{"Canis lupus", "f"},
		[]string{"Ursus arctos", "g"},
	)
	return from, against, in
}

func TestScoreName(t *testing.T) {
	_, against, in := fixture(t)
	tests := []struct {
		name string
		want Score
	}{
		{"Panthera leo", FullMatch},
		{"PANTHERA LEO Linnaeus", NoMatch},
		{"Panthera onca", GenusMatch},
		{"Ursus arctos", GenusMatch},
		{"Lynx lynx", NoMatch},
		{"Bacteria", NoMatch},
		{"", NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreName(against, in.Of(tt.name)); got != tt.want {
				t.Errorf("ScoreName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestGenusFallbackIgnoresMonomials(t *testing.T) {
	in := name.NewInterner()
	// A blank name in the reference must not make monomials genus matches.
	against := ingest(t, in, []string{"name"}, []string{""}, []string{"Felis catus"})
	if got := ScoreName(against, in.Of("Bacteria")); got != NoMatch {
		t.Errorf("ScoreName(Bacteria) = %v, want none", got)
	}
}

func TestRowIndexMatch(t *testing.T) {
	t.Run("GetColumnMatch", func(t *testing.T) {
		from, against, in := fixture(t)
		m := New(from, against)
		cm, err := m.GetColumnMatch("NAME")
		if err != nil {
			t.Fatal(err)
		}
		if cm.Column() != "name" {
			t.Errorf("Column() = %q, want name", cm.Column())
		}
		if cm.Len() != 5 {
			t.Errorf("Len() = %d, want 5", cm.Len())
		}
		want := map[string]Score{
			"Panthera leo":  FullMatch,
			"Panthera onca": GenusMatch,
			"Lynx lynx":     NoMatch,
			"Canis lupus":   FullMatch,
			"Ursus arctos":  GenusMatch,
		}
		for n, s := range cm.All() {
			if want[n.String()] != s {
				t.Errorf("score of %q = %v, want %v", n, s, want[n.String()])
			}
		}
		if s, ok := cm.ScoreName(in.Of("panthera leo")); !ok || s != FullMatch {
			t.Errorf("ScoreName(panthera leo) = %v, %v", s, ok)
		}
		if _, ok := cm.ScoreName(in.Of("Felis catus")); ok {
			t.Error("ScoreName(Felis catus) found a name absent from the column")
		}
		if _, ok := cm.Score(rowindex.Text("Panthera leo")); ok {
			t.Error("Score() scored a text value")
		}
		again, err := m.GetColumnMatch("name")
		if err != nil {
			t.Fatal(err)
		}
		if again != cm {
			t.Error("GetColumnMatch() recomputed an unchanged column")
		}
	})

	t.Run("Errors", func(t *testing.T) {
		from, against, _ := fixture(t)
		m := New(from, against)
		var nsc *rowindex.NoSuchColumnError
		if _, err := m.GetColumnMatch("missing"); !errors.As(err, &nsc) {
			t.Errorf("GetColumnMatch(missing) error = %v, want NoSuchColumnError", err)
		}
		if _, err := m.GetColumnMatch("notes"); !errors.Is(err, ErrNotNameColumn) {
			t.Errorf("GetColumnMatch(notes) error = %v, want ErrNotNameColumn", err)
		}
	})

	t.Run("Recompute", func(t *testing.T) {
		from, against, in := fixture(t)
		m := New(from, against)
		cm, err := m.GetColumnMatch("name")
		if err != nil {
			t.Fatal(err)
		}
		if err := from.SetValue(3, 0, rowindex.Text("Panthera tigris")); err != nil {
			t.Fatal(err)
		}
		cm2, err := m.GetColumnMatch("name")
		if err != nil {
			t.Fatal(err)
		}
		if cm2 == cm {
			t.Fatal("GetColumnMatch() kept a stale match")
		}
		if s, _ := cm2.ScoreName(in.Of("Panthera tigris")); s != FullMatch {
			t.Errorf("score after SetValue = %v, want full", s)
		}
		if _, ok := cm2.ScoreName(in.Of("Lynx lynx")); ok {
			t.Error("replaced name still scored")
		}
		if _, err := against.AddRow([]rowindex.Value{
			rowindex.Text("Panthera onca"), rowindex.Text("Panthera onca"), rowindex.Text("Felidae"), rowindex.Text("Panthera"),
		}); err != nil {
			t.Fatal(err)
		}
		cm3, err := m.GetColumnMatch("name")
		if err != nil {
			t.Fatal(err)
		}
		if s, _ := cm3.ScoreName(in.Of("Panthera onca")); s != FullMatch {
			t.Errorf("score after reference change = %v, want full", s)
		}
	})

	t.Run("NameColumns", func(t *testing.T) {
		from, against, _ := fixture(t)
		got := New(from, against).NameColumns()
		if len(got) != 1 || got[0] != "name" {
			t.Errorf("NameColumns() = %v, want [name]", got)
		}
	})
}

func TestSummarize(t *testing.T) {
	from, against, _ := fixture(t)
	m := New(from, against)
	s, err := m.Summarize("name")
	if err != nil {
		t.Fatal(err)
	}
	if want := (Counts{Full: 2, Genus: 2, None: 1}); s.Distinct != want {
		t.Errorf("Distinct = %+v, want %+v", s.Distinct, want)
	}
	if want := (Counts{Full: 3, Genus: 2, None: 1, Blank: 1}); s.Rows != want {
		t.Errorf("Rows = %+v, want %+v", s.Rows, want)
	}
	want := "name: 5 of 6 rows matched (83.3%): 3 full, 2 genus, 1 none, 1 blank"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	all, err := m.SummarizeAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0] != s {
		t.Errorf("SummarizeAll() = %v", all)
	}
}

func TestJoin(t *testing.T) {
	from, against, _ := fixture(t)
	m := New(from, against)
	col, err := m.Join("name", "family")
	if err != nil {
		t.Fatal(err)
	}
	if col != "matched_name_to_family" {
		t.Errorf("Join() = %q", col)
	}
	if got := from.ColumnIndex(col); got != 1 {
		t.Errorf("join column at %d, want 1", got)
	}
	want := []string{"Felidae", "Felidae", JoinNotMatched, JoinNotMatched, JoinNotMatched, JoinMultiple, JoinNotMatched}
	for i, w := range want {
		v, err := from.ValueAt(i, 1)
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != w {
			t.Errorf("row %d = %q, want %q", i, v, w)
		}
	}
	if _, err := m.Join("notes", "family"); !errors.Is(err, ErrNotNameColumn) {
		t.Errorf("Join(notes) error = %v, want ErrNotNameColumn", err)
	}
	if _, err := m.Join("name", "missing"); !errors.Is(err, rowindex.ErrNoSuchColumn) {
		t.Errorf("Join(missing) error = %v, want ErrNoSuchColumn", err)
	}
}

func TestJoinNull(t *testing.T) {
	in := name.NewInterner()
	against := ingest(t, in, []string{"name", "status"}, []string{"Felis catus", ""})
	from := ingest(t, in, []string{"name"}, []string{"Felis catus"})
	col, err := New(from, against).Join("name", "status")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := from.ValueAt(0, from.ColumnIndex(col)); v.String() != JoinNull {
		t.Errorf("joined value = %q, want %q", v, JoinNull)
	}
}

func TestAddScoreColumn(t *testing.T) {
	from, against, _ := fixture(t)
	m := New(from, against)
	col, err := m.AddScoreColumn("name")
	if err != nil {
		t.Fatal(err)
	}
	if col != "name_match" || from.ColumnIndex(col) != 1 {
		t.Fatalf("AddScoreColumn() = %q at %d", col, from.ColumnIndex(col))
	}
	want := []string{"full", "full", "genus", "none", "", "full", "genus"}
	for i, w := range want {
		if v, _ := from.ValueAt(i, 1); v.String() != w {
			t.Errorf("row %d = %q, want %q", i, v, w)
		}
	}
	if _, err := m.AddScoreColumn("name"); !errors.Is(err, rowindex.ErrDuplicateColumn) {
		t.Errorf("second AddScoreColumn() error = %v, want ErrDuplicateColumn", err)
	}
}
