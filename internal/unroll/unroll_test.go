package unroll

import (
	"errors"
	"slices"
	"testing"

	"github.com/maruel/taxref/internal/darwincsv"
	"github.com/maruel/taxref/internal/name"
	"github.com/maruel/taxref/internal/rowindex"
)

func checklist(t *testing.T) *rowindex.RowIndex {
	t.Helper()
	tbl, err := darwincsv.Ingest(
		[]string{"taxonID", "parentNameUsageID", "taxonRank", "scientificName"},
		[][]string{
			{"1", "", "kingdom", "Animalia"},
			{"2", "1", "phylum", "Chordata"},
			{"3", "2", "class", "Mammalia"},
			{"4", "3", "species", "Homo sapiens"},
			{"5", "99", "species", "Orphanus orphanus"},
			{"6", "7", "genus", "Alpha"},
			{"7", "6", "genus", "Beta"},
			{"8", "", "", "Norankia"},
			{"9", "10", "species", "Dupla dupla"},
			{"10", "", "genus", "Dupla"},
			{"10", "", "genus", "Dupla2"},
			{"11", "11", "kingdom", "Ipsum"},
		},
		&darwincsv.Options{Interner: name.NewInterner(), PrimaryKeyHeaders: []string{"taxonID"}})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func cell(t *testing.T, tbl *rowindex.RowIndex, row int, col string) string {
	t.Helper()
	c := tbl.ColumnIndex(col)
	if c < 0 {
		t.Fatalf("no column %q", col)
	}
	v, err := tbl.ValueAt(row, c)
	if err != nil {
		t.Fatal(err)
	}
	return v.String()
}

func TestUnroll(t *testing.T) {
	tbl := checklist(t)
	var events []rowindex.Event
	tbl.Subscribe(func(e rowindex.Event) { events = append(events, e) })
	var during int
	tbl.Subscribe(func(rowindex.Event) {
		if tbl.Silenced() {
			during++
		}
	})

	res, err := Unroll(tbl, Options{KeyColumn: "parentNameUsageID"})
	if err != nil {
		t.Fatal(err)
	}
	if during != 0 {
		t.Errorf("%d events delivered while silenced", during)
	}
	if len(events) == 0 {
		t.Error("no events flushed after Unroll")
	}
	if res.Rows != tbl.RowCount() {
		t.Errorf("Rows = %d, want %d", res.Rows, tbl.RowCount())
	}
	wantCols := []string{"rc:status", "rc:kingdom", "rc:phylum", "rc:class", "rc:species", "rc:genus"}
	if !slices.Equal(res.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", res.Columns, wantCols)
	}
	if res.Stopped != 2 || res.Multiple != 1 || res.Cycles != 2 {
		t.Errorf("Result = %+v", res)
	}

	t.Run("Chain", func(t *testing.T) {
		want := map[string]string{
			"rc:species": "Homo sapiens",
			"rc:class":   "Mammalia",
			"rc:phylum":  "Chordata",
			"rc:kingdom": "Animalia",
			"rc:status":  "",
		}
		for col, w := range want {
			if got := cell(t, tbl, 3, col); got != w {
				t.Errorf("%s = %q, want %q", col, got, w)
			}
		}
		if got := cell(t, tbl, 0, "rc:species"); got != "" {
			t.Errorf("kingdom row rc:species = %q, want blank", got)
		}
	})

	t.Run("Statuses", func(t *testing.T) {
		tests := []struct {
			row  int
			want string
		}{
			{0, ""},
			{4, "Stopped at #99: not found"},
			{5, "Cycle at #6"},
			{6, "Cycle at #7"},
			{7, "Stopped at #8: no column name"},
			{8, "Multiple values found for #10"},
			{11, ""},
		}
		for _, tt := range tests {
			if got := cell(t, tbl, tt.row, "rc:status"); got != tt.want {
				t.Errorf("row %d status = %q, want %q", tt.row, got, tt.want)
			}
		}
	})

	t.Run("Types", func(t *testing.T) {
		_, c, err := tbl.Lookup("rc:genus")
		if err != nil {
			t.Fatal(err)
		}
		if c.Type != rowindex.TypeName {
			t.Errorf("rc:genus type = %v, want name", c.Type)
		}
	})

	t.Run("Rerun", func(t *testing.T) {
		before := tbl.ColumnCount()
		res, err := Unroll(tbl, Options{KeyColumn: "parentNameUsageID"})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Columns) != 0 || tbl.ColumnCount() != before {
			t.Errorf("rerun created columns %v", res.Columns)
		}
	})
}

func TestUnrollErrors(t *testing.T) {
	t.Run("NoPrimaryKey", func(t *testing.T) {
		tbl, err := darwincsv.Ingest([]string{"taxonID", "parent"}, [][]string{{"1", ""}}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Unroll(tbl, Options{KeyColumn: "parent"}); !errors.Is(err, ErrNoPrimaryKey) {
			t.Errorf("Unroll() error = %v, want ErrNoPrimaryKey", err)
		}
	})
	t.Run("MissingColumn", func(t *testing.T) {
		tbl := checklist(t)
		if _, err := Unroll(tbl, Options{KeyColumn: "parent"}); !errors.Is(err, rowindex.ErrNoSuchColumn) {
			t.Errorf("Unroll() error = %v, want ErrNoSuchColumn", err)
		}
		if tbl.Silenced() {
			t.Error("table left silenced")
		}
	})
}
