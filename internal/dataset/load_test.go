package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestLoadInfersKinds(t *testing.T) {
	csvText := strings.Join([]string{
		"id,when,active,city,note,score",
		"1,2024-01-02,true,Paris,first visit ever,10.5",
		"2,2024-01-03,false,Lyon,second visit,NA",
		"3,2024-02-10,TRUE,Paris,third and last,7",
		"4,,false,Nice,\"quoted, with comma\",8.25",
	}, "\n")
	ds, err := Load(strings.NewReader(csvText), "visits.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("rows=%d, want 4", ds.Len())
	}
	want := map[string]Kind{
		"id":     KindNumeric,
		"when":   KindDatetime,
		"active": KindBoolean,
		"city":   KindCategorical,
		"note":   KindCategorical,
		"score":  KindNumeric,
	}
	if len(ds.Columns) != len(want) {
		t.Fatalf("columns=%d, want %d", len(ds.Columns), len(want))
	}
	for name, k := range want {
		c, ok := ds.Column(name)
		if !ok {
			t.Fatalf("missing column %s", name)
		}
		if c.Kind != k {
			t.Fatalf("%s kind=%s, want %s", name, c.Kind, k)
		}
	}
	score, _ := ds.Column("score")
	if !score.Values[1].Null || score.Values[3].Num != 8.25 {
		t.Fatalf("unexpected score values: %+v", score.Values)
	}
	when, _ := ds.Column("when")
	if !when.Values[3].Null || when.Values[2].Time.Month() != 2 {
		t.Fatalf("unexpected datetime values: %+v", when.Values)
	}
	note, _ := ds.Column("note")
	if note.Values[3].Raw != "quoted, with comma" {
		t.Fatalf("quoted field = %q", note.Values[3].Raw)
	}
}

func TestLoadSniffsSemicolonAndLocaleNumbers(t *testing.T) {
	csvText := "Group;Amount\nA;1.000,5\nB;2,25\nC;3\n"
	ds, err := Load(strings.NewReader(csvText), "eu.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	amt, ok := ds.Column("Amount")
	if !ok || amt.Kind != KindNumeric {
		t.Fatalf("Amount not numeric: %+v", amt)
	}
	got := []float64{amt.Values[0].Num, amt.Values[1].Num, amt.Values[2].Num}
	want := []float64{1000.5, 2.25, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadThousandsGrouping(t *testing.T) {
	ds, err := Load(strings.NewReader("n\n\"1,000\"\n\"12,500\"\n"), "n.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, _ := ds.Column("n")
	if c.Values[0].Num != 1000 || c.Values[1].Num != 12500 {
		t.Fatalf("grouped numbers parsed as %v, %v", c.Values[0].Num, c.Values[1].Num)
	}
}

func TestLoadFailures(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"invalid utf8", "a,b\n1,\xff\xfe\n"},
		{"ragged row", "a,b\n1,2,3\n"},
		{"bad quoting", "a,b\n\"unterminated,2\n"},
		{"duplicate header", "a,a\n1,2\n"},
		{"empty", ""},
	}
	for _, c := range cases {
		_, err := Load(strings.NewReader(c.in), c.name, DefaultOptions())
		var le *LoadError
		if !errors.As(err, &le) {
			t.Fatalf("%s: expected LoadError, got %v", c.name, err)
		}
	}
}

func TestLoadPadsShortRows(t *testing.T) {
	ds, err := Load(strings.NewReader("a,b,c\n1,2\n3,4,5\n"), "short.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, _ := ds.Column("c")
	if !c.Values[0].Null || c.Values[1].Num != 5 {
		t.Fatalf("unexpected padding: %+v", c.Values)
	}
}

func TestLoadMaxRows(t *testing.T) {
	ds, err := Load(strings.NewReader("x\n1\n2\n3\n4\n"), "x.csv", Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("rows=%d, want 2", ds.Len())
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "data.tsv")
	if err := os.WriteFile(tsv, []byte("name\tnote\tvalue\nx\t\t1\ny\tok\t2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := LoadFile(tsv, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile tsv: %v", err)
	}
	if len(ds.Columns) != 3 || ds.Name != "data.tsv" {
		t.Fatalf("unexpected dataset: %+v", ds.Names())
	}
	if v := ds.Columns[2].Values[0]; v.Null || v.Num != 1 {
		t.Fatalf("empty tsv cell shifted fields: %+v", v)
	}

	_, err = LoadFile(filepath.Join(dir, "data.parquet"), DefaultOptions())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"product", "units", "price"},
		{"apple", 10, 0.5},
		{"pear", 4, 0.75},
		{"plum", 7, 1.25},
	}
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	ds, err := LoadFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile xlsx: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("rows=%d, want 3", ds.Len())
	}
	units, ok := ds.Column("units")
	if !ok || units.Kind != KindNumeric || units.Values[0].Num != 10 {
		t.Fatalf("unexpected units column: %+v", units)
	}
}

func TestSelectLeavesOriginalUntouched(t *testing.T) {
	ds, err := Load(strings.NewReader("k,v\na,1\nb,2\nc,3\n"), "kv.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := ds.Select([]bool{true, false, true})
	if sub.Len() != 2 || ds.Len() != 3 {
		t.Fatalf("sub=%d orig=%d", sub.Len(), ds.Len())
	}
	v, _ := sub.Column("v")
	if v.Values[1].Num != 3 {
		t.Fatalf("selected wrong rows: %+v", v.Values)
	}
	orig, _ := ds.Column("v")
	if len(orig.Values) != 3 {
		t.Fatalf("original modified")
	}
}

func TestColumnCaseInsensitiveFallback(t *testing.T) {
	ds, err := Load(strings.NewReader("Age,Name\n1,a\n"), "c.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c, ok := ds.Column("age"); !ok || c.Name != "Age" {
		t.Fatalf("case-insensitive lookup failed")
	}
	if ds.HasColumn("missing") {
		t.Fatalf("unexpected column")
	}
}

func TestLoadSlashDatesUseOneLayoutPerColumn(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	cases := []struct {
		name string
		csv  string
		want []time.Time
		lit  time.Time // how "01/02/2020" reads against the column
	}{
		{"month-first", "d\n03/04/2020\n12/25/2020\n", []time.Time{date(2020, 3, 4), date(2020, 12, 25)}, date(2020, 1, 2)},
		{"day-first", "d\n03/04/2020\n25/12/2020\n", []time.Time{date(2020, 4, 3), date(2020, 12, 25)}, date(2020, 2, 1)},
		{"ambiguous", "d\n03/04/2020\n05/06/2020\n", []time.Time{date(2020, 3, 4), date(2020, 5, 6)}, date(2020, 1, 2)},
	}
	for _, tc := range cases {
		ds, err := Load(strings.NewReader(tc.csv), tc.name, DefaultOptions())
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		c, _ := ds.Column("d")
		if c.Kind != KindDatetime {
			t.Fatalf("%s: kind %s", tc.name, c.Kind)
		}
		for i, want := range tc.want {
			if v := c.Values[i]; v.Null || !v.Time.Equal(want) {
				t.Fatalf("%s: row %d = %v, want %v", tc.name, i, v.Time, want)
			}
		}
		if got, ok := c.ParseTime("01/02/2020"); !ok || !got.Equal(tc.lit) {
			t.Fatalf("%s: literal read as %v", tc.name, got)
		}
	}
}
