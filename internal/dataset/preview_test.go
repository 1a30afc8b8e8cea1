package dataset

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWritePreview(t *testing.T) {
	ds, err := Load(strings.NewReader("city,visits\nParis,3\nLyon,1\nNice,2\n"), "v.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var buf bytes.Buffer
	ds.WritePreview(&buf, 2)
	out := buf.String()
	for _, want := range []string{"city", "visits", "Paris", "Lyon", "(2 of 3 rows)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Nice") {
		t.Fatalf("preview shows more rows than asked:\n%s", out)
	}
}

func TestTruncateRunesKeepsValidUTF8(t *testing.T) {
	s := strings.Repeat("é", 50)
	got := truncateRunes(s, 40)
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != 40 || !strings.HasSuffix(got, "...") {
		t.Fatalf("bad truncation: %q", got)
	}
	if truncateRunes("short", 40) != "short" {
		t.Fatalf("short strings pass through")
	}

	ds, err := Load(strings.NewReader("note\n"+s+"\n"), "n.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if schema := ds.Schema(); !utf8.ValidString(schema) {
		t.Fatalf("schema split a rune:\n%s", schema)
	}
}
