package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/chartloom-cli/internal/utils"
)

func TestSafeWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "charts")
	if err := utils.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	p := filepath.Join(dir, "out.html")
	if err := utils.SafeWriteFile(p, []byte("<html></html>")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "<html></html>" {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"total_bill":      "total_bill",
		"Order Date (UTC)": "order_date_utc",
		"  ":              "chart",
		"Größe":           "größe",
	}
	for in, want := range cases {
		if got := utils.Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q want %q", in, got, want)
		}
	}
}
