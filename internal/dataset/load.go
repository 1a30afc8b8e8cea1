package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Options controls how tabular files are read and typed.
type Options struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, sniffed among ',', ';', '\t' from the header line.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects the XLSX worksheet; empty means the first one.
	Sheet string
	// CategoricalLimit is the largest distinct count still treated as categorical.
	CategoricalLimit int

	// SampleURL is the base URL full sample copies are downloaded from.
	// Empty keeps to the bundled copies.
	SampleURL string
	// SampleCache holds downloaded samples; empty disables caching.
	SampleCache   string
	SampleTimeout time.Duration
}

// DefaultOptions returns reasonable defaults for loading.
func DefaultOptions() Options {
	return Options{CategoricalLimit: 50}
}

// format loads a dataset from a path it recognises.
type format interface {
	CanLoad(path string) bool
	LoadFile(path string, opt Options) (*Dataset, error)
}

var formats []format

func registerFormat(f format) { formats = append(formats, f) }

func init() {
	registerFormat(csvFormat{})
	registerFormat(xlsxFormat{})
}

// LoadFile picks a loader by file extension.
func LoadFile(path string, opt Options) (*Dataset, error) {
	for _, f := range formats {
		if f.CanLoad(path) {
			return f.LoadFile(path, opt)
		}
	}
	return nil, &LoadError{Source: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))}
}

type csvFormat struct{}

func (csvFormat) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (csvFormat) LoadFile(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	if opt.Delimiter == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opt.Delimiter = '\t'
	}
	return Load(f, filepath.Base(path), opt)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads CSV bytes into a typed Dataset.
func Load(r io.Reader, name string, opt Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: fmt.Errorf("read: %w", err)}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &LoadError{Source: name, Err: errors.New("invalid encoding: input is not valid UTF-8")}
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	// leading-space trimming would also swallow tab delimiters
	cr.TrimLeadingSpace = delim != '\t'
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: name, Err: errors.New("empty file: no header row")}
		}
		return nil, &LoadError{Source: name, Err: fmt.Errorf("read header: %w", err)}
	}
	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Source: name, Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		rows = append(rows, rec)
	}
	return fromRecords(name, header, rows, opt)
}

// fromRecords validates the header, normalises row widths and infers kinds.
func fromRecords(name string, header []string, rows [][]string, opt Options) (*Dataset, error) {
	ncol := len(header)
	if ncol == 0 || (ncol == 1 && strings.TrimSpace(header[0]) == "") {
		return nil, &LoadError{Source: name, Err: errors.New("header row has no columns")}
	}
	names := make([]string, ncol)
	seen := make(map[string]bool, ncol)
	for i, h := range header {
		n := strings.TrimSpace(h)
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		if seen[n] {
			return nil, &LoadError{Source: name, Err: fmt.Errorf("duplicate column name %q", n)}
		}
		seen[n] = true
		names[i] = n
	}
	raws := make([][]string, ncol)
	for j := range raws {
		raws[j] = make([]string, len(rows))
	}
	for i, rec := range rows {
		if len(rec) > ncol {
			return nil, &LoadError{Source: name, Err: fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), ncol)}
		}
		// short rows are padded with empty cells
		for j := 0; j < len(rec); j++ {
			raws[j][i] = rec[j]
		}
	}
	if opt.CategoricalLimit <= 0 {
		opt.CategoricalLimit = 50
	}
	cols := make([]*Column, ncol)
	for j := range names {
		cols[j] = inferColumn(names[j], raws[j], opt)
	}
	return newDataset(name, cols, len(rows)), nil
}

// inferColumn decides a column kind by its predominant parsed type and
// converts every cell. Cells that do not parse as the chosen kind become nulls.
func inferColumn(name string, raw []string, opt Options) *Column {
	var nonNull, numCnt, dtCnt, boolCnt int
	distinct := map[string]struct{}{}
	for _, s := range raw {
		v := strings.TrimSpace(s)
		if isNull(v) {
			continue
		}
		nonNull++
		if _, ok := parseBool(v); ok {
			boolCnt++
		}
		if _, ok := parseNumeric(v, opt); ok {
			numCnt++
		} else if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
		}
		if len(distinct) <= opt.CategoricalLimit {
			distinct[v] = struct{}{}
		}
	}
	txtCnt := nonNull - numCnt - dtCnt

	kind := KindText
	switch {
	case nonNull == 0:
		kind = KindText
	case boolCnt == nonNull:
		kind = KindBoolean
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		kind = KindNumeric
	case dtCnt > 0 && dtCnt >= txtCnt:
		kind = KindDatetime
	case len(distinct) <= opt.CategoricalLimit:
		kind = KindCategorical
	}

	col := &Column{Name: name, Kind: kind, Values: make([]Value, len(raw))}
	if kind == KindDatetime {
		col.Layout = columnLayout(raw)
	}
	for i, s := range raw {
		v := strings.TrimSpace(s)
		val := Value{Raw: v}
		if isNull(v) {
			val.Null = true
			col.Values[i] = val
			continue
		}
		switch kind {
		case KindNumeric:
			val.Num, val.Null = parseNumericNull(v, opt)
		case KindDatetime:
			t, ok := parseTimeWith(v, col.Layout)
			val.Time, val.Null = t, !ok
		case KindBoolean:
			val.Bool, _ = parseBool(v)
		}
		col.Values[i] = val
	}
	return col
}

func parseNumericNull(v string, opt Options) (float64, bool) {
	f, ok := parseNumeric(v, opt)
	return f, !ok
}

func isNull(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "nan", "null", "none", "n/a", "#n/a":
		return true
	}
	return false
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		n := 0
		inQuote := false
		for _, r := range string(line) {
			switch {
			case r == '"':
				inQuote = !inQuote
			case r == d && !inQuote:
				n++
			}
		}
		if n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// timeLayouts are tried in order; slash dates read month-first unless a
// column only makes sense day-first.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"01/02/2006", "1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"02/01/2006", "2/1/2006", "2/1/2006 15:04", "2/1/2006 15:04:05",
}

// dayFirst reports whether layout reads a slash date day-first.
func dayFirst(layout string) bool { return strings.HasPrefix(layout, "02/") || strings.HasPrefix(layout, "2/") }

func monthFirst(layout string) bool { return strings.HasPrefix(layout, "01/") || strings.HasPrefix(layout, "1/") }

func parseTimeMaybe(s string) (time.Time, bool) {
	return parseTimeWith(s, "")
}

// parseTimeWith tries preferred first, then the other layouts except those
// reading slash dates in the opposite order to preferred.
func parseTimeWith(s, preferred string) (time.Time, bool) {
	if preferred != "" {
		if t, err := time.Parse(preferred, s); err == nil {
			return t, true
		}
	}
	for _, l := range timeLayouts {
		if l == preferred || (dayFirst(l) && monthFirst(preferred)) || (monthFirst(l) && dayFirst(preferred)) {
			continue
		}
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// columnLayout picks the layout that parses the most values, earlier
// layouts winning ties, so one column never mixes day-first and
// month-first readings.
func columnLayout(raw []string) string {
	best, bestN := "", 0
	for _, l := range timeLayouts {
		n := 0
		for _, s := range raw {
			v := strings.TrimSpace(s)
			if isNull(v) {
				continue
			}
			if _, err := time.Parse(l, v); err == nil {
				n++
			}
		}
		if n > bestN {
			best, bestN = l, n
		}
	}
	return best
}

// ParseTime parses a literal the way the column's cells were read.
func (c *Column) ParseTime(s string) (time.Time, bool) {
	return parseTimeWith(strings.TrimSpace(s), c.Layout)
}

var (
	plainNumber   = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	commaGrouping = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)
)

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && commaGrouping.MatchString(raw):
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		raw = strings.ReplaceAll(raw, " ", "")
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !plainNumber.MatchString(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
