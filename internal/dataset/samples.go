package dataset

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

//go:embed samples/*.csv
var sampleFS embed.FS

// DefaultSampleURL serves the full copies of the built-in datasets.
const DefaultSampleURL = "https://raw.githubusercontent.com/mwaskom/seaborn-data/master"

// SampleInfo describes a built-in dataset.
type SampleInfo struct {
	Name        string
	Title       string
	Description string
	// Rows is the size of the full dataset. The bundled copy may be an excerpt.
	Rows int
}

var samples = []SampleInfo{
	{Name: "titanic", Title: "Titanic Dataset", Description: "Passengers of the RMS Titanic with class, age, fare and survival", Rows: 891},
	{Name: "iris", Title: "Iris Dataset", Description: "Sepal and petal measurements of three iris species", Rows: 150},
	{Name: "tips", Title: "Tips Dataset", Description: "Restaurant bills and tips by day, time and party size", Rows: 244},
}

// Samples lists the built-in datasets.
func Samples() []SampleInfo {
	out := make([]SampleInfo, len(samples))
	copy(out, samples)
	return out
}

// IsSample reports whether name is a built-in dataset.
func IsSample(name string) bool {
	_, ok := sampleInfo(name)
	return ok
}

func sampleInfo(name string) (SampleInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range samples {
		if s.Name == key {
			return s, true
		}
	}
	return SampleInfo{}, false
}

// LoadSample loads a built-in dataset by name. With opt.SampleURL set, the
// full copy is read from opt.SampleCache or downloaded into it; if that
// fails the bundled copy is used and Dataset.Note says why.
func LoadSample(name string, opt Options) (*Dataset, error) {
	info, ok := sampleInfo(name)
	if !ok {
		return nil, &LoadError{Source: name, Err: fmt.Errorf("%w (available: %s)", ErrUnknownSample, strings.Join(sampleNames(), ", "))}
	}
	var fetchErr error
	if opt.SampleURL != "" {
		data, err := fullSample(info.Name, opt)
		if err == nil {
			return Load(bytes.NewReader(data), info.Name, opt)
		}
		fetchErr = err
	}
	f, err := sampleFS.Open("samples/" + info.Name + ".csv")
	if err != nil {
		return nil, &LoadError{Source: info.Name, Err: err}
	}
	defer f.Close()
	ds, err := Load(f, info.Name, opt)
	if err != nil {
		return nil, err
	}
	if fetchErr != nil && ds.Len() < info.Rows && (opt.MaxRows == 0 || ds.Len() < opt.MaxRows) {
		ds.Note = fmt.Sprintf("using the bundled excerpt (%d of %d rows): %v", ds.Len(), info.Rows, fetchErr)
	}
	return ds, nil
}

// fullSample returns the cached full copy of a sample, downloading it first
// when the cache has none.
func fullSample(name string, opt Options) ([]byte, error) {
	var cached string
	if opt.SampleCache != "" {
		cached = filepath.Join(opt.SampleCache, name+".csv")
		if b, err := os.ReadFile(cached); err == nil && len(b) > 0 {
			return b, nil
		}
	}
	timeout := opt.SampleTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	resp, err := resty.New().
		SetTimeout(timeout).
		R().
		Get(strings.TrimRight(opt.SampleURL, "/") + "/" + name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download %s: %s", name, resp.Status())
	}
	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("download %s: empty response", name)
	}
	if cached != "" {
		if err := os.MkdirAll(opt.SampleCache, 0o755); err == nil {
			// a failed cache write only costs a download next time
			_ = os.WriteFile(cached, body, 0o644)
		}
	}
	return body, nil
}

// Resolve loads src as a sample name when it names one and no file of
// that name exists, otherwise as a file path.
func Resolve(src string, opt Options) (*Dataset, error) {
	if IsSample(src) {
		if _, err := os.Stat(src); err != nil {
			return LoadSample(src, opt)
		}
	}
	return LoadFile(src, opt)
}

func sampleNames() []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Name
	}
	return out
}
