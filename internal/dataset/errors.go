package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownSample is wrapped by LoadError when a sample name is not built in.
var ErrUnknownSample = errors.New("unknown sample dataset")

// ErrUnsupportedFormat is wrapped by LoadError for unrecognised file extensions.
var ErrUnsupportedFormat = errors.New("unsupported data format")

// LoadError reports a file or sample that could not be turned into a Dataset.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load dataset: %v", e.Err)
	}
	return fmt.Sprintf("load dataset %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
