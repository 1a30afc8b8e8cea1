package prompt

import "fmt"

// ParseError reports a model reply that could not be turned into a chart
// spec. Raw holds the reply verbatim so it can be shown to the user.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not understand model reply: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
