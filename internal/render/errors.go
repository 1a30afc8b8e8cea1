package render

import (
	"fmt"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
)

// RenderError reports a spec that cannot be drawn from the given data. It is
// always returned before any plotting call.
type RenderError struct {
	Chart  chart.Type
	Column string
	Reason string
}

func (e *RenderError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("cannot draw %s chart: column %q %s", e.Chart, e.Column, e.Reason)
	}
	return fmt.Sprintf("cannot draw %s chart: %s", e.Chart, e.Reason)
}
