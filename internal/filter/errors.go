package filter

import "fmt"

// FilterError reports an expression that cannot be parsed, resolved against
// the dataset, or type-checked. Pos is the byte offset in Expr, or -1.
type FilterError struct {
	Expr   string
	Pos    int
	Reason string
	// Column is set when the error concerns a specific column.
	Column string
}

func (e *FilterError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("invalid filter %q at offset %d: %s", e.Expr, e.Pos, e.Reason)
	}
	return fmt.Sprintf("invalid filter %q: %s", e.Expr, e.Reason)
}

func errAt(src string, pos int, format string, args ...any) *FilterError {
	return &FilterError{Expr: src, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}
