package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Condition is one {column, operator, value} triple as emitted by a model.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

var operatorAliases = map[string]string{
	"==": "==", "=": "==", "eq": "==", "equals": "==", "is": "==",
	"!=": "!=", "<>": "!=", "ne": "!=", "not_equals": "!=", "is_not": "!=",
	"<": "<", "lt": "<", "less_than": "<",
	"<=": "<=", "lte": "<=", "le": "<=",
	">": ">", "gt": ">", "greater_than": ">",
	">=": ">=", "gte": ">=", "ge": ">=",
}

// FromConditions renders conditions as an expression joined with "and". The
// result still has to pass Compile like any typed filter.
func FromConditions(conds []Condition) (string, error) {
	parts := make([]string, 0, len(conds))
	for i, c := range conds {
		src := fmt.Sprintf("condition %d", i+1)
		col := strings.TrimSpace(c.Column)
		if col == "" {
			return "", &FilterError{Expr: src, Pos: -1, Reason: "missing column"}
		}
		if strings.ContainsRune(col, '`') {
			return "", &FilterError{Expr: src, Pos: -1, Reason: "column name contains a backtick", Column: col}
		}
		op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(c.Operator))]
		if !ok {
			return "", &FilterError{Expr: src, Pos: -1, Reason: "unsupported operator " + strconv.Quote(c.Operator), Column: col}
		}
		val, err := formatValue(c.Value)
		if err != nil {
			return "", &FilterError{Expr: src, Pos: -1, Reason: err.Error(), Column: col}
		}
		parts = append(parts, formatIdent(col)+" "+op+" "+val)
	}
	return strings.Join(parts, " and "), nil
}

func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "null", nil
	case string:
		return quoteString(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return "", fmt.Errorf("invalid number %q", v.String())
		}
		return v.String(), nil
	}
	return "", fmt.Errorf("unsupported value %v (%T)", v, v)
}
