package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/filter"
)

//go:embed schema.json
var replySchemaJSON []byte

var replySchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("reply.json", bytes.NewReader(replySchemaJSON)); err != nil {
		panic(fmt.Sprintf("reply schema: %v", err))
	}
	s, err := c.Compile("reply.json")
	if err != nil {
		panic(fmt.Sprintf("reply schema: %v", err))
	}
	return s
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON|hjson)?\\s*(.*?)\\s*```")

// Parse turns a model reply into a chart spec. Replies may wrap the JSON in a
// fenced block or prose and may be slightly malformed; decoding falls back
// from strict JSON to a repaired document to Hjson.
func Parse(raw string) (chart.Spec, error) {
	fail := func(err error, format string, args ...any) (chart.Spec, error) {
		return chart.Spec{}, &ParseError{Raw: raw, Reason: fmt.Sprintf(format, args...), Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return fail(nil, "empty reply")
	}
	doc, err := decode(extractJSON(raw))
	if err != nil {
		return fail(err, "reply is not valid JSON")
	}
	mergeParameters(doc)
	if err := replySchema.Validate(doc); err != nil {
		return fail(err, "unexpected reply shape: %s", schemaReason(err))
	}
	root := doc.(map[string]any)
	action := root["action"].(map[string]any)

	typ, ok := chart.ParseType(str(action["type"]))
	if !ok {
		return fail(nil, "unknown action type %q", str(action["type"]))
	}
	spec := chart.Spec{
		Type:        typ,
		Secondary:   str(action["y"]),
		Group:       firstNonEmpty(str(action["group"]), str(action["hue"]), str(action["color"])),
		Title:       str(action["title"]),
		Description: str(root["description"]),
	}
	column, x := str(action["column"]), str(action["x"])
	if typ == chart.Histogram {
		spec.Primary = firstNonEmpty(column, x)
	} else {
		spec.Primary = firstNonEmpty(x, column)
	}
	if b, ok := action["bins"].(float64); ok {
		spec.Bins = int(b)
	}
	cols := strList(action["columns"])
	if typ == chart.Summary {
		spec.Subset = cols
	} else {
		if spec.Primary == "" && len(cols) > 0 {
			spec.Primary = cols[0]
		}
		if spec.Secondary == "" && len(cols) > 1 {
			spec.Secondary = cols[1]
		}
	}

	switch typ {
	case chart.Histogram:
		if spec.Primary == "" {
			return fail(nil, "histogram action missing 'column'")
		}
	case chart.Bar:
		if spec.Primary == "" {
			return fail(nil, "bar action missing 'x'")
		}
	case chart.Scatter, chart.Line:
		if spec.Primary == "" || spec.Secondary == "" {
			return fail(nil, "%s action missing 'x' or 'y'", typ)
		}
	}

	expr, err := filterExpr(action["filter"])
	if err != nil {
		return fail(err, "bad filter: %v", err)
	}
	spec.Filter = expr
	return spec, nil
}

// extractJSON returns the fenced block if there is one, otherwise the span
// from the first '{' to the last '}', otherwise s itself.
func extractJSON(s string) string {
	if m := fencedJSON.FindStringSubmatch(s); m != nil && strings.Contains(m[1], "{") {
		return m[1]
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func decode(s string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(s), &v)
	if err == nil && isObject(v) {
		return v, nil
	}
	firstErr := err
	if firstErr == nil {
		firstErr = errors.New("reply is not a JSON object")
	}
	if repaired, rerr := jsonrepair.RepairJSON(s); rerr == nil {
		var rv any
		if json.Unmarshal([]byte(repaired), &rv) == nil && isObject(rv) {
			return rv, nil
		}
	}
	var hv any
	if hjson.Unmarshal([]byte(s), &hv) == nil {
		// round-trip through encoding/json so the schema sees plain JSON types
		if b, err := json.Marshal(hv); err == nil {
			var jv any
			if json.Unmarshal(b, &jv) == nil && isObject(jv) {
				return jv, nil
			}
		}
	}
	return nil, firstErr
}

// mergeParameters lifts fields of action.parameters into action without
// overwriting fields set directly. It runs before schema validation so the
// lifted fields are checked too.
func mergeParameters(doc any) {
	root, _ := doc.(map[string]any)
	action, _ := root["action"].(map[string]any)
	params, ok := action["parameters"].(map[string]any)
	if !ok {
		return
	}
	for k, v := range params {
		if _, set := action[k]; !set {
			action[k] = v
		}
	}
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func filterExpr(v any) (string, error) {
	switch f := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(f), nil
	case []any:
		conds := make([]filter.Condition, 0, len(f))
		for _, item := range f {
			m, ok := item.(map[string]any)
			if !ok {
				return "", fmt.Errorf("filter condition must be an object, got %T", item)
			}
			op := str(m["operator"])
			if op == "" {
				op = "=="
			}
			conds = append(conds, filter.Condition{Column: str(m["column"]), Operator: op, Value: m["value"]})
		}
		return filter.FromConditions(conds)
	}
	return "", fmt.Errorf("unsupported filter %T", v)
}

func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func strList(v any) []string {
	items, _ := v.([]any)
	var out []string
	for _, it := range items {
		if s := str(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
