package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/filter"
)

func TestParseFencedReplyWithConditions(t *testing.T) {
	raw := "Sure! Here is the chart:\n```json\n" + `{
  "action": {
    "type": "histogram",
    "column": "age",
    "filter": [
      {"column": "sex", "value": "male"},
      {"column": "age", "operator": ">=", "value": 18}
    ]
  },
  "description": "Ages of adult male passengers"
}` + "\n```\nLet me know if you need more."
	spec, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Type != chart.Histogram || spec.Primary != "age" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Filter != `sex == "male" and age >= 18` {
		t.Fatalf("unexpected filter %q", spec.Filter)
	}
	if spec.Description != "Ages of adult male passengers" {
		t.Fatalf("description lost: %q", spec.Description)
	}
}

func TestParseBareObjectInProse(t *testing.T) {
	spec, err := Parse(`The best chart is {"action":{"type":"scatter","x":"total_bill","y":"tip","group":"smoker","filter":"day == 'Sun'"}} as requested.`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Type != chart.Scatter || spec.Primary != "total_bill" || spec.Secondary != "tip" || spec.Group != "smoker" || spec.Filter != "day == 'Sun'" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseRepairsSloppyJSON(t *testing.T) {
	// single quotes, trailing commas and unquoted keys
	raw := `{action: {'type': 'bar', 'x': 'day', 'y': 'tip',}, description: 'Average tip per day',}`
	spec, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Type != chart.Bar || spec.Primary != "day" || spec.Secondary != "tip" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseNestedParametersAndColumns(t *testing.T) {
	spec, err := Parse(`{"action":{"type":"line","parameters":{"columns":["date","sales"]}}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Type != chart.Line || spec.Primary != "date" || spec.Secondary != "sales" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	spec, err = Parse(`{"action":{"type":"summarize","columns":["age","fare"]}}`)
	if err != nil {
		t.Fatalf("Parse summary: %v", err)
	}
	if spec.Type != chart.Summary || len(spec.Subset) != 2 {
		t.Fatalf("unexpected summary spec: %+v", spec)
	}
}

func TestParseMalformedReplies(t *testing.T) {
	cases := map[string]string{
		"":                                     "empty",
		"I am sorry, I cannot help with that.": "not valid JSON",
		`{"description":"no action"}`:          "shape",
		`{"action":{"type":"pie","x":"day"}}`:  "unknown action type",
		`{"action":{"type":"histogram"}}`:      "missing 'column'",
		`{"action":{"type":"scatter","x":"a"}}`: "missing 'x' or 'y'",
		`{"action":{"type":"bar","x":"day","filter":[{"column":"day","operator":"~","value":"Sun"}]}}`: "bad filter",
		`{"action":{"type":"bar","x":"day","filter":[{"column":"day"}]}}`:                             "shape",
		`{"action":{"type":"bar","x":"day","filter":42}}`:                                             "shape",
	}
	for raw, want := range cases {
		_, err := Parse(raw)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: expected ParseError, got %v", raw, err)
		}
		if pe.Raw != raw {
			t.Fatalf("%q: raw reply not preserved", raw)
		}
		if !strings.Contains(pe.Reason, want) {
			t.Fatalf("%q: reason %q does not contain %q", raw, pe.Reason, want)
		}
	}
}

func TestParseBadOperatorUnwrapsToFilterError(t *testing.T) {
	_, err := Parse(`{"action":{"type":"bar","x":"day","filter":[{"column":"day","operator":"between","value":1}]}}`)
	var fe *filter.FilterError
	if !errors.As(err, &fe) || fe.Column != "day" {
		t.Fatalf("expected wrapped FilterError, got %v", err)
	}
}

func TestParseValidatesNestedParameters(t *testing.T) {
	cases := map[string]string{
		`{"action":{"type":"histogram","parameters":{"column":"age","filter":["sex"]}}}`: "/action/filter",
		`{"action":{"type":"histogram","parameters":{"column":"age","bins":1e13}}}`:      "/action/bins",
		`{"action":{"type":"bar","parameters":{"x":["day"]}}}`:                           "/action/x",
	}
	for raw, want := range cases {
		var (
			err      error
			panicked any
		)
		func() {
			defer func() { panicked = recover() }()
			_, err = Parse(raw)
		}()
		if panicked != nil {
			t.Fatalf("%s: Parse panicked: %v", raw, panicked)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected ParseError, got %v", raw, err)
		}
		if !strings.Contains(pe.Reason, want) {
			t.Fatalf("%s: reason %q does not mention %s", raw, pe.Reason, want)
		}
	}

	spec, err := Parse(`{"action":{"type":"histogram","parameters":{"column":"age","bins":12}}}`)
	if err != nil || spec.Bins != 12 || spec.Primary != "age" {
		t.Fatalf("valid parameters rejected: %+v %v", spec, err)
	}
}

func TestFilterExprRejectsNonObjectConditions(t *testing.T) {
	if _, err := filterExpr([]any{"sex"}); err == nil {
		t.Fatalf("expected error for string condition")
	}
}
