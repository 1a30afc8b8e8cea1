package cmd

import (
	"reflect"
	"testing"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
)

func TestParseDraw(t *testing.T) {
	cases := []struct {
		in   string
		want chart.Spec
	}{
		{"histogram age", chart.Spec{Type: chart.Histogram, Primary: "age"}},
		{"hist age bins 8 by sex", chart.Spec{Type: chart.Histogram, Primary: "age", Bins: 8, Group: "sex"}},
		{"scatter total_bill tip by smoker", chart.Spec{Type: chart.Scatter, Primary: "total_bill", Secondary: "tip", Group: "smoker"}},
		{`bar class where sex == "male" and age >= 18`, chart.Spec{Type: chart.Bar, Primary: "class", Filter: `sex == "male" and age >= 18`}},
		{"line `order date` sales", chart.Spec{Type: chart.Line, Primary: "order date", Secondary: "sales"}},
		{`bar who where who == "the where clause"`, chart.Spec{Type: chart.Bar, Primary: "who", Filter: `who == "the where clause"`}},
		{"summary age fare", chart.Spec{Type: chart.Summary, Subset: []string{"age", "fare"}}},
	}
	for _, tc := range cases {
		got, err := parseDraw(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%q:\n got %+v\nwant %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseDrawErrors(t *testing.T) {
	for _, in := range []string{"", "pie age", "histogram", "scatter a b c", "bar age bins zero", "bar `open"} {
		if _, err := parseDraw(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestSpecStringRoundTripsThroughDraw(t *testing.T) {
	spec := chart.Spec{Type: chart.Scatter, Primary: "sepal length", Secondary: "petal_width", Group: "species", Filter: `species != "setosa"`}
	got, err := parseDraw(spec.String())
	if err != nil {
		t.Fatalf("parse %q: %v", spec.String(), err)
	}
	if !reflect.DeepEqual(got, spec) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, spec)
	}
}
