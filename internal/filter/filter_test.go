package filter

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

func titanic(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.LoadSample("titanic", dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("load titanic: %v", err)
	}
	return ds
}

func loadCSV(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(body), "inline", dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ds
}

func TestApplyAdultMales(t *testing.T) {
	ds := titanic(t)
	out, mask, err := Apply(ds, `sex == "male" and age >= 18`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 14 || mask.Count() != 14 {
		t.Fatalf("expected 14 adult males, got %d (mask %d)", out.Len(), mask.Count())
	}
	if ds.Len() != 40 {
		t.Fatalf("source dataset modified: %d rows", ds.Len())
	}
	sex, _ := out.Column("sex")
	age, _ := out.Column("age")
	for i := 0; i < out.Len(); i++ {
		if sex.Values[i].Raw != "male" || age.Values[i].Null || age.Values[i].Num < 18 {
			t.Fatalf("row %d does not match: sex=%s age=%v", i, sex.Values[i].Raw, age.Values[i])
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ds := titanic(t)
	src := `(sex == 'female' || pclass == 1) && not fare < 10`
	a, err := Evaluate(ds, src)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, _ := Evaluate(ds, src)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("masks differ between runs")
	}
	prog, err := Compile(src, ds)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !reflect.DeepEqual(prog.Eval(ds), a) {
		t.Fatalf("program mask differs from Evaluate")
	}
}

func TestOperatorsAndKeywords(t *testing.T) {
	ds := titanic(t)
	cases := []struct {
		expr string
		want int
	}{
		{`sex == "female" or pclass == 1`, 25},
		{`SEX == "female" OR pclass == 1`, 25},
		{`adult_male == true`, 19},
		{`adult_male != false`, 19},
		{`age == null`, 9},
		{`age != null`, 31},
		{`not (age != null)`, 9},
		{`fare > 50`, 7},
		{`50 < fare`, 7},
		{`class == "First"`, 10},
		{`age >= "18" and sex == 'male'`, 14},
	}
	for _, tc := range cases {
		m, err := Evaluate(ds, tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if m.Count() != tc.want {
			t.Fatalf("%s: got %d rows want %d", tc.expr, m.Count(), tc.want)
		}
	}
}

func TestNullNeverMatchesOrdinaryComparisons(t *testing.T) {
	ds := loadCSV(t, "name,score\na,1\nb,\nc,3\n")
	lt, _ := Evaluate(ds, "score < 100")
	ge, _ := Evaluate(ds, "score >= 100")
	ne, _ := Evaluate(ds, "score != 2")
	if lt.Count() != 2 || ge.Count() != 0 || ne.Count() != 2 {
		t.Fatalf("null row matched: lt=%v ge=%v ne=%v", lt, ge, ne)
	}
	if lt[1] || ne[1] {
		t.Fatalf("null cell must not match")
	}
}

func TestEmptyExpressionSelectsEverything(t *testing.T) {
	ds := titanic(t)
	out, m, err := Apply(ds, "   ")
	if err != nil || out != ds || m.Count() != ds.Len() {
		t.Fatalf("unexpected result for empty filter: %v %d", err, m.Count())
	}
}

func TestRejectsUnsafeSyntax(t *testing.T) {
	ds := titanic(t)
	cases := map[string]string{
		`__import__('os').system('ls')`: "attribute access",
		`eval("1") == 1`:                "function calls",
		`len(sex) > 3`:                  "function calls",
		`sex.upper() == "MALE"`:         "attribute access",
		`age = 3`:                       "assignment",
		`age > 3; fare > 1`:             "statement separators",
		`age + 1 > 3`:                   "arithmetic",
		`age * 2 > 3`:                   "arithmetic",
		`sex[0] == "m"`:                 "indexing",
		`age > 3 fare`:                  "unexpected",
		`1 < age < 3`:                   "chained",
		`(age > 3`:                      "expected ')'",
		`age >`:                         "end of expression",
		`sex == "male`:                  "unterminated",
		`age & 1`:                       "bitwise",
		`age`:                           "comparison",
		`1 == 1`:                        "must reference a column",
		`sex in "male"`:                 "comparison operator",
	}
	for expr, want := range cases {
		out, m, err := Apply(ds, expr)
		var fe *FilterError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FilterError, got %v", expr, err)
		}
		if !strings.Contains(fe.Reason, want) {
			t.Fatalf("%s: reason %q does not mention %q", expr, fe.Reason, want)
		}
		if out != ds || m != nil {
			t.Fatalf("%s: dataset must be returned untouched", expr)
		}
	}
}

func TestUnknownColumn(t *testing.T) {
	ds := titanic(t)
	_, err := Compile(`agee > 3`, ds)
	var fe *FilterError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FilterError, got %v", err)
	}
	if fe.Column != "agee" || fe.Pos != 0 || !strings.Contains(fe.Reason, "available: adult_male, age") {
		t.Fatalf("unexpected error: %+v", fe)
	}
}

func TestTypeMismatch(t *testing.T) {
	ds := titanic(t)
	for _, expr := range []string{
		`age == "old"`,
		`adult_male > true`,
		`adult_male == "maybe"`,
		`sex == true`,
		`age < null`,
		`age == sex`,
	} {
		if _, err := Compile(expr, ds); err == nil {
			t.Fatalf("%s: expected type error", expr)
		}
	}
}

func TestBacktickColumnsAndDates(t *testing.T) {
	ds := loadCSV(t, "order date,unit price,region\n2024-01-05,3.5,North\n2024-02-10,4.0,South\n2024-03-01,2.0,North\n")
	m, err := Evaluate(ds, "`order date` >= \"2024-02-01\" and `unit price` > 1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(m, Mask{false, true, true}) {
		t.Fatalf("unexpected mask %v", m)
	}
	if _, err := Compile("`order date` > 5", ds); err == nil {
		t.Fatalf("expected error comparing a date with a number")
	}
	m, err = Evaluate(ds, `region < "O"`)
	if err != nil || m.Count() != 2 {
		t.Fatalf("lexicographic compare: %v %v", m, err)
	}
}

func TestFromConditions(t *testing.T) {
	expr, err := FromConditions([]Condition{
		{Column: "sex", Operator: "==", Value: "male"},
		{Column: "age", Operator: "gte", Value: float64(18)},
	})
	if err != nil {
		t.Fatalf("FromConditions: %v", err)
	}
	if expr != `sex == "male" and age >= 18` {
		t.Fatalf("unexpected expression %q", expr)
	}
	m, err := Evaluate(titanic(t), expr)
	if err != nil || m.Count() != 14 {
		t.Fatalf("rendered expression evaluated to %d rows (%v)", m.Count(), err)
	}

	expr, err = FromConditions([]Condition{{Column: "embark town", Operator: "=", Value: `Queen's "Town"`}, {Column: "deck", Operator: "is", Value: nil}})
	if err != nil {
		t.Fatalf("FromConditions: %v", err)
	}
	if expr != "`embark town` == \"Queen's \\\"Town\\\"\" and deck == null" {
		t.Fatalf("unexpected quoting %q", expr)
	}
	if _, err := Parse(expr); err != nil {
		t.Fatalf("rendered expression does not parse: %v", err)
	}

	if _, err := FromConditions([]Condition{{Column: "age", Operator: "between", Value: 1}}); err == nil {
		t.Fatalf("expected unsupported operator error")
	}
	if _, err := FromConditions([]Condition{{Column: "", Operator: "==", Value: 1}}); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	e, err := Parse(`not (a == 1 or b != 'x') and c <> null`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := `(not (a == 1 or b != "x") and c != null)`
	if e.String() != want {
		t.Fatalf("String() = %q want %q", e.String(), want)
	}
	if _, err := Parse(e.String()); err != nil {
		t.Fatalf("String output does not parse: %v", err)
	}
}
