package prompt

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

// Build assembles the prompt asking a model to turn query into a single
// JSON chart command over ds.
func Build(ds *dataset.Dataset, query string) string {
	var b strings.Builder
	b.WriteString("You are a data visualization and analysis expert. Translate the request below into one chart command for the dataset described.\n\n")

	b.WriteString("## Dataset\n")
	b.WriteString(ds.Schema())
	b.WriteString("\nTime-based columns: ")
	if tc := ds.TimeColumns(); len(tc) > 0 {
		b.WriteString(strings.Join(tc, ", "))
	} else {
		b.WriteString("none detected")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## Request\n%q\n\n", strings.TrimSpace(query))

	b.WriteString(`## Answer format
Respond with a single JSON object and nothing else:
{
  "action": {
    "type": "histogram | bar | scatter | line | summary",
    "column": "...",
    "x": "...",
    "y": "...",
    "group": "...",
    "filter": [{"column": "...", "operator": "==", "value": "..."}]
  },
  "description": "one sentence explaining what the chart shows"
}

Chart types:
- "histogram": distribution of one numeric column. Requires "column".
- "bar": comparison across categories. Requires "x" (category column); optional "y" (numeric column, averaged per category). Without "y" the bars count rows.
- "scatter": relationship between two numeric columns. Requires "x" and "y".
- "line": trend of numeric "y" over "x", usually a time column. Requires "x" and "y".
- "summary": descriptive statistics. Optional "columns" (list of column names); empty means all.
Optional "group" names a categorical column that splits the chart into series.

Filters:
- Include "filter" only when the request restricts rows (for example "adult males" means sex == "male" and age >= 18).
- Allowed operators: ==, !=, <, <=, >, >=. Values are strings, numbers, true/false or null.
- Instead of a list, "filter" may be a single expression string such as "sex == 'male' and age >= 18".

Rules:
- Use only column names listed above; never invent columns.
- If the request is ambiguous, pick the most relevant column and say so in "description".
- Return valid JSON only, without comments or surrounding text.
`)
	return b.String()
}
