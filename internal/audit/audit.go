// Package audit renders an action plan as a Markdown document for operator review.
package audit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/vigil/internal/model"
)

// Title heads every audit document.
const Title = "Proactive Anomaly Detection Audit"

// unnamedAction stands in for a rule that carried no action.
const unnamedAction = "(unnamed)"

// Render writes the plan as Markdown: a header with timestamp and total, then
// one numbered section per item followed by its actions. The plan is not modified.
func Render(w io.Writer, plan model.ActionPlan) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s (%s)\n\n", Title, plan.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "- Total anomalies: %d\n\n", len(plan.Items))

	for i, it := range plan.Items {
		a := it.Anomaly
		fmt.Fprintf(bw, "## %d. %s [%s] on `%s`\n", i+1, a.Type, a.Severity, a.Stream)
		fmt.Fprintf(bw, "Details: `%s`\n\n", FormatDetails(a.Details))
		bw.WriteString("Actions:\n")
		if len(it.Actions) == 0 {
			bw.WriteString("- none\n")
		}
		for _, act := range it.Actions {
			name := act.Action
			if name == "" {
				name = unnamedAction
			}
			fmt.Fprintf(bw, "- %s (priority: %s)\n", name, act.Priority)
		}
		bw.WriteString("\n")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// Encoder adapts Render to the file output's encoder hook.
func Encoder(w io.Writer, doc any) error {
	switch p := doc.(type) {
	case model.ActionPlan:
		return Render(w, p)
	case *model.ActionPlan:
		return Render(w, *p)
	default:
		return fmt.Errorf("audit: cannot render %T", doc)
	}
}

// FormatDetails renders detail fields as "k=v" pairs in rule order.
func FormatDetails(d model.Details) string {
	if d == nil {
		return ""
	}
	fields := d.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+formatValue(f.Value))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	if f, ok := model.ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
