package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"enzclass/domain/run"
)

// topImportances caps the feature importance table length
const topImportances = 15

// Markdown renders a completed run as a markdown report: run metadata,
// overall metrics, per-class breakdown, confusion matrix, exclusions, and
// the top feature importances when the model provides them.
func Markdown(rec *run.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Enzyme Class Prediction Run %s\n\n", rec.ID)
	fmt.Fprintf(&b, "- **Started:** %s\n", rec.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !rec.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Duration:** %s\n", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "- **Source:** %s\n", rec.Source)
	fmt.Fprintf(&b, "- **Extractors:** %s\n", strings.Join(rec.Extractors, ", "))
	fmt.Fprintf(&b, "- **Model:** %s\n", rec.ModelKind)
	fmt.Fprintf(&b, "- **Seed:** %d, train ratio %.2f\n", rec.Seed, rec.TrainRatio)
	fmt.Fprintf(&b, "- **Candidates:** %d, assembled rows: %d, excluded: %d\n\n",
		rec.Candidates, rec.Rows, len(rec.Exclusions))

	if rec.Error != "" {
		fmt.Fprintf(&b, "## Run Failed\n\n%s\n\n", rec.Error)
	}

	if rec.Report != nil {
		r := rec.Report
		b.WriteString("## Metrics\n\n")
		fmt.Fprintf(&b, "- **Test samples:** %d\n", r.NumSamples)
		fmt.Fprintf(&b, "- **Accuracy:** %.4f\n", r.Accuracy)
		fmt.Fprintf(&b, "- **Macro F1:** %.4f\n\n", r.MacroF1)

		b.WriteString("### Per-Class\n\n")
		b.WriteString("| Class | Precision | Recall | F1 | Support |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, c := range r.Classes {
			m := r.PerClass[c]
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %d |\n",
				c, m.Precision, m.Recall, m.F1, m.Support)
		}
		b.WriteString("\n")

		b.WriteString("### Confusion Matrix\n\n")
		b.WriteString("Rows are actual classes, columns predicted.\n\n")
		b.WriteString("| actual \\ predicted |")
		for _, c := range r.Classes {
			fmt.Fprintf(&b, " %s |", c)
		}
		b.WriteString("\n|---|")
		for range r.Classes {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for i, c := range r.Classes {
			fmt.Fprintf(&b, "| **%s** |", c)
			for j := range r.Classes {
				fmt.Fprintf(&b, " %d |", r.Confusion[i][j])
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if len(r.Importances) > 0 {
			b.WriteString("### Top Feature Importances\n\n")
			b.WriteString("| Feature | Importance |\n|---|---|\n")
			for _, fi := range rankImportances(r.Importances) {
				fmt.Fprintf(&b, "| %s | %.4f |\n", fi.name, fi.value)
			}
			b.WriteString("\n")
		}
	}

	if len(rec.Exclusions) > 0 {
		b.WriteString("## Excluded Proteins\n\n")
		b.WriteString("| ID | Stage | Reason | Detail |\n|---|---|---|---|\n")
		for _, ex := range rec.Exclusions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", ex.ID, ex.Stage, ex.Reason, ex.Detail)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the markdown report as a standalone HTML page
func HTML(rec *run.Record) []byte {
	md := []byte(Markdown(rec))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("Run %s", rec.ID),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

type rankedImportance struct {
	name  string
	value float64
}

func rankImportances(importances map[string]float64) []rankedImportance {
	ranked := make([]rankedImportance, 0, len(importances))
	for name, value := range importances {
		ranked = append(ranked, rankedImportance{name, value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topImportances {
		ranked = ranked[:topImportances]
	}
	return ranked
}
