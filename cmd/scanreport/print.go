package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// progressPrinter writes orchestrator events as they happen.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) ProviderSelected(unit int, provider string) {
	fmt.Fprintf(p.w, "[unit %d] trying %s\n", unit, provider)
}

func (p progressPrinter) UnitSucceeded(unit int, provider string, chars int) {
	fmt.Fprintf(p.w, "[unit %d] %s returned %d chars\n", unit, provider, chars)
}

func (p progressPrinter) UnitFailed(unit int, provider string, err error) {
	fmt.Fprintf(p.w, "[unit %d] %s failed: %v\n", unit, provider, err)
}

func printReport(w io.Writer, r *entity.Report) {
	fmt.Fprintf(w, "%s\n", r.Title)
	fmt.Fprintf(w, "type: %s  date: %s  model: %s\n", r.Type, r.Date.Format("2006-01-02"), r.ModelUsed)
	if r.OCRProvider != "" {
		fmt.Fprintf(w, "text read by: %s\n", r.OCRProvider)
	}
	if r.PatientInfo != nil && r.PatientInfo.Name != "" {
		fmt.Fprintf(w, "patient: %s\n", r.PatientInfo.Name)
	}

	rc := classify.CountRisks(r.Metrics)
	fmt.Fprintf(w, "measurements: %d (danger %d, warning %d, normal %d)\n\n", rc.Total, rc.Danger, rc.Warning, rc.Normal)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tNAME\tVALUE\tRANGE\tCATEGORY")
	for _, m := range classify.SortForDisplay(r.Metrics) {
		value := strings.TrimSpace(m.Value + " " + m.Unit)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Status, m.Name, value, m.Range, classify.CategoryOf(m))
	}
	_ = tw.Flush()

	if r.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", r.Summary)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}
