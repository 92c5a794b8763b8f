// Package render turns a coverage report into the Markdown body published on
// the review request.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/bkyoung/coverage-commenter/internal/domain"
)

const (
	allFilesTitle     = "All files"
	changedFilesTitle = "Changed files"

	// maxClassNameLength bounds the rendered class name; longer names are
	// truncated innermost-segment-first and closed with "...".
	maxClassNameLength = 77

	greenThreshold  = 0.8
	yellowThreshold = 0.6

	iconGreen  = "🟢"
	iconYellow = "🟡"
	iconRed    = "🔴"
)

// Markdown renders the report as a deterministic Markdown document: one
// collapsible section per bucket, All files first, Changed files second.
// Buckets whose summary rate is non-finite are omitted; if neither bucket is
// finite the result is the empty string.
func Markdown(report domain.Report) string {
	var builder strings.Builder
	writeBucket(&builder, allFilesTitle, report.All)
	writeBucket(&builder, changedFilesTitle, report.Changed)
	return builder.String()
}

func writeBucket(builder *strings.Builder, title string, bucket domain.Bucket) {
	if !bucket.Summary.Finite() {
		return
	}

	rate := bucket.Summary.StatementRate
	total := bucket.Summary.StatementsTotal
	// The header invoked count is recomputed from the rounded-friendly rate
	// rather than re-summed, so it always agrees with the header percentage.
	invoked := math.Round(rate / 100 * total)

	fmt.Fprintf(builder, "<details>\n<summary>%s %s: %.1f%% (%.0f/%.0f)</summary>\n\n",
		coverageIcon(rate/100), title, rate, invoked, total)
	builder.WriteString("Class | Statement coverage\n")
	builder.WriteString("--- | ---\n")
	for _, record := range bucket.Records {
		rowRate := record.Rate()
		fmt.Fprintf(builder, "%s | %s %.1f%% (%.0f/%.0f)\n",
			abbreviateName(record.Name), coverageIcon(rowRate), rowRate*100,
			record.StatementsInvoked, record.StatementsTotal)
	}
	builder.WriteString("\n</details>\n")
}

// coverageIcon maps a coverage fraction onto a traffic-light indicator.
// NaN fails both comparisons and lands on red.
func coverageIcon(rate float64) string {
	switch {
	case rate >= greenThreshold:
		return iconGreen
	case rate >= yellowThreshold:
		return iconYellow
	default:
		return iconRed
	}
}

// abbreviateName rewrites a fully qualified dot-separated name with the
// innermost segment first, then greedily appends the enclosing segments while
// the result stays within maxClassNameLength. The first segment that would
// exceed the limit terminates the name with a literal "..." instead.
func abbreviateName(name string) string {
	segments := strings.Split(name, ".")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	abbreviated := segments[0]
	for _, segment := range segments[1:] {
		if len(abbreviated)+len(segment)+1 > maxClassNameLength {
			abbreviated += "..."
			break
		}
		abbreviated += "." + segment
	}
	return abbreviated
}
