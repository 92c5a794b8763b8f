// Package coverage extracts structured coverage data from an scoverage-style
// report document and derives the per-run bucket views.
package coverage

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bkyoung/coverage-commenter/internal/domain"
)

// The report format is stable and flat, and only four scalar fields are
// needed per marker, so the fields are lifted with regular expressions
// rather than a structural XML parse.
var (
	summaryPattern = regexp.MustCompile(`<scoverage[^>]*\bstatement-count="([^"]*)"[^>]*\bstatements-invoked="([^"]*)"[^>]*\bstatement-rate="([^"]*)"[^>]*\bbranch-rate="([^"]*)"`)
	classPattern   = regexp.MustCompile(`<class\b[^>]*\bname="([^"]*)"[^>]*\bfilename="([^"]*)"[^>]*\bstatement-count="([^"]*)"[^>]*\bstatements-invoked="([^"]*)"`)
)

// MalformedReportError indicates the document-level summary marker is missing
// or carries unparseable numbers. It is fatal: no partial report is emitted.
type MalformedReportError struct {
	Reason string
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed coverage report: %s", e.Reason)
}

// Parse extracts the document-level summary and every per-unit record from
// the report document, then builds the All and Changed buckets. changedFiles
// is the list of paths touched between the two revisions under review; a
// record belongs to the Changed bucket when its filename appears as a
// substring of at least one changed path.
func Parse(document string, changedFiles []string) (domain.Report, error) {
	match := summaryPattern.FindStringSubmatch(document)
	if match == nil {
		return domain.Report{}, &MalformedReportError{Reason: "document summary marker not found"}
	}

	total, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return domain.Report{}, &MalformedReportError{Reason: fmt.Sprintf("statement-count %q is not a number", match[1])}
	}
	if _, err := strconv.ParseFloat(match[2], 64); err != nil {
		return domain.Report{}, &MalformedReportError{Reason: fmt.Sprintf("statements-invoked %q is not a number", match[2])}
	}
	rate, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return domain.Report{}, &MalformedReportError{Reason: fmt.Sprintf("statement-rate %q is not a number", match[3])}
	}
	// Branch rate is carried by the marker but never used downstream.
	_ = looseNumber(match[4])

	records := parseRecords(document)

	all := domain.Bucket{
		Summary: domain.Summary{StatementRate: rate, StatementsTotal: total},
		Records: records,
	}

	return domain.Report{
		All:     all,
		Changed: changedBucket(records, changedFiles),
	}, nil
}

// parseRecords lifts every per-unit marker from the document.
// Zero matches is a valid, empty result.
func parseRecords(document string) []domain.Record {
	matches := classPattern.FindAllStringSubmatch(document, -1)
	records := make([]domain.Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, domain.Record{
			Name:              m[1],
			Filename:          m[2],
			StatementsTotal:   looseNumber(m[3]),
			StatementsInvoked: looseNumber(m[4]),
		})
	}
	return records
}

// changedBucket filters records down to the changed files and recomputes the
// summary from the filtered statement counts. The rate is always derived from
// the summed counts, never copied from the document summary. An empty filter
// yields a 0/0 rate (NaN), which downstream treats as "omit this bucket".
func changedBucket(records []domain.Record, changedFiles []string) domain.Bucket {
	var filtered []domain.Record
	var total, invoked float64
	for _, record := range records {
		if !touchesAny(record.Filename, changedFiles) {
			continue
		}
		filtered = append(filtered, record)
		total += record.StatementsTotal
		invoked += record.StatementsInvoked
	}

	return domain.Bucket{
		Summary: domain.Summary{
			StatementRate:   100 * invoked / total,
			StatementsTotal: total,
		},
		Records: filtered,
	}
}

// touchesAny matches when a changed path contains the record filename as a
// substring. The coverage tool and the revision-comparison API disagree on
// path roots, so equality and prefix matching both miss; substring matching
// tolerates that at the cost of occasional collisions.
func touchesAny(filename string, changedFiles []string) bool {
	for _, path := range changedFiles {
		if strings.Contains(path, filename) {
			return true
		}
	}
	return false
}

// looseNumber parses numeric text best-effort, returning NaN for malformed
// input so a bad per-unit count poisons only that unit's rate.
func looseNumber(text string) float64 {
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
