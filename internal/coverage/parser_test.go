package coverage_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/coverage-commenter/internal/coverage"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<scoverage statement-count="100" statements-invoked="80" statement-rate="80.0" branch-rate="75.0" version="1.0">
  <packages>
    <package name="a" statement-count="100" statements-invoked="80" statement-rate="80.00">
      <classes>
        <class name="a.B" filename="a/B.scala" statement-count="10" statements-invoked="5" statement-rate="50.00" branch-rate="40.00">
        </class>
        <class name="a.C" filename="a/C.scala" statement-count="90" statements-invoked="75" statement-rate="83.33" branch-rate="80.00">
        </class>
      </classes>
    </package>
  </packages>
</scoverage>`

func TestParse_MissingSummaryMarker(t *testing.T) {
	_, err := coverage.Parse("<not-a-coverage-report/>", nil)

	var malformed *coverage.MalformedReportError
	require.Error(t, err)
	assert.True(t, errors.As(err, &malformed))
}

func TestParse_MalformedDocumentNumbers(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{
			name:     "statement count not numeric",
			document: `<scoverage statement-count="abc" statements-invoked="80" statement-rate="80.0" branch-rate="75.0">`,
		},
		{
			name:     "statements invoked not numeric",
			document: `<scoverage statement-count="100" statements-invoked="??" statement-rate="80.0" branch-rate="75.0">`,
		},
		{
			name:     "statement rate not numeric",
			document: `<scoverage statement-count="100" statements-invoked="80" statement-rate="n/a" branch-rate="75.0">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coverage.Parse(tt.document, nil)

			var malformed *coverage.MalformedReportError
			assert.True(t, errors.As(err, &malformed))
		})
	}
}

func TestParse_MalformedBranchRateIsTolerated(t *testing.T) {
	document := `<scoverage statement-count="100" statements-invoked="80" statement-rate="80.0" branch-rate="oops">`

	report, err := coverage.Parse(document, nil)

	require.NoError(t, err)
	assert.InDelta(t, 80.0, report.All.Summary.StatementRate, 1e-9)
}

func TestParse_AllBucketMatchesDocumentSummary(t *testing.T) {
	report, err := coverage.Parse(sampleReport, []string{"src/a/B.scala"})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, report.All.Summary.StatementsTotal, 1e-9)
	assert.InDelta(t, 80.0, report.All.Summary.StatementRate, 1e-9)
	require.Len(t, report.All.Records, 2)

	// Records keep document order.
	assert.Equal(t, "a.B", report.All.Records[0].Name)
	assert.Equal(t, "a/B.scala", report.All.Records[0].Filename)
	assert.InDelta(t, 10.0, report.All.Records[0].StatementsTotal, 1e-9)
	assert.InDelta(t, 5.0, report.All.Records[0].StatementsInvoked, 1e-9)
	assert.Equal(t, "a.C", report.All.Records[1].Name)
}

func TestParse_ChangedBucketRecomputesSummary(t *testing.T) {
	report, err := coverage.Parse(sampleReport, []string{"src/a/B.scala"})
	require.NoError(t, err)

	require.Len(t, report.Changed.Records, 1)
	assert.Equal(t, "a.B", report.Changed.Records[0].Name)

	// Rate is derived from the filtered sums, never copied from the all bucket.
	assert.InDelta(t, 50.0, report.Changed.Summary.StatementRate, 1e-9)
	assert.InDelta(t, 10.0, report.Changed.Summary.StatementsTotal, 1e-9)
}

func TestParse_ChangedBucketSumsAcrossRecords(t *testing.T) {
	report, err := coverage.Parse(sampleReport, []string{"src/a/B.scala", "src/a/C.scala"})
	require.NoError(t, err)

	require.Len(t, report.Changed.Records, 2)
	assert.InDelta(t, 100.0, report.Changed.Summary.StatementsTotal, 1e-9)
	assert.InDelta(t, 80.0, report.Changed.Summary.StatementRate, 1e-9)
}

func TestParse_SubstringFilenameMatching(t *testing.T) {
	tests := []struct {
		name         string
		changedFiles []string
		wantMatches  int
	}{
		{name: "changed path contains filename", changedFiles: []string{"module/src/main/scala/a/B.scala"}, wantMatches: 1},
		{name: "exact path", changedFiles: []string{"a/B.scala"}, wantMatches: 1},
		{name: "unrelated path", changedFiles: []string{"docs/README.md"}, wantMatches: 0},
		{name: "filename longer than changed path", changedFiles: []string{"B.scala"}, wantMatches: 0},
		{name: "empty list", changedFiles: nil, wantMatches: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := coverage.Parse(sampleReport, tt.changedFiles)
			require.NoError(t, err)
			assert.Len(t, report.Changed.Records, tt.wantMatches)
		})
	}
}

func TestParse_EmptyChangedSetYieldsNonFiniteRate(t *testing.T) {
	report, err := coverage.Parse(sampleReport, []string{"unrelated/path.go"})
	require.NoError(t, err)

	assert.Empty(t, report.Changed.Records)
	assert.InDelta(t, 0.0, report.Changed.Summary.StatementsTotal, 1e-9)
	assert.True(t, math.IsNaN(report.Changed.Summary.StatementRate))
	assert.False(t, report.Changed.Summary.Finite())
}

func TestParse_NoClassMarkersIsValid(t *testing.T) {
	document := `<scoverage statement-count="0" statements-invoked="0" statement-rate="0.0" branch-rate="0.0"></scoverage>`

	report, err := coverage.Parse(document, []string{"a/B.scala"})
	require.NoError(t, err)

	assert.Empty(t, report.All.Records)
	assert.Empty(t, report.Changed.Records)
}

func TestParse_MalformedUnitCountBecomesNaN(t *testing.T) {
	document := `<scoverage statement-count="100" statements-invoked="80" statement-rate="80.0" branch-rate="75.0">
<class name="a.B" filename="a/B.scala" statement-count="bogus" statements-invoked="5">`

	report, err := coverage.Parse(document, []string{"a/B.scala"})
	require.NoError(t, err)

	require.Len(t, report.All.Records, 1)
	assert.True(t, math.IsNaN(report.All.Records[0].StatementsTotal))
	// The poisoned count flows into the recomputed changed summary.
	assert.True(t, math.IsNaN(report.Changed.Summary.StatementRate))
}

func TestParse_PackageMarkersAreNotRecords(t *testing.T) {
	// Package markers carry counts but no filename and must not be lifted.
	report, err := coverage.Parse(sampleReport, nil)
	require.NoError(t, err)

	for _, record := range report.All.Records {
		assert.NotEmpty(t, record.Filename)
	}
}
