// Package domain contains the value types shared by the coverage pipeline.
package domain

import "math"

// Summary aggregates statement coverage for one bucket.
// StatementRate is a percentage (0-100), not a fraction. It may be NaN or
// infinite when it was derived from a zero statement total; counts are
// float64 so malformed numeric text in the report can propagate as NaN
// instead of aborting the run.
type Summary struct {
	StatementRate   float64
	StatementsTotal float64
}

// Finite reports whether the summary rate is a usable finite number.
// Buckets with a non-finite rate are omitted from rendered output.
func (s Summary) Finite() bool {
	return !math.IsNaN(s.StatementRate) && !math.IsInf(s.StatementRate, 0)
}

// Record is the coverage entry for a single compilation unit (e.g. a class).
type Record struct {
	// Name is the fully qualified, dot-separated unit name.
	Name string

	// Filename is the unit's source path as reported by the coverage tool.
	Filename string

	StatementsTotal   float64
	StatementsInvoked float64
}

// Rate returns invoked/total as a fraction in [0,1].
// It is NaN when the unit has no statements.
func (r Record) Rate() float64 {
	return r.StatementsInvoked / r.StatementsTotal
}

// Bucket is an aggregate view over a subset of coverage records.
// Records keep the order they appeared in the report document.
type Bucket struct {
	Summary Summary
	Records []Record
}

// Report is the artifact handed from the parser to the renderer: the
// "all files" view and the "changed files only" view of one coverage run.
type Report struct {
	All     Bucket
	Changed Bucket
}
