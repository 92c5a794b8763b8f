// Package store defines the run-history port and its record type.
package store

import (
	"context"
	"time"
)

// Run captures one pipeline invocation for the history log. Rates are
// percentages; a non-finite rate is persisted as absent.
type Run struct {
	RunID      string
	Timestamp  time.Time
	Repository string
	PullNumber int
	BaseRef    string
	HeadRef    string

	AllRate           float64
	AllStatements     int64
	ChangedRate       float64
	ChangedStatements int64

	// Posted is true when a comment was created or updated, false for
	// preview-only runs.
	Posted bool
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, run Run) error
	RecentRuns(ctx context.Context, repository string, limit int) ([]Run, error)
	Close() error
}
