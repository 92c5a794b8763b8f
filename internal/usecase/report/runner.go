// Package report orchestrates one coverage-comment run: read the report
// document, resolve changed files, parse, render, and publish.
package report

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/bkyoung/coverage-commenter/internal/coverage"
	"github.com/bkyoung/coverage-commenter/internal/domain"
	"github.com/bkyoung/coverage-commenter/internal/render"
	"github.com/bkyoung/coverage-commenter/internal/store"
	"github.com/bkyoung/coverage-commenter/internal/usecase/comment"
)

// ReportSource reads the raw coverage report document.
type ReportSource interface {
	ReadReport(ctx context.Context, path string) (string, error)
}

// ChangedFileSource lists the file paths changed between two revisions.
// Sources that resolve the diff remotely need the review-request target;
// local sources may ignore it.
type ChangedFileSource interface {
	ChangedFiles(ctx context.Context, target comment.Target, baseRef, headRef string) ([]string, error)
}

// Publisher upserts the rendered Markdown onto the review request.
type Publisher interface {
	Upsert(ctx context.Context, target comment.Target, body string) error
}

// Deps captures the collaborators for the runner. History is optional;
// Publisher may be nil when no review-request target will ever be used.
type Deps struct {
	Report       ReportSource
	ChangedFiles ChangedFileSource
	Publisher    Publisher
	History      store.Store
	Now          func() time.Time
}

// Request describes one pipeline invocation.
type Request struct {
	ReportPath string
	BaseRef    string
	HeadRef    string

	// Target is the review request to comment on. A zero Number means no
	// target is available and the Markdown is the program's sole output.
	Target comment.Target

	// DryRun renders without publishing even when a target is configured.
	DryRun bool
}

// Result is the outcome of a run.
type Result struct {
	// Markdown is the rendered comment body (without the upsert marker).
	Markdown string

	// Posted is true when a comment was created or updated.
	Posted bool

	ChangedFileCount int
}

// Runner drives the parser → renderer → upsert pipeline, single-threaded
// and fail-fast: any stage error aborts the run.
type Runner struct {
	deps Deps
}

// NewRunner constructs a Runner from its collaborators.
func NewRunner(deps Deps) *Runner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{deps: deps}
}

// Run executes one coverage-comment pipeline invocation.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	document, err := r.deps.Report.ReadReport(ctx, req.ReportPath)
	if err != nil {
		return Result{}, err
	}

	var changedFiles []string
	if r.deps.ChangedFiles != nil && req.BaseRef != "" && req.HeadRef != "" {
		changedFiles, err = r.deps.ChangedFiles.ChangedFiles(ctx, req.Target, req.BaseRef, req.HeadRef)
		if err != nil {
			return Result{}, fmt.Errorf("changed files %s...%s: %w", req.BaseRef, req.HeadRef, err)
		}
	}

	parsed, err := coverage.Parse(document, changedFiles)
	if err != nil {
		return Result{}, err
	}

	body := render.Markdown(parsed)

	result := Result{
		Markdown:         body,
		ChangedFileCount: len(changedFiles),
	}

	if req.Target.Number > 0 && !req.DryRun {
		if r.deps.Publisher == nil {
			return Result{}, fmt.Errorf("no publisher configured for %s/%s#%d", req.Target.Owner, req.Target.Repo, req.Target.Number)
		}
		if err := r.deps.Publisher.Upsert(ctx, req.Target, body); err != nil {
			return Result{}, err
		}
		result.Posted = true
	}

	r.recordHistory(ctx, req, parsed, result.Posted)

	return result, nil
}

// recordHistory is best-effort: a failed write is a warning, never a run
// failure.
func (r *Runner) recordHistory(ctx context.Context, req Request, parsed domain.Report, posted bool) {
	if r.deps.History == nil {
		return
	}

	now := r.deps.Now()
	run := store.Run{
		RunID:             fmt.Sprintf("%s-%x", now.UTC().Format("20060102T150405Z"), now.UnixNano()),
		Timestamp:         now,
		Repository:        fmt.Sprintf("%s/%s", req.Target.Owner, req.Target.Repo),
		PullNumber:        req.Target.Number,
		BaseRef:           req.BaseRef,
		HeadRef:           req.HeadRef,
		AllRate:           parsed.All.Summary.StatementRate,
		AllStatements:     int64(parsed.All.Summary.StatementsTotal),
		ChangedRate:       parsed.Changed.Summary.StatementRate,
		ChangedStatements: changedStatements(parsed.Changed.Summary),
		Posted:            posted,
	}

	if err := r.deps.History.CreateRun(ctx, run); err != nil {
		log.Printf("warning: failed to record run history: %v", err)
	}
}

// changedStatements guards the int conversion against a NaN total, which
// occurs when per-unit counts were malformed.
func changedStatements(summary domain.Summary) int64 {
	if math.IsNaN(summary.StatementsTotal) || math.IsInf(summary.StatementsTotal, 0) {
		return 0
	}
	return int64(summary.StatementsTotal)
}
