package cli

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/coverage-commenter/internal/store"
	"github.com/bkyoung/coverage-commenter/internal/usecase/report"
)

type fakeRunner struct {
	result report.Result
	err    error
	req    report.Request
}

func (r *fakeRunner) Run(ctx context.Context, req report.Request) (report.Result, error) {
	r.req = req
	return r.result, r.err
}

type fakeHistoryLister struct {
	runs []store.Run
	err  error
}

func (h *fakeHistoryLister) RecentRuns(ctx context.Context, repository string, limit int) ([]store.Run, error) {
	return h.runs, h.err
}

func execute(t *testing.T, deps Dependencies, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	deps.Args = Arguments{OutWriter: &out, ErrWriter: &errBuf}

	root := NewRootCommand(deps)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errBuf.String(), err
}

func TestRootCommand_VersionFlag(t *testing.T) {
	stdout, _, err := execute(t, Dependencies{Version: "v1.2.3"}, "--version")

	assert.ErrorIs(t, err, ErrVersionRequested)
	assert.Equal(t, "v1.2.3\n", stdout)
}

func TestRootCommand_VersionDefaultsWhenUnset(t *testing.T) {
	stdout, _, err := execute(t, Dependencies{}, "-v")

	assert.ErrorIs(t, err, ErrVersionRequested)
	assert.Equal(t, "v0.0.0\n", stdout)
}

func TestRootCommand_NoArgsShowsHelp(t *testing.T) {
	stdout, _, err := execute(t, Dependencies{})

	require.NoError(t, err)
	assert.Contains(t, stdout, "covcomment")
	assert.Contains(t, stdout, "comment")
	assert.Contains(t, stdout, "history")
}

func TestCommentCommand_PrintsMarkdownWhenNotPosted(t *testing.T) {
	runner := &fakeRunner{result: report.Result{Markdown: "<details>report</details>\n"}}

	stdout, _, err := execute(t, Dependencies{Runner: runner}, "comment", "--report", "cov.xml")

	require.NoError(t, err)
	assert.Equal(t, "<details>report</details>\n", stdout)
	assert.Equal(t, "cov.xml", runner.req.ReportPath)
	assert.Zero(t, runner.req.Target.Number)
}

func TestCommentCommand_PassesTargetAndRefs(t *testing.T) {
	runner := &fakeRunner{result: report.Result{Posted: true}}

	_, stderr, err := execute(t, Dependencies{Runner: runner},
		"comment", "--owner", "acme", "--repo", "widgets", "--pr", "7",
		"--base", "main", "--head", "feature")

	require.NoError(t, err)
	assert.Equal(t, "acme", runner.req.Target.Owner)
	assert.Equal(t, "widgets", runner.req.Target.Repo)
	assert.Equal(t, 7, runner.req.Target.Number)
	assert.Equal(t, "main", runner.req.BaseRef)
	assert.Equal(t, "feature", runner.req.HeadRef)
	assert.Contains(t, stderr, "coverage comment upserted on acme/widgets#7")
}

func TestCommentCommand_DefaultsFromConfig(t *testing.T) {
	runner := &fakeRunner{}

	_, _, err := execute(t, Dependencies{
		Runner:            runner,
		DefaultReportPath: "target/scoverage.xml",
		DefaultOwner:      "acme",
		DefaultRepo:       "widgets",
	}, "comment")

	require.NoError(t, err)
	assert.Equal(t, "target/scoverage.xml", runner.req.ReportPath)
	assert.Equal(t, "acme", runner.req.Target.Owner)
	assert.Equal(t, "widgets", runner.req.Target.Repo)
}

func TestCommentCommand_DryRunFlag(t *testing.T) {
	runner := &fakeRunner{result: report.Result{Markdown: "body\n"}}

	stdout, _, err := execute(t, Dependencies{Runner: runner}, "comment", "--pr", "7", "--dry-run")

	require.NoError(t, err)
	assert.True(t, runner.req.DryRun)
	assert.Equal(t, "body\n", stdout)
}

func TestCommentCommand_RunnerErrorPropagates(t *testing.T) {
	runner := &fakeRunner{err: errors.New("report missing")}

	_, _, err := execute(t, Dependencies{Runner: runner}, "comment")

	assert.ErrorContains(t, err, "report missing")
}

func TestCommentCommand_NoRunner(t *testing.T) {
	_, _, err := execute(t, Dependencies{}, "comment")

	assert.ErrorContains(t, err, "runner not configured")
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	history := &fakeHistoryLister{runs: []store.Run{
		{
			RunID:             "run-1",
			Timestamp:         time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			Repository:        "acme/widgets",
			PullNumber:        7,
			AllRate:           80.0,
			AllStatements:     12345,
			ChangedRate:       50.0,
			ChangedStatements: 10,
			Posted:            true,
		},
	}}

	stdout, _, err := execute(t, Dependencies{History: history}, "history")

	require.NoError(t, err)
	assert.Contains(t, stdout, "2026-03-14 12:00:00")
	assert.Contains(t, stdout, "acme/widgets#7")
	assert.Contains(t, stdout, "all 80.0% (12,345 stmts)")
	assert.Contains(t, stdout, "changed 50.0% (10 stmts)")
	assert.Contains(t, stdout, "posted=true")
}

func TestHistoryCommand_NaNRateRendersDash(t *testing.T) {
	history := &fakeHistoryLister{runs: []store.Run{
		{Repository: "acme/widgets", ChangedRate: math.NaN(), AllRate: 80.0},
	}}

	stdout, _, err := execute(t, Dependencies{History: history}, "history")

	require.NoError(t, err)
	assert.Contains(t, stdout, "changed - (0 stmts)")
}

func TestHistoryCommand_DisabledHistory(t *testing.T) {
	_, _, err := execute(t, Dependencies{}, "history")

	assert.ErrorContains(t, err, "run history is disabled")
}

func TestHistoryCommand_ErrorPropagates(t *testing.T) {
	history := &fakeHistoryLister{err: errors.New("db locked")}

	_, _, err := execute(t, Dependencies{History: history}, "history")

	assert.ErrorContains(t, err, "db locked")
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "80.0%", formatRate(80.0))
	assert.Equal(t, "-", formatRate(math.NaN()))
	assert.Equal(t, "-", formatRate(math.Inf(1)))
}
