// Package cli wires the covcomment command surface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bkyoung/coverage-commenter/internal/store"
	"github.com/bkyoung/coverage-commenter/internal/usecase/comment"
	"github.com/bkyoung/coverage-commenter/internal/usecase/report"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Runner defines the dependency required to run the comment command.
type Runner interface {
	Run(ctx context.Context, req report.Request) (report.Result, error)
}

// HistoryLister defines the dependency required to run the history command.
type HistoryLister interface {
	RecentRuns(ctx context.Context, repository string, limit int) ([]store.Run, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner            Runner
	History           HistoryLister
	Args              Arguments
	DefaultReportPath string
	DefaultOwner      string
	DefaultRepo       string
	Version           string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "covcomment",
		Short: "Publish a statement-coverage summary as a sticky PR comment",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(commentCommand(deps.Runner, deps.DefaultReportPath, deps.DefaultOwner, deps.DefaultRepo))
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func commentCommand(runner Runner, defaultReportPath, defaultOwner, defaultRepo string) *cobra.Command {
	var reportPath string
	var baseRef string
	var headRef string
	var owner string
	var repo string
	var prNumber int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Parse the coverage report and upsert the PR comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return errors.New("runner not configured")
			}

			req := report.Request{
				ReportPath: reportPath,
				BaseRef:    baseRef,
				HeadRef:    headRef,
				Target: comment.Target{
					Owner:  owner,
					Repo:   repo,
					Number: prNumber,
				},
				DryRun: dryRun,
			}

			result, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if result.Posted {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "coverage comment upserted on %s/%s#%d\n", owner, repo, prNumber)
				return nil
			}

			// No target (or dry run): the rendered Markdown is the sole output.
			_, _ = fmt.Fprint(cmd.OutOrStdout(), result.Markdown)
			if result.Markdown == "" && stdoutIsTerminal() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "no finite coverage buckets; nothing to render")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", defaultReportPath, "Path to the scoverage XML report")
	cmd.Flags().StringVar(&baseRef, "base", "", "Base revision for the changed-file diff")
	cmd.Flags().StringVar(&headRef, "head", "", "Head revision for the changed-file diff")
	cmd.Flags().StringVar(&owner, "owner", defaultOwner, "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", defaultRepo, "Repository name")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (0 prints the report instead of posting)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the comment without posting")

	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var repository string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent coverage runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return errors.New("run history is disabled")
			}

			runs, err := history.RecentRuns(cmd.Context(), repository, limit)
			if err != nil {
				return err
			}

			printer := message.NewPrinter(language.English)
			for _, run := range runs {
				_, _ = printer.Fprintf(cmd.OutOrStdout(), "%s  %s#%d  all %s (%d stmts)  changed %s (%d stmts)  posted=%t\n",
					run.Timestamp.UTC().Format("2006-01-02 15:04:05"),
					run.Repository,
					run.PullNumber,
					formatRate(run.AllRate),
					run.AllStatements,
					formatRate(run.ChangedRate),
					run.ChangedStatements,
					run.Posted,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "", "Filter by owner/name (empty for all)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func formatRate(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
