package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/coverage-commenter/internal/adapter/cli"
	"github.com/bkyoung/coverage-commenter/internal/adapter/git"
	githubadapter "github.com/bkyoung/coverage-commenter/internal/adapter/github"
	"github.com/bkyoung/coverage-commenter/internal/adapter/reportfile"
	"github.com/bkyoung/coverage-commenter/internal/adapter/rest"
	"github.com/bkyoung/coverage-commenter/internal/adapter/store/sqlite"
	"github.com/bkyoung/coverage-commenter/internal/config"
	"github.com/bkyoung/coverage-commenter/internal/store"
	"github.com/bkyoung/coverage-commenter/internal/usecase/comment"
	"github.com/bkyoung/coverage-commenter/internal/usecase/report"
	"github.com/bkyoung/coverage-commenter/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "covcomment",
		EnvPrefix:   "COVCOMMENT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability)

	// GitHub client is only available when a token is present; without it the
	// pipeline still runs and prints the rendered Markdown.
	var githubClient *githubadapter.Client
	if githubToken := os.Getenv("GITHUB_TOKEN"); githubToken != "" {
		githubClient = githubadapter.NewClient(githubToken)
		if cfg.GitHub.BaseURL != "" {
			githubClient.SetBaseURL(cfg.GitHub.BaseURL)
		}
		githubClient.SetTimeout(rest.ParseTimeout(cfg.HTTP.Timeout, 30*time.Second))
		githubClient.SetRetryConfig(rest.BuildRetryConfig(cfg.HTTP))
		if logger != nil {
			githubClient.SetLogger(logger)
		}
	}

	var publisher report.Publisher
	if githubClient != nil {
		publisher = comment.NewUpserter(&commentStoreAdapter{client: githubClient})
	}

	changedFiles := buildChangedFileSource(cfg.Git, githubClient)

	// Initialize run history if enabled
	var history store.Store
	if cfg.History.Enabled {
		historyDir := filepath.Dir(cfg.History.Path)
		if err := os.MkdirAll(historyDir, 0755); err != nil {
			log.Printf("warning: failed to create history directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.History.Path)
			if err != nil {
				log.Printf("warning: failed to initialize history store: %v", err)
			} else {
				history = sqliteStore
				defer history.Close()
			}
		}
	}

	runner := report.NewRunner(report.Deps{
		Report:       reportfile.NewReader(),
		ChangedFiles: changedFiles,
		Publisher:    publisher,
		History:      history,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:            runner,
		History:           history,
		DefaultReportPath: cfg.Report.Path,
		DefaultOwner:      cfg.GitHub.Owner,
		DefaultRepo:       cfg.GitHub.Repo,
		Version:           version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "covcomment"))
	}
	return paths
}

// buildLogger creates the API logger based on configuration.
func buildLogger(cfg config.ObservabilityConfig) rest.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	logLevel := rest.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = rest.LogLevelDebug
	case "error":
		logLevel = rest.LogLevelError
	}

	logFormat := rest.LogFormatHuman
	if cfg.Logging.Format == "json" {
		logFormat = rest.LogFormatJSON
	}

	return rest.NewDefaultLogger(logLevel, logFormat)
}

// buildChangedFileSource selects between the GitHub compare API and a local
// go-git diff, per configuration.
func buildChangedFileSource(cfg config.GitConfig, client *githubadapter.Client) report.ChangedFileSource {
	if cfg.Source == "local" {
		repoDir := cfg.RepositoryDir
		if repoDir == "" {
			repoDir = "."
		}
		return &localSourceAdapter{engine: git.NewEngine(repoDir)}
	}
	if client == nil {
		return nil
	}
	return &compareSourceAdapter{client: client}
}

// commentStoreAdapter bridges the upsert protocol's Store port to the GitHub
// issue-comments API.
type commentStoreAdapter struct {
	client *githubadapter.Client
}

func (a *commentStoreAdapter) ListComments(ctx context.Context, target comment.Target, page int) ([]comment.Comment, bool, error) {
	items, hasMore, err := a.client.ListIssueComments(ctx, target.Owner, target.Repo, target.Number, page)
	if err != nil {
		return nil, false, err
	}
	comments := make([]comment.Comment, 0, len(items))
	for _, item := range items {
		comments = append(comments, comment.Comment{ID: item.ID, Body: item.Body})
	}
	return comments, hasMore, nil
}

func (a *commentStoreAdapter) CreateComment(ctx context.Context, target comment.Target, body string) error {
	_, err := a.client.CreateIssueComment(ctx, target.Owner, target.Repo, target.Number, body)
	return err
}

func (a *commentStoreAdapter) UpdateComment(ctx context.Context, target comment.Target, commentID int64, body string) error {
	_, err := a.client.UpdateIssueComment(ctx, target.Owner, target.Repo, commentID, body)
	return err
}

// compareSourceAdapter resolves changed files via the GitHub compare API.
type compareSourceAdapter struct {
	client *githubadapter.Client
}

func (a *compareSourceAdapter) ChangedFiles(ctx context.Context, target comment.Target, baseRef, headRef string) ([]string, error) {
	return a.client.CompareChangedFiles(ctx, target.Owner, target.Repo, baseRef, headRef)
}

// localSourceAdapter resolves changed files from a local checkout.
type localSourceAdapter struct {
	engine *git.Engine
}

func (a *localSourceAdapter) ChangedFiles(ctx context.Context, target comment.Target, baseRef, headRef string) ([]string, error) {
	return a.engine.ChangedFiles(ctx, baseRef, headRef)
}

// Compile-time interface compliance checks
var _ comment.Store = (*commentStoreAdapter)(nil)
var _ report.ChangedFileSource = (*compareSourceAdapter)(nil)
var _ report.ChangedFileSource = (*localSourceAdapter)(nil)
var _ report.ReportSource = (*reportfile.Reader)(nil)
var _ store.Store = (*sqlite.Store)(nil)
