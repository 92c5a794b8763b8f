// Package github is the REST adapter for the GitHub API surface the tool
// needs: listing, creating and editing issue comments on a pull request, and
// comparing two revisions for their changed files.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkyoung/coverage-commenter/internal/adapter/rest"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	// commentsPerPage is the page size for comment listing; GitHub caps it
	// at 100.
	commentsPerPage = 100
)

// Client is an HTTP client for the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  rest.RetryConfig
	logger     rest.Logger
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a GitHub personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: rest.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (GitHub Enterprise, tests).
// Trailing slashes are trimmed to avoid double-slash request paths.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig replaces the retry configuration.
func (c *Client) SetRetryConfig(conf rest.RetryConfig) {
	c.retryConf = conf
}

// SetLogger wires request/response logging into every API call.
func (c *Client) SetLogger(logger rest.Logger) {
	c.logger = logger
}

// ListIssueComments fetches one page of comments on a pull request, in the
// API's default order (oldest first). hasMore reports whether another page
// may exist, so callers can short-circuit the scan.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number, page int) ([]IssueComment, bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
		owner, repo, number, commentsPerPage, page)

	var comments []IssueComment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, false, err
	}

	return comments, len(comments) == commentsPerPage, nil
}

// CreateIssueComment posts a new comment on a pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueComment, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)

	var created IssueComment
	if err := c.doJSON(ctx, http.MethodPost, path, commentRequest{Body: body}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssueComment replaces the body of an existing comment.
func (c *Client) UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) (*IssueComment, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID)

	var updated IssueComment
	if err := c.doJSON(ctx, http.MethodPatch, path, commentRequest{Body: body}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompareChangedFiles returns the paths changed between two revisions using
// the compare endpoint. The order is the API's order; it may be empty.
func (c *Client) CompareChangedFiles(ctx context.Context, owner, repo, base, head string) ([]string, error) {
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", owner, repo, base, head)

	var compared compareResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &compared); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(compared.Files))
	for _, file := range compared.Files {
		paths = append(paths, file.Filename)
	}
	return paths, nil
}

// doJSON executes one API call with retry, logging, and error mapping.
// payload (when non-nil) is marshalled as the JSON request body; the response
// body is decoded into out.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var jsonData []byte
	if payload != nil {
		var err error
		jsonData, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	url := c.baseURL + path
	started := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, rest.RequestLog{
			Service:   serviceName,
			Method:    method,
			Path:      path,
			Timestamp: started,
		})
	}

	var resp *http.Response
	err := rest.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var bodyReader io.Reader
		if jsonData != nil {
			bodyReader = bytes.NewReader(jsonData)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if reqErr != nil {
			return &rest.Error{
				Type:      rest.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Service:   serviceName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			// Could be timeout or network error
			return &rest.Error{
				Type:      rest.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Service:   serviceName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &rest.Error{
					Type:       rest.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Service:    serviceName,
				}
			}
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		if c.logger != nil {
			var restErr *rest.Error
			errorLog := rest.ErrorLog{
				Service:   serviceName,
				Method:    method,
				Path:      path,
				Timestamp: time.Now(),
				Duration:  time.Since(started),
				Error:     err,
			}
			if errors.As(err, &restErr) {
				errorLog.StatusCode = restErr.StatusCode
				errorLog.Retryable = restErr.Retryable
			}
			c.logger.LogError(ctx, errorLog)
		}
		return err
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.LogResponse(ctx, rest.ResponseLog{
			Service:    serviceName,
			Method:     method,
			Path:       path,
			Timestamp:  time.Now(),
			Duration:   time.Since(started),
			StatusCode: resp.StatusCode,
		})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
