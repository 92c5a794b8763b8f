package github

// IssueComment is a comment on an issue or pull request as returned by the
// GitHub issue-comments API. PR-level coverage comments live on the issue
// side of a pull request, not in a review thread.
type IssueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// User identifies a comment author.
type User struct {
	Login string `json:"login"`
}

// commentRequest is the payload for creating or editing a comment.
type commentRequest struct {
	Body string `json:"body"`
}

// compareResponse is the subset of the compare endpoint response we consume.
type compareResponse struct {
	Files []compareFile `json:"files"`
}

type compareFile struct {
	Filename string `json:"filename"`
}

// ErrorResponse is GitHub's standard error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors"`
}
