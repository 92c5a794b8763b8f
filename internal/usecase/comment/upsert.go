// Package comment implements the sticky-comment upsert protocol: at most one
// coverage comment is maintained per review request across repeated runs.
package comment

import (
	"context"
	"fmt"
	"strings"
)

// Marker is the invisible tag appended to every published body. Discovery
// matches it by substring, so the marker itself is the durable key between
// runs; no comment id needs to be persisted.
const Marker = "<!-- coverage-commenter -->"

// Target identifies the review request that owns the coverage comment.
type Target struct {
	Owner  string
	Repo   string
	Number int
}

// Comment is one existing comment on the target, as returned by the store.
type Comment struct {
	ID   int64
	Body string
}

// Store is the comment-store collaborator the protocol drives.
// ListComments is paginated; hasMore reports whether another page exists.
type Store interface {
	ListComments(ctx context.Context, target Target, page int) (comments []Comment, hasMore bool, err error)
	CreateComment(ctx context.Context, target Target, body string) error
	UpdateComment(ctx context.Context, target Target, commentID int64, body string) error
}

// Upserter finds and updates the previously posted marker-tagged comment, or
// creates a new tagged comment when none exists.
type Upserter struct {
	store Store
}

// NewUpserter constructs an Upserter backed by the given comment store.
func NewUpserter(store Store) *Upserter {
	return &Upserter{store: store}
}

// Upsert publishes body (plus the marker) on the target review request.
// Exactly one create or update call is made per invocation.
func (u *Upserter) Upsert(ctx context.Context, target Target, body string) error {
	tagged := body + "\n" + Marker

	existing, err := u.findTagged(ctx, target)
	if err != nil {
		return fmt.Errorf("locate coverage comment: %w", err)
	}

	if existing != nil {
		if err := u.store.UpdateComment(ctx, target, existing.ID, tagged); err != nil {
			return fmt.Errorf("update coverage comment %d: %w", existing.ID, err)
		}
		return nil
	}

	if err := u.store.CreateComment(ctx, target, tagged); err != nil {
		return fmt.Errorf("create coverage comment: %w", err)
	}
	return nil
}

// findTagged pages through the target's comments in store order and stops at
// the FIRST body containing the marker. If duplicates ever exist only the
// earliest is maintained; the rest go stale.
func (u *Upserter) findTagged(ctx context.Context, target Target) (*Comment, error) {
	for page := 1; ; page++ {
		comments, hasMore, err := u.store.ListComments(ctx, target, page)
		if err != nil {
			return nil, err
		}
		for i := range comments {
			if strings.Contains(comments[i].Body, Marker) {
				return &comments[i], nil
			}
		}
		if !hasMore {
			return nil, nil
		}
	}
}
