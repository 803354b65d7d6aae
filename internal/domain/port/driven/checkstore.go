package driven

import (
	"context"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// CommentCheckStore defines the driven port for comment check-state persistence.
// Uniqueness of (prNumber, commentID) is enforced by the store, not by callers.
type CommentCheckStore interface {
	// Get returns the record for the pair, or nil, nil if none exists.
	Get(ctx context.Context, prNumber int, commentID string) (*model.CommentCheck, error)
	// Upsert creates the record or updates IsChecked and UpdatedAt in place.
	// RepoOwner and RepoName are only written on creation.
	Upsert(ctx context.Context, check model.CommentCheck) (*model.CommentCheck, error)
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, prNumber int, commentID string) error
	// ListChecked returns all records for the PR with IsChecked set.
	ListChecked(ctx context.Context, prNumber int) ([]model.CommentCheck, error)
}
