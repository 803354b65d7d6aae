package model

import "time"

// CommentCheck records that a reviewer marked a review comment as handled.
// It is linked to the comment by value (PRNumber, CommentID); at most one
// row exists per pair.
type CommentCheck struct {
	ID        int64
	PRNumber  int
	CommentID string
	RepoOwner string
	RepoName  string
	IsChecked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State projects the record onto the shape returned by check-state reads.
func (c CommentCheck) State() CheckState {
	updated := c.UpdatedAt
	return CheckState{IsChecked: c.IsChecked, CheckedAt: &updated}
}

// CheckState is the checkbox state of one comment. CheckedAt is nil when no
// record exists.
type CheckState struct {
	IsChecked bool
	CheckedAt *time.Time
}
