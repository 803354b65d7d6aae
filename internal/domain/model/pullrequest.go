package model

import "time"

// PullRequest is a snapshot of a GitHub pull request as listed on the dashboard.
// It is fetched live and never persisted.
type PullRequest struct {
	Number    int
	Title     string
	URL       string
	State     PRState
	CreatedAt time.Time
	Author    string
}

// PRDetail is the aggregated view of a single PR: its review comments
// (flattened threads, newest first) and its commits (newest first).
type PRDetail struct {
	PullRequest
	Comments []Comment
	Commits  []Commit
}

// ReplyCount returns the total number of replies across all comments.
func (d PRDetail) ReplyCount() int {
	n := 0
	for _, c := range d.Comments {
		n += len(c.Replies)
	}
	return n
}
