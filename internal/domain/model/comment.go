package model

import "time"

// TrustedHTML is markup GitHub has already rendered and sanitized (bodyHTML).
// It is passed through to templates without further escaping.
type TrustedHTML string

// Author identifies the GitHub account behind a comment, reply, or commit.
type Author struct {
	Login     string
	URL       string
	AvatarURL string
}

// Comment is the root comment of a review thread, flattened for display.
// Path, DiffHunk, and HunkHeader are shared by every reply in the thread.
type Comment struct {
	ID         string // GraphQL node id.
	DatabaseID int64  // REST id, the target for replies.
	URL        string
	Path       string
	DiffHunk   string // At most 10 lines plus an elision marker.
	HunkHeader string // The "@@ ... @@" line, empty when absent.
	Author     Author
	BodyHTML   TrustedHTML
	CreatedAt  time.Time
	IsResolved bool // Inherited from the thread.
	Replies    []Reply

	// Check is hydrated from the check-state store on read.
	Check CheckState
}

// Reply is a non-root comment in a review thread.
type Reply struct {
	ID        string
	BodyHTML  TrustedHTML
	CreatedAt time.Time
	Author    Author
}

// CreatedReply is the comment GitHub returns after a reply is posted.
type CreatedReply struct {
	ID        int64
	NodeID    string
	InReplyTo int64
	Body      string
	HTMLURL   string
	Author    Author
	CreatedAt time.Time
}
