package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// GitHubGateway defines the driven port for the GitHub operations the
// dashboard needs. Implementations return *apperrors.Error with KindGateway
// for transport, auth, or API failures.
type GitHubGateway interface {
	// RepoInfo returns the repository the dashboard is bound to.
	RepoInfo(ctx context.Context) (model.RepoInfo, error)

	// ListAuthoredPullRequests returns PRs opened by the authenticated user.
	ListAuthoredPullRequests(ctx context.Context, repo model.RepoInfo, state model.PRState) ([]model.PullRequest, error)
	// ListReviewedPullRequests returns PRs where the authenticated user
	// authored at least one review-thread comment.
	ListReviewedPullRequests(ctx context.Context, repo model.RepoInfo, state model.PRState) ([]model.PullRequest, error)

	// FetchPullRequestDetail returns the raw PR with its review threads and
	// commits. Returns nil, nil when the PR does not exist.
	FetchPullRequestDetail(ctx context.Context, repo model.RepoInfo, number int) (*RawPullRequest, error)

	// AddReplyToComment replies to the review comment with the given REST id.
	// commentID must be all digits; anything else is rejected before any
	// network call.
	AddReplyToComment(ctx context.Context, repo model.RepoInfo, prNumber int, commentID string, body string) (*model.CreatedReply, error)
}

// RepoLocator resolves which repository the dashboard operates on.
type RepoLocator interface {
	Locate(ctx context.Context) (model.RepoInfo, error)
}

// RawPullRequest is the PR payload as GitHub returns it. Optional fields are
// pointers; the aggregator decides how absence is rendered.
type RawPullRequest struct {
	Number    int
	Title     string
	URL       string
	State     string // OPEN, CLOSED, or MERGED.
	CreatedAt time.Time
	Author    *RawAuthor
	Threads   []RawReviewThread
	Commits   []RawCommit
}

// RawReviewThread is one review thread; Comments[0] is the root.
type RawReviewThread struct {
	IsResolved bool
	Comments   []RawComment
}

// RawComment is a single review-thread comment.
type RawComment struct {
	ID         string
	DatabaseID int64
	URL        string
	Path       *string
	DiffHunk   *string
	BodyHTML   string
	CreatedAt  time.Time
	Author     *RawAuthor // nil for deleted ("ghost") accounts.
}

// RawAuthor is a GitHub actor.
type RawAuthor struct {
	Login     string
	URL       string
	AvatarURL string
}

// RawCommit is a commit node on a PR.
type RawCommit struct {
	AbbreviatedOID  string
	MessageHeadline string
	CommittedDate   time.Time
	AuthorName      string
	User            *RawAuthor // nil when the git author is not a GitHub user.
	URL             string
}
