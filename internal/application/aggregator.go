package application

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

const (
	// maxHunkLines is how many trailing diff-hunk lines a comment keeps.
	maxHunkLines = 10
	// HunkElisionMarker replaces the lines dropped from a long diff hunk.
	HunkElisionMarker = "... (earlier lines omitted)"
)

// AggregatePullRequest flattens raw PR data into the detail view model.
// Resolved threads are dropped as a unit unless includeResolved is set.
// Comments and commits are ordered newest first; equal timestamps keep their
// input order. A nil raw PR is reported as NotFound for number.
func AggregatePullRequest(raw *driven.RawPullRequest, number int, includeResolved bool) (*model.PRDetail, error) {
	if raw == nil {
		return nil, apperrors.NotFound("PR", strconv.Itoa(number))
	}

	comments := make([]model.Comment, 0, len(raw.Threads))
	for _, thread := range raw.Threads {
		if thread.IsResolved && !includeResolved {
			continue
		}
		if len(thread.Comments) == 0 {
			continue
		}
		comments = append(comments, flattenThread(thread))
	}

	slices.SortStableFunc(comments, func(a, b model.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	commits := make([]model.Commit, 0, len(raw.Commits))
	for _, c := range raw.Commits {
		commits = append(commits, model.Commit{
			AbbreviatedOID:  c.AbbreviatedOID,
			MessageHeadline: c.MessageHeadline,
			CommittedDate:   c.CommittedDate,
			AuthorName:      c.AuthorName,
			Author:          mapAuthor(c.User),
			URL:             c.URL,
		})
	}

	slices.SortStableFunc(commits, func(a, b model.Commit) int {
		return b.CommittedDate.Compare(a.CommittedDate)
	})

	author := ""
	if raw.Author != nil {
		author = raw.Author.Login
	}

	return &model.PRDetail{
		PullRequest: model.PullRequest{
			Number:    raw.Number,
			Title:     raw.Title,
			URL:       raw.URL,
			State:     prStateFromGraphQL(raw.State),
			CreatedAt: raw.CreatedAt,
			Author:    author,
		},
		Comments: comments,
		Commits:  commits,
	}, nil
}

// flattenThread turns a non-empty thread into its root comment with replies.
// Replies whose author is gone are dropped.
func flattenThread(thread driven.RawReviewThread) model.Comment {
	root := thread.Comments[0]

	var hunk, header string
	if root.DiffHunk != nil {
		header = extractHunkHeader(*root.DiffHunk)
		hunk = truncateHunk(*root.DiffHunk)
	}

	var path string
	if root.Path != nil {
		path = *root.Path
	}

	replies := make([]model.Reply, 0, len(thread.Comments)-1)
	for _, r := range thread.Comments[1:] {
		if r.Author == nil || r.Author.Login == "" {
			continue
		}
		replies = append(replies, model.Reply{
			ID:        r.ID,
			BodyHTML:  model.TrustedHTML(r.BodyHTML),
			CreatedAt: r.CreatedAt,
			Author:    mapAuthor(r.Author),
		})
	}

	return model.Comment{
		ID:         root.ID,
		DatabaseID: root.DatabaseID,
		URL:        root.URL,
		Path:       path,
		DiffHunk:   hunk,
		HunkHeader: header,
		Author:     mapAuthor(root.Author),
		BodyHTML:   model.TrustedHTML(root.BodyHTML),
		CreatedAt:  root.CreatedAt,
		IsResolved: thread.IsResolved,
		Replies:    replies,
	}
}

// truncateHunk keeps the last maxHunkLines lines of hunk, prefixed by the
// elision marker. Shorter hunks are returned unchanged.
func truncateHunk(hunk string) string {
	lines := strings.Split(hunk, "\n")
	if len(lines) <= maxHunkLines {
		return hunk
	}
	kept := lines[len(lines)-maxHunkLines:]
	return HunkElisionMarker + "\n" + strings.Join(kept, "\n")
}

// extractHunkHeader returns the first "@@" line of hunk, or "".
func extractHunkHeader(hunk string) string {
	for line := range strings.SplitSeq(hunk, "\n") {
		if strings.HasPrefix(line, "@@") {
			return line
		}
	}
	return ""
}

func mapAuthor(a *driven.RawAuthor) model.Author {
	if a == nil {
		return model.Author{}
	}
	return model.Author{Login: a.Login, URL: a.URL, AvatarURL: a.AvatarURL}
}

// prStateFromGraphQL maps GitHub's OPEN/CLOSED/MERGED enum.
func prStateFromGraphQL(state string) model.PRState {
	switch strings.ToUpper(state) {
	case "MERGED":
		return model.PRStateMerged
	case "CLOSED":
		return model.PRStateClosed
	default:
		return model.PRStateOpen
	}
}
