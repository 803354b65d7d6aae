package web

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	vm "github.com/ericfisherdev/reviewchecker/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

var stateFilterOrder = []model.PRState{model.PRStateOpen, model.PRStateClosed, model.PRStateMerged, model.PRStateAll}

var typeFilterLabels = []struct {
	value model.PRListType
	label string
}{
	{model.PRListAuthored, "Authored"},
	{model.PRListReviewed, "Reviewed"},
}

// formatTime renders t relative to now ("3 days ago"). The zero time renders
// as "".
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func detailPath(number int) string {
	return "/pr/" + strconv.Itoa(number)
}

func listURL(listType model.PRListType, state model.PRState) string {
	q := url.Values{}
	q.Set("type", string(listType))
	q.Set("state", string(state))
	return "/?" + q.Encode()
}

func detailURL(number int, includeResolved, compact bool) string {
	q := url.Values{}
	if includeResolved {
		q.Set("include_resolved", "true")
	}
	if compact {
		q.Set("compact_mode", "true")
	}
	if len(q) == 0 {
		return detailPath(number)
	}
	return detailPath(number) + "?" + q.Encode()
}

func toPRRowViewModel(pr model.PullRequest, now time.Time) vm.PRRowViewModel {
	return vm.PRRowViewModel{
		Number:       pr.Number,
		Title:        pr.Title,
		URL:          pr.URL,
		DetailPath:   detailPath(pr.Number),
		State:        string(pr.State),
		Author:       pr.Author,
		CreatedAt:    formatTime(pr.CreatedAt, now),
		CreatedAtISO: isoTime(pr.CreatedAt),
	}
}

func toPRListViewModel(
	repo model.RepoInfo,
	listType model.PRListType,
	state model.PRState,
	prs []model.PullRequest,
	now time.Time,
) vm.PRListViewModel {
	rows := make([]vm.PRRowViewModel, 0, len(prs))
	for _, pr := range prs {
		rows = append(rows, toPRRowViewModel(pr, now))
	}

	stateFilter := make([]vm.FilterOption, 0, len(stateFilterOrder))
	for _, s := range stateFilterOrder {
		stateFilter = append(stateFilter, vm.FilterOption{
			Label:  string(s),
			URL:    listURL(listType, s),
			Active: s == state,
		})
	}

	typeFilter := make([]vm.FilterOption, 0, len(typeFilterLabels))
	for _, t := range typeFilterLabels {
		typeFilter = append(typeFilter, vm.FilterOption{
			Label:  t.label,
			URL:    listURL(t.value, state),
			Active: t.value == listType,
		})
	}

	return vm.PRListViewModel{
		Owner:       repo.Owner,
		Name:        repo.Name,
		State:       string(state),
		Type:        string(listType),
		StateFilter: stateFilter,
		TypeFilter:  typeFilter,
		PRs:         rows,
	}
}

// toPRDetailViewModel converts an aggregated PR into the detail page model.
// Compact mode drops diff hunks.
func toPRDetailViewModel(
	repo model.RepoInfo,
	detail *model.PRDetail,
	includeResolved, compact bool,
	now time.Time,
) vm.PRDetailViewModel {
	number := detail.Number

	comments := make([]vm.CommentViewModel, 0, len(detail.Comments))
	checked := 0
	for _, c := range detail.Comments {
		if c.Check.IsChecked {
			checked++
		}
		comments = append(comments, toCommentViewModel(number, c, compact, now))
	}

	commits := make([]vm.CommitViewModel, 0, len(detail.Commits))
	for _, c := range detail.Commits {
		commits = append(commits, toCommitViewModel(c, now))
	}

	return vm.PRDetailViewModel{
		PRRowViewModel:    toPRRowViewModel(detail.PullRequest, now),
		Owner:             repo.Owner,
		Name:              repo.Name,
		IncludeResolved:   includeResolved,
		CompactMode:       compact,
		ToggleResolvedURL: detailURL(number, !includeResolved, compact),
		ToggleCompactURL:  detailURL(number, includeResolved, !compact),
		ReplyPath:         fmt.Sprintf("/api/pr/%d/reply", number),
		ChecksPath:        fmt.Sprintf("/api/pr/%d/comments/checks", number),
		Comments:          comments,
		Commits:           commits,
		ReplyCount:        detail.ReplyCount(),
		CheckedCount:      checked,
	}
}

func toCommentViewModel(prNumber int, c model.Comment, compact bool, now time.Time) vm.CommentViewModel {
	replies := make([]vm.ReplyViewModel, 0, len(c.Replies))
	for _, r := range c.Replies {
		replies = append(replies, vm.ReplyViewModel{
			ID:              r.ID,
			BodyHTML:        template.HTML(r.BodyHTML), //nolint:gosec // GitHub-rendered bodyHTML
			AuthorLogin:     r.Author.Login,
			AuthorURL:       r.Author.URL,
			AuthorAvatarURL: r.Author.AvatarURL,
			CreatedAt:       formatTime(r.CreatedAt, now),
			CreatedAtISO:    isoTime(r.CreatedAt),
		})
	}

	cvm := vm.CommentViewModel{
		ID:              c.ID,
		DatabaseID:      c.DatabaseID,
		URL:             c.URL,
		Path:            c.Path,
		HunkHeader:      c.HunkHeader,
		AuthorLogin:     c.Author.Login,
		AuthorURL:       c.Author.URL,
		AuthorAvatarURL: c.Author.AvatarURL,
		BodyHTML:        template.HTML(c.BodyHTML), //nolint:gosec // GitHub-rendered bodyHTML
		CreatedAt:       formatTime(c.CreatedAt, now),
		CreatedAtISO:    isoTime(c.CreatedAt),
		IsResolved:      c.IsResolved,
		IsChecked:       c.Check.IsChecked,
		CheckPath:       fmt.Sprintf("/api/pr/%d/comments/%s/check", prNumber, url.PathEscape(c.ID)),
		CanReply:        c.DatabaseID > 0,
		Replies:         replies,
	}

	if c.Check.IsChecked && c.Check.CheckedAt != nil {
		cvm.CheckedAt = formatTime(*c.Check.CheckedAt, now)
	}

	if !compact {
		cvm.DiffHTML = template.HTML(RenderDiffHunk(c.DiffHunk)) //nolint:gosec // sanitized per line
	}

	return cvm
}

func toCommitViewModel(c model.Commit, now time.Time) vm.CommitViewModel {
	return vm.CommitViewModel{
		ShortSHA:        c.AbbreviatedOID,
		Headline:        c.MessageHeadline,
		URL:             c.URL,
		AuthorName:      c.AuthorName,
		AuthorLogin:     c.Author.Login,
		AuthorAvatarURL: c.Author.AvatarURL,
		CommittedAt:     formatTime(c.CommittedDate, now),
		CommittedAtISO:  isoTime(c.CommittedDate),
	}
}
