// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

import "html/template"

// LayoutViewModel holds the data shared by every page.
type LayoutViewModel struct {
	AppTitle     string
	PageTitle    string
	RepoFullName string
	RepoURL      string
}

// FilterOption is one link in a filter bar.
type FilterOption struct {
	Label  string
	URL    string
	Active bool
}

// PRRowViewModel holds presentation-ready data for one row of the PR list.
type PRRowViewModel struct {
	Number       int
	Title        string
	URL          string
	DetailPath   string
	State        string
	Author       string
	CreatedAt    string // Relative, e.g. "3 days ago".
	CreatedAtISO string
}

// PRListViewModel holds the data for the PR list page.
type PRListViewModel struct {
	Owner       string
	Name        string
	State       string
	Type        string
	StateFilter []FilterOption
	TypeFilter  []FilterOption
	PRs         []PRRowViewModel
}

// PRDetailViewModel holds the data for the PR detail page.
type PRDetailViewModel struct {
	PRRowViewModel

	Owner string
	Name  string

	IncludeResolved   bool
	CompactMode       bool
	ToggleResolvedURL string
	ToggleCompactURL  string

	// ReplyPath and ChecksPath are the JSON endpoints used by app.js.
	ReplyPath  string
	ChecksPath string

	Comments     []CommentViewModel
	Commits      []CommitViewModel
	ReplyCount   int
	CheckedCount int
}

// CommentViewModel holds one flattened review thread.
type CommentViewModel struct {
	ID              string
	DatabaseID      int64
	URL             string
	Path            string
	HunkHeader      string
	DiffHTML        template.HTML
	AuthorLogin     string
	AuthorURL       string
	AuthorAvatarURL string
	BodyHTML        template.HTML
	CreatedAt       string
	CreatedAtISO    string
	IsResolved      bool
	IsChecked       bool
	CheckedAt       string
	CheckPath       string
	CanReply        bool
	Replies         []ReplyViewModel
}

// ReplyViewModel holds one reply in a thread.
type ReplyViewModel struct {
	ID              string
	BodyHTML        template.HTML
	AuthorLogin     string
	AuthorURL       string
	AuthorAvatarURL string
	CreatedAt       string
	CreatedAtISO    string
}

// CommitViewModel holds one row of the commits tab.
type CommitViewModel struct {
	ShortSHA        string
	Headline        string
	URL             string
	AuthorName      string
	AuthorLogin     string
	AuthorAvatarURL string
	CommittedAt     string
	CommittedAtISO  string
}

// ErrorViewModel holds the data for the error page.
type ErrorViewModel struct {
	Status  int
	Title   string
	Message string
}
