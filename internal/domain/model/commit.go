package model

import "time"

// Commit is a commit on a pull request, as shown on the commits tab.
type Commit struct {
	AbbreviatedOID  string
	MessageHeadline string
	CommittedDate   time.Time
	AuthorName      string
	Author          Author // Zero when the git author has no linked GitHub account.
	URL             string
}
