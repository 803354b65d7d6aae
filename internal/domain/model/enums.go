package model

import "strings"

// PRState is the state filter and display state of a pull request.
// GitHub itself only reports open/closed; merged is derived from merged_at.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
	PRStateAll    PRState = "all"
)

// ParsePRState normalizes s case-insensitively. ok is false for unknown values.
func ParsePRState(s string) (PRState, bool) {
	switch st := PRState(strings.ToLower(strings.TrimSpace(s))); st {
	case PRStateOpen, PRStateClosed, PRStateMerged, PRStateAll:
		return st, true
	default:
		return "", false
	}
}

// Matches reports whether a PR in state pr passes the filter s.
func (s PRState) Matches(pr PRState) bool {
	return s == PRStateAll || s == pr
}

// PRListType selects which pull requests the dashboard lists.
type PRListType string

const (
	// PRListAuthored lists PRs opened by the current user.
	PRListAuthored PRListType = "authored"
	// PRListReviewed lists PRs on which the current user left review comments.
	PRListReviewed PRListType = "reviewed"
)

// ParsePRListType normalizes s case-insensitively.
func ParsePRListType(s string) (PRListType, bool) {
	switch t := PRListType(strings.ToLower(strings.TrimSpace(s))); t {
	case PRListAuthored, PRListReviewed:
		return t, true
	default:
		return "", false
	}
}
