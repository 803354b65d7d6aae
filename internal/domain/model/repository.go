package model

// RepoInfo identifies the GitHub repository the dashboard is bound to.
type RepoInfo struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r RepoInfo) FullName() string {
	return r.Owner + "/" + r.Name
}
