// Package gitrepo resolves the GitHub repository the dashboard is bound to,
// either from explicit configuration or from the local checkout's remote.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoLocator = (*Resolver)(nil)

const defaultRemote = "origin"

var (
	scpLikeRemote = regexp.MustCompile(`^[\w.-]+@[\w.-]+:([^/]+)/([^/]+?)(?:\.git)?/?$`)
	urlRemote     = regexp.MustCompile(`^(?:https?|ssh|git)://(?:[^@/]+@)?[\w.:-]+/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// Resolver locates the repository. A configured "owner/name" wins; otherwise
// the origin remote of the git checkout at Path is parsed.
type Resolver struct {
	configured string
	path       string
	remote     string
}

// NewResolver creates a Resolver. configured may be empty.
func NewResolver(configured, path string) *Resolver {
	if path == "" {
		path = "."
	}
	return &Resolver{configured: configured, path: path, remote: defaultRemote}
}

// Locate returns the repository identity.
func (r *Resolver) Locate(_ context.Context) (model.RepoInfo, error) {
	if r.configured != "" {
		owner, name, err := SplitFullName(r.configured)
		if err != nil {
			return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError, "configured repository is invalid", err)
		}
		return model.RepoInfo{Owner: owner, Name: name}, nil
	}

	repo, err := git.PlainOpenWithOptions(r.path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError,
			"not inside a git repository; run from a GitHub checkout or set REVIEWCHECKER_REPO", err)
	}

	remote, err := repo.Remote(r.remote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError,
				fmt.Sprintf("git remote %q not found", r.remote), err)
		}
		return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError, "read git remote", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError,
			fmt.Sprintf("git remote %q has no URL", r.remote), nil)
	}

	owner, name, err := ParseRemoteURL(urls[0])
	if err != nil {
		return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError, "unrecognized git remote", err)
	}

	return model.RepoInfo{Owner: owner, Name: name}, nil
}

// ParseRemoteURL extracts owner and name from SSH, scp-like, and HTTPS remotes.
func ParseRemoteURL(remoteURL string) (string, string, error) {
	remoteURL = strings.TrimSpace(remoteURL)

	if m := urlRemote.FindStringSubmatch(remoteURL); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := scpLikeRemote.FindStringSubmatch(remoteURL); len(m) == 3 {
		return m[1], m[2], nil
	}

	return "", "", fmt.Errorf("unable to parse remote URL %q", remoteURL)
}

// SplitFullName splits "owner/name" into its two components.
func SplitFullName(fullName string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(fullName), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/name", fullName)
	}
	return parts[0], parts[1], nil
}
