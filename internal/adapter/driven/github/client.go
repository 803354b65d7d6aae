// Package github implements the GitHubGateway port using go-github for REST
// calls and raw HTTP POSTs for GraphQL.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubGateway = (*Client)(nil)

// maxReviewedCandidates bounds how many PRs the reviewed list inspects, since
// each candidate costs one GraphQL round-trip.
const maxReviewedCandidates = 100

// Client implements the driven.GitHubGateway port.
type Client struct {
	gh         *gh.Client
	graphql    *http.Client
	locator    driven.RepoLocator
	token      string // Sent as the GraphQL bearer token.
	graphqlURL string // "https://api.github.com/graphql" in production; derived from baseURL in tests.

	mu       sync.Mutex
	username string // Configured login, or resolved once from the token.
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. oauth2 (static PAT token source)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. httpcache (ETag-based conditional request caching)
//
// username may be empty; it is then resolved from the token on first use.
func NewClient(token, username string, locator driven.RepoLocator) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   rateLimitClient.Transport,
		},
	}

	return &Client{
		gh:         gh.NewClient(authed),
		graphql:    &http.Client{Transport: authed.Transport, Timeout: 30 * time.Second},
		locator:    locator,
		token:      token,
		graphqlURL: "https://api.github.com/graphql",
		username:   username,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username, token string, locator driven.RepoLocator) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	// Derive graphqlURL from baseURL so httptest servers can intercept GraphQL requests.
	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		gh:         client,
		graphql:    httpClient,
		locator:    locator,
		token:      token,
		graphqlURL: graphqlU.String(),
		username:   username,
	}, nil
}

// RepoInfo returns the repository the dashboard is bound to.
func (c *Client) RepoInfo(ctx context.Context) (model.RepoInfo, error) {
	if c.locator == nil {
		return model.RepoInfo{}, apperrors.Gateway(http.StatusInternalServerError, "no repository configured", nil)
	}
	return c.locator.Locate(ctx)
}

// ViewerLogin returns the authenticated user's login.
func (c *Client) ViewerLogin(ctx context.Context) (string, error) {
	c.mu.Lock()
	login := c.username
	c.mu.Unlock()
	if login != "" {
		return login, nil
	}

	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", mapError(err, "resolve authenticated user; check the GitHub token")
	}
	logRateLimit(resp, "user", 0, 1)

	c.mu.Lock()
	c.username = user.GetLogin()
	login = c.username
	c.mu.Unlock()

	return login, nil
}

// ListAuthoredPullRequests returns PRs opened by the authenticated user, newest
// first. It uses the Search API because it filters merged state server-side.
func (c *Client) ListAuthoredPullRequests(ctx context.Context, repo model.RepoInfo, state model.PRState) ([]model.PullRequest, error) {
	login, err := c.ViewerLogin(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("is:pr repo:%s author:%s", repo.FullName(), login)
	if q := searchStateQualifier(state); q != "" {
		query += " " + q
	}

	opts := &gh.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	prs := []model.PullRequest{}

	for {
		result, resp, err := c.gh.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, mapError(err, fmt.Sprintf("search pull requests for %s (page %d)", repo.FullName(), opts.Page))
		}

		logRateLimit(resp, "search/issues", opts.Page, len(result.Issues))

		for _, issue := range result.Issues {
			prs = append(prs, mapSearchIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// ListReviewedPullRequests returns PRs on which the authenticated user wrote
// at least one review-thread comment. Candidates whose thread lookup fails
// are skipped with a warning.
func (c *Client) ListReviewedPullRequests(ctx context.Context, repo model.RepoInfo, state model.PRState) ([]model.PullRequest, error) {
	login, err := c.ViewerLogin(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err := c.listPullRequests(ctx, repo, state)
	if err != nil {
		return nil, err
	}

	reviewed := []model.PullRequest{}
	for _, pr := range candidates {
		ok, err := c.hasReviewCommentBy(ctx, repo, pr.Number, login)
		if err != nil {
			slog.Warn("skipping PR in reviewed list",
				"repo", repo.FullName(),
				"pr", pr.Number,
				"error", err,
			)
			continue
		}
		if ok {
			reviewed = append(reviewed, pr)
		}
	}

	return reviewed, nil
}

// listPullRequests pages through the PR list API and filters by state
// client-side, since the list API has no merged state.
func (c *Client) listPullRequests(ctx context.Context, repo model.RepoInfo, state model.PRState) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       listAPIState(state),
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var prs []model.PullRequest

	for {
		page, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, mapError(err, fmt.Sprintf("list pull requests for %s (page %d)", repo.FullName(), opts.Page))
		}

		logRateLimit(resp, repo.FullName(), opts.Page, len(page))

		for _, pr := range page {
			mapped := mapPullRequest(pr)
			if state.Matches(mapped.State) {
				prs = append(prs, mapped)
			}
			if len(prs) >= maxReviewedCandidates {
				return prs, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// AddReplyToComment posts body as a reply to the review comment with the
// given REST id.
func (c *Client) AddReplyToComment(ctx context.Context, repo model.RepoInfo, prNumber int, commentID string, body string) (*model.CreatedReply, error) {
	if !isDigits(commentID) {
		return nil, apperrors.Validation("comment_id", fmt.Sprintf("comment id must be numeric, got %q", commentID))
	}
	id, err := strconv.ParseInt(commentID, 10, 64)
	if err != nil {
		return nil, apperrors.Validation("comment_id", "comment id out of range")
	}

	comment, resp, err := c.gh.PullRequests.CreateCommentInReplyTo(ctx, repo.Owner, repo.Name, prNumber, body, id)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("reply to comment %d on %s#%d", id, repo.FullName(), prNumber))
	}

	logRateLimit(resp, repo.FullName()+"/reply", 0, 1)

	return &model.CreatedReply{
		ID:        comment.GetID(),
		NodeID:    comment.GetNodeID(),
		InReplyTo: comment.GetInReplyTo(),
		Body:      comment.GetBody(),
		HTMLURL:   comment.GetHTMLURL(),
		Author: model.Author{
			Login:     comment.GetUser().GetLogin(),
			URL:       comment.GetUser().GetHTMLURL(),
			AvatarURL: comment.GetUser().GetAvatarURL(),
		},
		CreatedAt: comment.GetCreatedAt().Time,
	}, nil
}

// searchStateQualifier maps a state filter to Search API qualifiers.
// "closed" means closed without merging.
func searchStateQualifier(state model.PRState) string {
	switch state {
	case model.PRStateOpen:
		return "is:open"
	case model.PRStateClosed:
		return "is:closed is:unmerged"
	case model.PRStateMerged:
		return "is:merged"
	default:
		return ""
	}
}

// listAPIState maps a state filter to the PR list API's state parameter.
func listAPIState(state model.PRState) string {
	switch state {
	case model.PRStateOpen:
		return "open"
	case model.PRStateClosed:
		return "closed"
	default:
		return "all"
	}
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest) model.PullRequest {
	state := model.PRStateOpen
	if !pr.GetMergedAt().IsZero() {
		state = model.PRStateMerged
	} else if pr.GetState() == "closed" {
		state = model.PRStateClosed
	}

	return model.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		URL:       pr.GetHTMLURL(),
		State:     state,
		CreatedAt: pr.GetCreatedAt().Time,
		Author:    pr.GetUser().GetLogin(),
	}
}

// mapSearchIssue converts a PR search hit to a domain model PullRequest.
func mapSearchIssue(issue *gh.Issue) model.PullRequest {
	state := model.PRStateOpen
	if issue.GetPullRequestLinks().GetMergedAt().Time.IsZero() {
		if issue.GetState() == "closed" {
			state = model.PRStateClosed
		}
	} else {
		state = model.PRStateMerged
	}

	return model.PullRequest{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		URL:       issue.GetHTMLURL(),
		State:     state,
		CreatedAt: issue.GetCreatedAt().Time,
		Author:    issue.GetUser().GetLogin(),
	}
}

// mapError converts a go-github or transport error into a Gateway error
// carrying the upstream status code.
func mapError(err error, message string) *apperrors.Error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return apperrors.Gateway(http.StatusTooManyRequests, message+": rate limit exceeded", err)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return apperrors.Gateway(http.StatusTooManyRequests, message+": secondary rate limit", err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return apperrors.Gateway(respErr.Response.StatusCode, message, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Gateway(http.StatusGatewayTimeout, message, err)
	}

	return apperrors.Gateway(http.StatusBadGateway, message, err)
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}
