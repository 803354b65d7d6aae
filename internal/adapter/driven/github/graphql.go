package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const pullRequestDetailQuery = `query($owner: String!, $name: String!, $number: Int!) {
	repository(owner: $owner, name: $name) {
		pullRequest(number: $number) {
			number
			title
			url
			state
			createdAt
			author { login url avatarUrl }
			reviewThreads(first: 100) {
				nodes {
					isResolved
					comments(first: 100) {
						nodes {
							id
							databaseId
							url
							path
							diffHunk
							bodyHTML
							createdAt
							author { login url avatarUrl }
						}
					}
				}
			}
			commits(first: 100) {
				nodes {
					commit {
						abbreviatedOid
						messageHeadline
						committedDate
						url
						author {
							name
							user { login url avatarUrl }
						}
					}
				}
			}
		}
	}
}`

const threadAuthorsQuery = `query($owner: String!, $name: String!, $number: Int!) {
	repository(owner: $owner, name: $name) {
		pullRequest(number: $number) {
			reviewThreads(first: 100) {
				nodes {
					comments(first: 100) {
						nodes {
							author { login }
						}
					}
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type gqlActor struct {
	Login     string `json:"login"`
	URL       string `json:"url"`
	AvatarURL string `json:"avatarUrl"`
}

type gqlComment struct {
	ID         string    `json:"id"`
	DatabaseID int64     `json:"databaseId"`
	URL        string    `json:"url"`
	Path       *string   `json:"path"`
	DiffHunk   *string   `json:"diffHunk"`
	BodyHTML   string    `json:"bodyHTML"`
	CreatedAt  time.Time `json:"createdAt"`
	Author     *gqlActor `json:"author"`
}

type gqlCommit struct {
	AbbreviatedOid  string    `json:"abbreviatedOid"`
	MessageHeadline string    `json:"messageHeadline"`
	CommittedDate   time.Time `json:"committedDate"`
	URL             string    `json:"url"`
	Author          *struct {
		Name string    `json:"name"`
		User *gqlActor `json:"user"`
	} `json:"author"`
}

type gqlPullRequest struct {
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"createdAt"`
	Author        *gqlActor `json:"author"`
	ReviewThreads struct {
		Nodes []struct {
			IsResolved bool `json:"isResolved"`
			Comments   struct {
				Nodes []gqlComment `json:"nodes"`
			} `json:"comments"`
		} `json:"nodes"`
	} `json:"reviewThreads"`
	Commits struct {
		Nodes []struct {
			Commit gqlCommit `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
}

// pullRequestDetailResponse is the response shape of pullRequestDetailQuery.
// Repository and PullRequest are null when either does not exist.
type pullRequestDetailResponse struct {
	Data struct {
		Repository *struct {
			PullRequest *gqlPullRequest `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// threadAuthorsResponse is the response shape of threadAuthorsQuery.
type threadAuthorsResponse struct {
	Data struct {
		Repository *struct {
			PullRequest *struct {
				ReviewThreads struct {
					Nodes []struct {
						Comments struct {
							Nodes []struct {
								Author *struct {
									Login string `json:"login"`
								} `json:"author"`
							} `json:"nodes"`
						} `json:"comments"`
					} `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// FetchPullRequestDetail returns the PR with its review threads and commits.
// A PR (or repository) that does not exist yields nil, nil.
func (c *Client) FetchPullRequestDetail(ctx context.Context, repo model.RepoInfo, number int) (*driven.RawPullRequest, error) {
	var resp pullRequestDetailResponse
	if err := c.postGraphQL(ctx, pullRequestDetailQuery, repoVariables(repo, number), &resp); err != nil {
		return nil, err
	}

	var pr *gqlPullRequest
	if resp.Data.Repository != nil {
		pr = resp.Data.Repository.PullRequest
	}

	if pr == nil {
		if err := firstNonNotFound(resp.Errors); err != nil {
			return nil, apperrors.Gateway(http.StatusBadGateway,
				fmt.Sprintf("graphql error for %s#%d", repo.FullName(), number), err)
		}
		return nil, nil
	}

	if len(resp.Errors) > 0 {
		// Partial data: GitHub returned the PR but some fields failed.
		logGraphQLErrors(repo, number, resp.Errors)
	}

	return mapRawPullRequest(pr), nil
}

// hasReviewCommentBy reports whether login authored any review-thread comment
// on the PR.
func (c *Client) hasReviewCommentBy(ctx context.Context, repo model.RepoInfo, number int, login string) (bool, error) {
	var resp threadAuthorsResponse
	if err := c.postGraphQL(ctx, threadAuthorsQuery, repoVariables(repo, number), &resp); err != nil {
		return false, err
	}

	if len(resp.Errors) > 0 {
		return false, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	if resp.Data.Repository == nil || resp.Data.Repository.PullRequest == nil {
		return false, nil
	}

	for _, thread := range resp.Data.Repository.PullRequest.ReviewThreads.Nodes {
		for _, comment := range thread.Comments.Nodes {
			if comment.Author != nil && comment.Author.Login == login {
				return true, nil
			}
		}
	}

	return false, nil
}

// postGraphQL sends a query and decodes the response into out. Transport,
// HTTP status, and decode failures become Gateway errors; GraphQL-level
// errors are left in out for the caller to interpret.
func (c *Client) postGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return apperrors.Gateway(http.StatusInternalServerError, "marshal graphql request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return apperrors.Gateway(http.StatusInternalServerError, "create graphql request", err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.graphql.Do(httpReq)
	if err != nil {
		return mapError(err, "graphql request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.Gateway(resp.StatusCode,
			fmt.Sprintf("graphql: HTTP %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Gateway(http.StatusBadGateway, "decode graphql response", err)
	}

	return nil
}

func repoVariables(repo model.RepoInfo, number int) map[string]any {
	return map[string]any{
		"owner":  repo.Owner,
		"name":   repo.Name,
		"number": number,
	}
}

// firstNonNotFound returns the first GraphQL error that is not a NOT_FOUND,
// or nil.
func firstNonNotFound(errs []graphqlError) error {
	for _, e := range errs {
		if e.Type != "NOT_FOUND" {
			return fmt.Errorf("%s", e.Message)
		}
	}
	return nil
}

func mapRawPullRequest(pr *gqlPullRequest) *driven.RawPullRequest {
	raw := &driven.RawPullRequest{
		Number:    pr.Number,
		Title:     pr.Title,
		URL:       pr.URL,
		State:     pr.State,
		CreatedAt: pr.CreatedAt,
		Author:    mapActor(pr.Author),
		Threads:   make([]driven.RawReviewThread, 0, len(pr.ReviewThreads.Nodes)),
		Commits:   make([]driven.RawCommit, 0, len(pr.Commits.Nodes)),
	}

	for _, thread := range pr.ReviewThreads.Nodes {
		comments := make([]driven.RawComment, 0, len(thread.Comments.Nodes))
		for _, c := range thread.Comments.Nodes {
			comments = append(comments, driven.RawComment{
				ID:         c.ID,
				DatabaseID: c.DatabaseID,
				URL:        c.URL,
				Path:       c.Path,
				DiffHunk:   c.DiffHunk,
				BodyHTML:   c.BodyHTML,
				CreatedAt:  c.CreatedAt,
				Author:     mapActor(c.Author),
			})
		}
		raw.Threads = append(raw.Threads, driven.RawReviewThread{
			IsResolved: thread.IsResolved,
			Comments:   comments,
		})
	}

	for _, node := range pr.Commits.Nodes {
		commit := driven.RawCommit{
			AbbreviatedOID:  node.Commit.AbbreviatedOid,
			MessageHeadline: node.Commit.MessageHeadline,
			CommittedDate:   node.Commit.CommittedDate,
			URL:             node.Commit.URL,
		}
		if node.Commit.Author != nil {
			commit.AuthorName = node.Commit.Author.Name
			commit.User = mapActor(node.Commit.Author.User)
		}
		raw.Commits = append(raw.Commits, commit)
	}

	return raw
}

func mapActor(a *gqlActor) *driven.RawAuthor {
	if a == nil {
		return nil
	}
	return &driven.RawAuthor{Login: a.Login, URL: a.URL, AvatarURL: a.AvatarURL}
}

func logGraphQLErrors(repo model.RepoInfo, number int, errs []graphqlError) {
	for _, e := range errs {
		slog.Warn("graphql partial error",
			"repo", repo.FullName(),
			"pr", number,
			"type", e.Type,
			"error", e.Message,
		)
	}
}
