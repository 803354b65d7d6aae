package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/reviewchecker/internal/adapter/driven/github"
	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

var testRepo = model.RepoInfo{Owner: "owner", Name: "repo"}

// staticLocator always resolves to the same repository.
type staticLocator struct {
	repo model.RepoInfo
	err  error
}

func (l staticLocator) Locate(context.Context) (model.RepoInfo, error) {
	return l.repo, l.err
}

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
		"testuser",
		"test-token",
		staticLocator{repo: testRepo},
	)
	require.NoError(t, err)

	return client
}

type userJSON struct {
	Login     string `json:"login"`
	HTMLURL   string `json:"html_url,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type prJSON struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	State    string   `json:"state"`
	HTMLURL  string   `json:"html_url"`
	User     userJSON `json:"user"`
	Created  string   `json:"created_at"`
	MergedAt *string  `json:"merged_at,omitempty"`
}

type issueJSON struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	State       string   `json:"state"`
	HTMLURL     string   `json:"html_url"`
	User        userJSON `json:"user"`
	Created     string   `json:"created_at"`
	PullRequest struct {
		MergedAt *string `json:"merged_at,omitempty"`
	} `json:"pull_request"`
}

func strPtr(s string) *string { return &s }

func TestRepoInfo_DelegatesToLocator(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	repo, err := client.RepoInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.FullName())
}

func TestViewerLogin_ResolvesFromTokenOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user" {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(userJSON{Login: "octocat"})
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "", "test-token", staticLocator{repo: testRepo})
	require.NoError(t, err)

	for range 3 {
		login, err := client.ViewerLogin(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "octocat", login)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestListAuthoredPullRequests_SearchQualifiers(t *testing.T) {
	tests := []struct {
		state model.PRState
		want  string
	}{
		{model.PRStateOpen, "is:pr repo:owner/repo author:testuser is:open"},
		{model.PRStateClosed, "is:pr repo:owner/repo author:testuser is:closed is:unmerged"},
		{model.PRStateMerged, "is:pr repo:owner/repo author:testuser is:merged"},
		{model.PRStateAll, "is:pr repo:owner/repo author:testuser"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			var gotQuery string
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/search/issues", r.URL.Path)
				gotQuery = r.URL.Query().Get("q")
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprint(w, `{"total_count":0,"items":[]}`)
			}))

			prs, err := client.ListAuthoredPullRequests(context.Background(), testRepo, tt.state)
			require.NoError(t, err)
			assert.Empty(t, prs)
			assert.NotNil(t, prs)
			assert.Equal(t, tt.want, gotQuery)
		})
	}
}

func TestListAuthoredPullRequests_MapsState(t *testing.T) {
	merged := issueJSON{Number: 7, Title: "Merged one", State: "closed", User: userJSON{Login: "testuser"}, Created: "2026-01-02T00:00:00Z"}
	merged.PullRequest.MergedAt = strPtr("2026-01-03T00:00:00Z")
	closed := issueJSON{Number: 6, Title: "Closed one", State: "closed", User: userJSON{Login: "testuser"}, Created: "2026-01-01T00:00:00Z"}
	open := issueJSON{Number: 8, Title: "Open one", State: "open", HTMLURL: "https://github.com/owner/repo/pull/8", User: userJSON{Login: "testuser"}, Created: "2026-01-04T00:00:00Z"}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_count": 3,
			"items":       []issueJSON{open, merged, closed},
		})
	}))

	prs, err := client.ListAuthoredPullRequests(context.Background(), testRepo, model.PRStateAll)
	require.NoError(t, err)
	require.Len(t, prs, 3)

	assert.Equal(t, 8, prs[0].Number)
	assert.Equal(t, model.PRStateOpen, prs[0].State)
	assert.Equal(t, "https://github.com/owner/repo/pull/8", prs[0].URL)
	assert.Equal(t, "testuser", prs[0].Author)
	assert.Equal(t, model.PRStateMerged, prs[1].State)
	assert.Equal(t, model.PRStateClosed, prs[2].State)
}

func TestListReviewedPullRequests_FiltersByThreadAuthor(t *testing.T) {
	pulls := []prJSON{
		{Number: 1, Title: "Reviewed", State: "open", User: userJSON{Login: "alice"}, Created: "2026-01-01T00:00:00Z"},
		{Number: 2, Title: "Not reviewed", State: "open", User: userJSON{Login: "bob"}, Created: "2026-01-02T00:00:00Z"},
		{Number: 3, Title: "Broken", State: "open", User: userJSON{Login: "carol"}, Created: "2026-01-03T00:00:00Z"},
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/owner/repo/pulls":
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			_ = json.NewEncoder(w).Encode(pulls)
		case "/graphql":
			var req struct {
				Variables struct {
					Number int `json:"number"`
				} `json:"variables"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			switch req.Variables.Number {
			case 1:
				_, _ = fmt.Fprint(w, threadAuthorsJSON("someone", "testuser"))
			case 2:
				_, _ = fmt.Fprint(w, threadAuthorsJSON("someone"))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		default:
			http.NotFound(w, r)
		}
	}))

	prs, err := client.ListReviewedPullRequests(context.Background(), testRepo, model.PRStateOpen)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, "alice", prs[0].Author)
}

func TestListReviewedPullRequests_MergedFilteredClientSide(t *testing.T) {
	pulls := []prJSON{
		{Number: 1, State: "closed", Created: "2026-01-01T00:00:00Z", MergedAt: strPtr("2026-01-02T00:00:00Z")},
		{Number: 2, State: "closed", Created: "2026-01-01T00:00:00Z"},
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/owner/repo/pulls":
			assert.Equal(t, "all", r.URL.Query().Get("state"))
			_ = json.NewEncoder(w).Encode(pulls)
		case "/graphql":
			_, _ = fmt.Fprint(w, threadAuthorsJSON("testuser"))
		default:
			http.NotFound(w, r)
		}
	}))

	prs, err := client.ListReviewedPullRequests(context.Background(), testRepo, model.PRStateMerged)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, model.PRStateMerged, prs[0].State)
}

func TestListReviewedPullRequests_Pagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/owner/repo/pulls":
			if page := r.URL.Query().Get("page"); page == "" || page == "1" {
				w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
				_ = json.NewEncoder(w).Encode([]prJSON{{Number: 1, State: "open", Created: "2026-01-02T00:00:00Z"}})
				return
			}
			_ = json.NewEncoder(w).Encode([]prJSON{{Number: 2, State: "open", Created: "2026-01-01T00:00:00Z"}})
		case "/graphql":
			_, _ = fmt.Fprint(w, threadAuthorsJSON("testuser"))
		default:
			http.NotFound(w, r)
		}
	}))

	prs, err := client.ListReviewedPullRequests(context.Background(), testRepo, model.PRStateOpen)
	require.NoError(t, err)
	require.Len(t, prs, 2)
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, 2, prs[1].Number)
}

func TestAddReplyToComment_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/owner/repo/pulls/42/comments", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Thanks, fixed.", body["body"])
		assert.EqualValues(t, 123456, body["in_reply_to"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             999,
			"node_id":        "PRRC_x",
			"in_reply_to_id": 123456,
			"body":           "Thanks, fixed.",
			"html_url":       "https://github.com/owner/repo/pull/42#discussion_r999",
			"user":           userJSON{Login: "testuser", HTMLURL: "https://github.com/testuser"},
			"created_at":     "2026-02-01T10:00:00Z",
		})
	}))

	reply, err := client.AddReplyToComment(context.Background(), testRepo, 42, "123456", "Thanks, fixed.")
	require.NoError(t, err)
	assert.Equal(t, int64(999), reply.ID)
	assert.Equal(t, int64(123456), reply.InReplyTo)
	assert.Equal(t, "Thanks, fixed.", reply.Body)
	assert.Equal(t, "testuser", reply.Author.Login)
	assert.Equal(t, "https://github.com/testuser", reply.Author.URL)
	assert.Equal(t, 2026, reply.CreatedAt.Year())
}

func TestAddReplyToComment_NonNumericIDMakesNoCall(t *testing.T) {
	var called atomic.Bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))

	for _, id := range []string{"PRRC_kwDOabc", "", "12a", "-5", "99999999999999999999"} {
		_, err := client.AddReplyToComment(context.Background(), testRepo, 42, id, "hi")
		require.Error(t, err, "id %q", id)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	}
	assert.False(t, called.Load(), "no HTTP call should be made for a non-numeric id")
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		header map[string]string
		want   int
	}{
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`, nil, http.StatusNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Bad credentials"}`, nil, http.StatusUnauthorized},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"Validation Failed"}`, nil, http.StatusUnprocessableEntity},
		{
			"rate limited",
			http.StatusForbidden,
			`{"message":"API rate limit exceeded"}`,
			map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Limit": "5000", "X-RateLimit-Reset": "4102444800"},
			http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))

			_, err := client.AddReplyToComment(context.Background(), testRepo, 1, "10", "body")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrGateway)
			assert.Equal(t, tt.want, apperrors.HTTPStatus(err))
		})
	}
}

// threadAuthorsJSON builds a thread-authors GraphQL response with one thread
// per login.
func threadAuthorsJSON(logins ...string) string {
	nodes := make([]any, 0, len(logins))
	for _, login := range logins {
		nodes = append(nodes, map[string]any{
			"comments": map[string]any{
				"nodes": []any{map[string]any{"author": map[string]any{"login": login}}},
			},
		})
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"pullRequest": map[string]any{
					"reviewThreads": map[string]any{"nodes": nodes},
				},
			},
		},
	})
	return string(body)
}
