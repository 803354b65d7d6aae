package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewchecker/internal/application"
	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

func newPRService(gw *mockGateway) (*application.PRService, *mapCache) {
	store := newMapCache()
	memo := application.NewMemoizer(store, discardLogger())
	return application.NewPRService(gw, memo, discardLogger()), store
}

func TestPRService_RepoInfoMemoizedForAnHour(t *testing.T) {
	gw := &mockGateway{}
	svc, store := newPRService(gw)

	for range 3 {
		repo, err := svc.RepoInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testRepo, repo)
	}
	assert.Equal(t, int32(1), gw.repoInfoCalls.Load())

	ttl, ok := store.ttlFor("repo_info")
	require.True(t, ok)
	assert.Equal(t, time.Hour, ttl)
}

func TestPRService_ListPullRequests(t *testing.T) {
	gw := &mockGateway{
		authored: []model.PullRequest{{Number: 1, Title: "mine"}},
		reviewed: []model.PullRequest{{Number: 2, Title: "theirs"}, {Number: 3}},
	}
	svc, store := newPRService(gw)
	ctx := context.Background()

	authored, err := svc.ListPullRequests(ctx, model.PRListAuthored, model.PRStateOpen)
	require.NoError(t, err)
	require.Len(t, authored, 1)
	assert.Equal(t, "mine", authored[0].Title)

	reviewed, err := svc.ListPullRequests(ctx, model.PRListReviewed, model.PRStateOpen)
	require.NoError(t, err)
	assert.Len(t, reviewed, 2)

	_, err = svc.ListPullRequests(ctx, model.PRListAuthored, model.PRStateOpen)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.listCalls.Load(), "third call is served from cache")

	ttl, ok := store.ttlFor("pr_list")
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestPRService_ListErrorNotCached(t *testing.T) {
	gw := &mockGateway{listErr: apperrors.Gateway(502, "down", nil)}
	svc, _ := newPRService(gw)
	ctx := context.Background()

	_, err := svc.ListPullRequests(ctx, model.PRListAuthored, model.PRStateAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGateway)

	gw.listErr = nil
	gw.authored = []model.PullRequest{{Number: 9}}
	prs, err := svc.ListPullRequests(ctx, model.PRListAuthored, model.PRStateAll)
	require.NoError(t, err)
	assert.Len(t, prs, 1)
}

func TestPRService_GetPullRequestDetail(t *testing.T) {
	gw := &mockGateway{detail: pr42()}
	svc, store := newPRService(gw)
	ctx := context.Background()

	detail, err := svc.GetPullRequestDetail(ctx, 42, false)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)

	cached, err := svc.GetPullRequestDetail(ctx, 42, false)
	require.NoError(t, err)
	assert.Equal(t, detail.Comments[0].ID, cached.Comments[0].ID)
	assert.True(t, detail.CreatedAt.Equal(cached.CreatedAt))
	assert.Equal(t, int32(1), gw.detailCalls.Load())

	withResolved, err := svc.GetPullRequestDetail(ctx, 42, true)
	require.NoError(t, err)
	assert.Len(t, withResolved.Comments, 2)
	assert.Equal(t, int32(2), gw.detailCalls.Load())

	ttl, ok := store.ttlFor("pr_detail")
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, ttl)
}

func TestPRService_GetPullRequestDetailNotFound(t *testing.T) {
	gw := &mockGateway{detail: nil}
	svc, _ := newPRService(gw)

	_, err := svc.GetPullRequestDetail(context.Background(), 999, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "999", appErr.ResourceID)

	// Not-found is an error, so it is never cached.
	_, _ = svc.GetPullRequestDetail(context.Background(), 999, false)
	assert.Equal(t, int32(2), gw.detailCalls.Load())
}

func TestPRService_GetPullRequestDetailRejectsBadNumber(t *testing.T) {
	gw := &mockGateway{}
	svc, _ := newPRService(gw)

	_, err := svc.GetPullRequestDetail(context.Background(), 0, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, gw.detailCalls.Load())
}

func TestPRService_RepoInfoFailurePropagates(t *testing.T) {
	gw := &mockGateway{repoErr: apperrors.Gateway(500, "not a git repository", nil)}
	svc, _ := newPRService(gw)

	_, err := svc.GetPullRequestDetail(context.Background(), 1, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGateway)
	assert.Zero(t, gw.detailCalls.Load())
}

func TestPRService_WithoutMemoizer(t *testing.T) {
	gw := &mockGateway{detail: pr42()}
	svc := application.NewPRService(gw, nil, discardLogger())

	_, err := svc.GetPullRequestDetail(context.Background(), 42, false)
	require.NoError(t, err)
	_, err = svc.GetPullRequestDetail(context.Background(), 42, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.detailCalls.Load())
}
