package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// Memoization TTLs for the three reads.
const (
	RepoInfoTTL = time.Hour
	PRListTTL   = 5 * time.Minute
	PRDetailTTL = 2 * time.Minute
)

// Cache key prefixes, one per memoized operation.
const (
	opRepoInfo = "repo_info"
	opPRList   = "pr_list"
	opPRDetail = "pr_detail"
)

// PRService serves the dashboard's GitHub reads through the memoizer.
type PRService struct {
	gateway driven.GitHubGateway
	logger  *slog.Logger

	repoInfo func(context.Context) (model.RepoInfo, error)
	list     func(context.Context, model.PRListType, model.PRState) ([]model.PullRequest, error)
	detail   func(context.Context, int, bool) (*model.PRDetail, error)
}

// NewPRService creates a PRService. memo may be nil, which disables caching.
func NewPRService(gateway driven.GitHubGateway, memo *Memoizer, logger *slog.Logger) *PRService {
	s := &PRService{gateway: gateway, logger: logger}

	s.repoInfo = Memoize0(memo, opRepoInfo, RepoInfoTTL, gateway.RepoInfo)
	s.list = Memoize2(memo, opPRList, PRListTTL, [2]string{"pr_type", "state"}, s.fetchList)
	s.detail = Memoize2(memo, opPRDetail, PRDetailTTL, [2]string{"pr_number", "include_resolved"}, s.fetchDetail)

	return s
}

// RepoInfo returns the repository the dashboard is bound to.
func (s *PRService) RepoInfo(ctx context.Context) (model.RepoInfo, error) {
	repo, err := s.repoInfo(ctx)
	if err != nil {
		return model.RepoInfo{}, fmt.Errorf("resolve repository: %w", err)
	}
	return repo, nil
}

// ListPullRequests lists authored or reviewed PRs in the given state.
func (s *PRService) ListPullRequests(ctx context.Context, listType model.PRListType, state model.PRState) ([]model.PullRequest, error) {
	return s.list(ctx, listType, state)
}

// GetPullRequestDetail returns the aggregated detail for PR number. It
// returns an apperrors NotFound error when the PR does not exist.
func (s *PRService) GetPullRequestDetail(ctx context.Context, number int, includeResolved bool) (*model.PRDetail, error) {
	if _, err := ValidatePRNumber(number); err != nil {
		return nil, err
	}
	return s.detail(ctx, number, includeResolved)
}

func (s *PRService) fetchList(ctx context.Context, listType model.PRListType, state model.PRState) ([]model.PullRequest, error) {
	s.logger.Info("listing pull requests", "type", listType, "state", state)

	repo, err := s.RepoInfo(ctx)
	if err != nil {
		return nil, err
	}

	var prs []model.PullRequest
	if listType == model.PRListReviewed {
		prs, err = s.gateway.ListReviewedPullRequests(ctx, repo, state)
	} else {
		prs, err = s.gateway.ListAuthoredPullRequests(ctx, repo, state)
	}
	if err != nil {
		s.logger.Error("list pull requests failed", "type", listType, "state", state, "error", err)
		return nil, fmt.Errorf("list %s pull requests: %w", listType, err)
	}

	s.logger.Info("listed pull requests", "type", listType, "count", len(prs))
	return prs, nil
}

func (s *PRService) fetchDetail(ctx context.Context, number int, includeResolved bool) (*model.PRDetail, error) {
	s.logger.Info("fetching pull request detail", "pr", number, "include_resolved", includeResolved)

	repo, err := s.RepoInfo(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.gateway.FetchPullRequestDetail(ctx, repo, number)
	if err != nil {
		s.logger.Error("fetch pull request detail failed", "pr", number, "error", err)
		return nil, fmt.Errorf("fetch PR #%d: %w", number, err)
	}

	detail, err := AggregatePullRequest(raw, number, includeResolved)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetched pull request detail",
		"pr", number,
		"comments", len(detail.Comments),
		"commits", len(detail.Commits),
	)
	return detail, nil
}
