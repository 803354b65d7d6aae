package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// RepoInfoSource resolves the current repository. PRService satisfies it.
type RepoInfoSource interface {
	RepoInfo(ctx context.Context) (model.RepoInfo, error)
}

// CheckService manages the "handled" checkbox state of review comments.
// Every mutation is audit-logged.
type CheckService struct {
	store  driven.CommentCheckStore
	repos  RepoInfoSource
	logger *slog.Logger
}

// NewCheckService creates a CheckService.
func NewCheckService(store driven.CommentCheckStore, repos RepoInfoSource, logger *slog.Logger) *CheckService {
	return &CheckService{store: store, repos: repos, logger: logger}
}

// Get returns the check state of a comment. A comment with no record is
// unchecked.
func (s *CheckService) Get(ctx context.Context, prNumber int, commentID string) (model.CheckState, error) {
	if err := validateCheckKey(prNumber, commentID); err != nil {
		return model.CheckState{}, err
	}

	check, err := s.store.Get(ctx, prNumber, commentID)
	if err != nil {
		return model.CheckState{}, fmt.Errorf("get check state for PR #%d comment %s: %w", prNumber, commentID, err)
	}
	if check == nil {
		return model.CheckState{}, nil
	}
	return check.State(), nil
}

// Set records isChecked for a comment, creating the record on first use.
// The repository is captured at creation time.
func (s *CheckService) Set(ctx context.Context, prNumber int, commentID string, isChecked bool) (*model.CommentCheck, error) {
	if err := validateCheckKey(prNumber, commentID); err != nil {
		return nil, err
	}

	repo, err := s.repos.RepoInfo(ctx)
	if err != nil {
		return nil, err
	}

	check, err := s.store.Upsert(ctx, model.CommentCheck{
		PRNumber:  prNumber,
		CommentID: commentID,
		RepoOwner: repo.Owner,
		RepoName:  repo.Name,
		IsChecked: isChecked,
	})
	if err != nil {
		s.logger.Error("check state write failed", "pr", prNumber, "comment_id", commentID, "error", err)
		return nil, fmt.Errorf("set check state for PR #%d comment %s: %w", prNumber, commentID, err)
	}

	s.logger.Info("check state set",
		"pr", prNumber,
		"comment_id", commentID,
		"checked", isChecked,
		"repo", repo.FullName(),
	)
	return check, nil
}

// Clear removes a comment's check record. Clearing an absent record is a
// no-op.
func (s *CheckService) Clear(ctx context.Context, prNumber int, commentID string) error {
	if err := validateCheckKey(prNumber, commentID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, prNumber, commentID); err != nil {
		s.logger.Error("check state delete failed", "pr", prNumber, "comment_id", commentID, "error", err)
		return fmt.Errorf("clear check state for PR #%d comment %s: %w", prNumber, commentID, err)
	}

	s.logger.Info("check state cleared", "pr", prNumber, "comment_id", commentID)
	return nil
}

// GetAllChecked returns the state of every checked comment on the PR, keyed
// by comment id. Unchecked records are omitted.
func (s *CheckService) GetAllChecked(ctx context.Context, prNumber int) (map[string]model.CheckState, error) {
	if _, err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}

	checks, err := s.store.ListChecked(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("list checked comments for PR #%d: %w", prNumber, err)
	}

	states := make(map[string]model.CheckState, len(checks))
	for _, c := range checks {
		states[c.CommentID] = c.State()
	}
	return states, nil
}

// Hydrate fills Comment.Check on every comment of detail with one store
// query.
func (s *CheckService) Hydrate(ctx context.Context, detail *model.PRDetail) error {
	if detail == nil {
		return nil
	}

	states, err := s.GetAllChecked(ctx, detail.Number)
	if err != nil {
		return err
	}

	for i := range detail.Comments {
		detail.Comments[i].Check = states[detail.Comments[i].ID]
	}
	return nil
}

func validateCheckKey(prNumber int, commentID string) error {
	if _, err := ValidatePRNumber(prNumber); err != nil {
		return err
	}
	_, err := ValidateCheckCommentID(commentID)
	return err
}
