package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// CommentService posts replies to review comments.
type CommentService struct {
	gateway driven.GitHubGateway
	repos   RepoInfoSource
	logger  *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(gateway driven.GitHubGateway, repos RepoInfoSource, logger *slog.Logger) *CommentService {
	return &CommentService{gateway: gateway, repos: repos, logger: logger}
}

// AddReply validates the input and replies to the review comment with REST id
// commentID on PR prNumber. The body is trimmed before posting.
func (s *CommentService) AddReply(ctx context.Context, prNumber int, commentID, body string) (*model.CreatedReply, error) {
	if _, err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}
	body, err := ValidateCommentBody(body)
	if err != nil {
		return nil, err
	}
	if _, err := ValidateCommentID(commentID); err != nil {
		return nil, err
	}

	s.logger.Info("posting reply", "pr", prNumber, "comment_id", commentID)

	repo, err := s.repos.RepoInfo(ctx)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.AddReplyToComment(ctx, repo, prNumber, commentID, body)
	if err != nil {
		s.logger.Error("post reply failed", "pr", prNumber, "comment_id", commentID, "error", err)
		return nil, fmt.Errorf("reply to comment %s on PR #%d: %w", commentID, prNumber, err)
	}

	s.logger.Info("reply posted", "pr", prNumber, "comment_id", commentID, "reply_id", reply.ID)
	return reply, nil
}
