package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentCheckStore = (*CommentCheckRepo)(nil)

var commentCheckColumns = []string{
	"id", "pr_number", "comment_id", "repo_owner", "repo_name",
	"is_checked", "created_at", "updated_at",
}

// CommentCheckRepo is the SQLite implementation of the CommentCheckStore port.
type CommentCheckRepo struct {
	db  *DB
	sq  sq.StatementBuilderType
	now func() time.Time
}

// NewCommentCheckRepo creates a new CommentCheckRepo backed by the given DB.
func NewCommentCheckRepo(db *DB) *CommentCheckRepo {
	return &CommentCheckRepo{
		db:  db,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}
}

// commentCheckRow mirrors a comment_checks row. Timestamps are stored as text.
type commentCheckRow struct {
	ID        int64  `db:"id"`
	PRNumber  int    `db:"pr_number"`
	CommentID string `db:"comment_id"`
	RepoOwner string `db:"repo_owner"`
	RepoName  string `db:"repo_name"`
	IsChecked bool   `db:"is_checked"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r commentCheckRow) toModel() (*model.CommentCheck, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &model.CommentCheck{
		ID:        r.ID,
		PRNumber:  r.PRNumber,
		CommentID: r.CommentID,
		RepoOwner: r.RepoOwner,
		RepoName:  r.RepoName,
		IsChecked: r.IsChecked,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Get returns the check record for the pair, or nil if none exists.
func (r *CommentCheckRepo) Get(ctx context.Context, prNumber int, commentID string) (*model.CommentCheck, error) {
	query, args, err := r.sq.Select(commentCheckColumns...).
		From("comment_checks").
		Where(sq.Eq{"pr_number": prNumber, "comment_id": commentID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get comment check query: %w", err)
	}

	var row commentCheckRow
	if err := r.db.Reader.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment check %d/%s: %w", prNumber, commentID, err)
	}

	return row.toModel()
}

// Upsert inserts the record or, when (pr_number, comment_id) already exists,
// updates is_checked and updated_at in place. The unique index arbitrates
// concurrent first writes: the loser's insert becomes the update.
func (r *CommentCheckRepo) Upsert(ctx context.Context, check model.CommentCheck) (*model.CommentCheck, error) {
	now := formatTime(r.now())

	query, args, err := r.sq.Insert("comment_checks").
		Columns("pr_number", "comment_id", "repo_owner", "repo_name", "is_checked", "created_at", "updated_at").
		Values(check.PRNumber, check.CommentID, check.RepoOwner, check.RepoName, check.IsChecked, now, now).
		Suffix(`ON CONFLICT(pr_number, comment_id) DO UPDATE SET
			is_checked = excluded.is_checked,
			updated_at = excluded.updated_at
			RETURNING id, pr_number, comment_id, repo_owner, repo_name, is_checked, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert comment check query: %w", err)
	}

	tx, err := r.db.Writer.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var row commentCheckRow
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		return nil, fmt.Errorf("upsert comment check %d/%s: %w", check.PRNumber, check.CommentID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit comment check %d/%s: %w", check.PRNumber, check.CommentID, err)
	}

	return row.toModel()
}

// Delete removes the check record. A missing record is a no-op.
func (r *CommentCheckRepo) Delete(ctx context.Context, prNumber int, commentID string) error {
	query, args, err := r.sq.Delete("comment_checks").
		Where(sq.Eq{"pr_number": prNumber, "comment_id": commentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete comment check query: %w", err)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete comment check %d/%s: %w", prNumber, commentID, err)
	}

	return nil
}

// ListChecked returns the checked records for a PR, most recently updated first.
func (r *CommentCheckRepo) ListChecked(ctx context.Context, prNumber int) ([]model.CommentCheck, error) {
	query, args, err := r.sq.Select(commentCheckColumns...).
		From("comment_checks").
		Where(sq.Eq{"pr_number": prNumber, "is_checked": true}).
		OrderBy("updated_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comment checks query: %w", err)
	}

	var rows []commentCheckRow
	if err := r.db.Reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list comment checks for PR %d: %w", prNumber, err)
	}

	checks := make([]model.CommentCheck, 0, len(rows))
	for _, row := range rows {
		check, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("scan comment check: %w", err)
		}
		checks = append(checks, *check)
	}

	return checks, nil
}
