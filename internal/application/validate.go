package application

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// MaxCommentBodyLength is GitHub's limit on a comment body, in characters.
const MaxCommentBodyLength = 65536

var validate = validator.New()

// init registers the "digits" tag, which accepts only a non-empty run of
// ASCII digits. Reply targets are REST ids and must match it.
func init() {
	err := validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isASCIIDigits(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}
}

// ValidatePRNumber rejects PR numbers below 1.
func ValidatePRNumber(number int) (int, error) {
	if err := validate.Var(number, "gte=1"); err != nil {
		return 0, apperrors.Validation("pr_number", "PR number must be a positive integer")
	}
	return number, nil
}

// ValidatePRState normalizes state case-insensitively.
func ValidatePRState(state string) (model.PRState, error) {
	st, ok := model.ParsePRState(state)
	if !ok {
		return "", apperrors.Validation("state",
			fmt.Sprintf("PR state must be one of open, closed, merged, all; got %q", state))
	}
	return st, nil
}

// ValidatePRType normalizes the list type case-insensitively.
func ValidatePRType(listType string) (model.PRListType, error) {
	t, ok := model.ParsePRListType(listType)
	if !ok {
		return "", apperrors.Validation("type",
			fmt.Sprintf("PR type must be one of authored, reviewed; got %q", listType))
	}
	return t, nil
}

// ValidateCommentBody trims body and checks it is non-empty and within
// GitHub's length limit. It returns the trimmed body.
func ValidateCommentBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if err := validate.Var(trimmed, "required"); err != nil {
		return "", apperrors.Validation("body", "comment body must not be empty")
	}
	if err := validate.Var(trimmed, fmt.Sprintf("max=%d", MaxCommentBodyLength)); err != nil {
		return "", apperrors.Validation("body",
			fmt.Sprintf("comment body must be at most %d characters", MaxCommentBodyLength))
	}
	return trimmed, nil
}

// ValidateCommentID checks that a reply target is present and numeric.
func ValidateCommentID(commentID string) (string, error) {
	if err := validate.Var(commentID, "required"); err != nil {
		return "", apperrors.Validation("comment_id", "comment_id is required")
	}
	if err := validate.Var(commentID, "digits"); err != nil {
		return "", apperrors.Validation("comment_id", "comment_id must be numeric")
	}
	return commentID, nil
}

// ValidateCheckCommentID checks that a check-state key is present. Check
// state is keyed by the opaque node id, so no format is enforced.
func ValidateCheckCommentID(commentID string) (string, error) {
	if err := validate.Var(strings.TrimSpace(commentID), "required"); err != nil {
		return "", apperrors.Validation("comment_id", "comment_id is required")
	}
	return commentID, nil
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
