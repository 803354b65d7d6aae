package application_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewchecker/internal/application"
	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

func TestValidatePRState(t *testing.T) {
	got, err := application.ValidatePRState("MERGED")
	require.NoError(t, err)
	assert.Equal(t, model.PRStateMerged, got)

	_, err = application.ValidatePRState("bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	appErr, _ := apperrors.As(err)
	assert.Equal(t, "state", appErr.Field)
}

func TestValidatePRType(t *testing.T) {
	got, err := application.ValidatePRType("Reviewed")
	require.NoError(t, err)
	assert.Equal(t, model.PRListReviewed, got)

	_, err = application.ValidatePRType("starred")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidatePRNumber(t *testing.T) {
	n, err := application.ValidatePRNumber(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, bad := range []int{0, -3} {
		_, err := application.ValidatePRNumber(bad)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestValidateCommentBody(t *testing.T) {
	got, err := application.ValidateCommentBody("  looks good  ")
	require.NoError(t, err)
	assert.Equal(t, "looks good", got)

	atLimit := strings.Repeat("é", application.MaxCommentBodyLength)
	_, err = application.ValidateCommentBody(atLimit)
	require.NoError(t, err, "the limit counts characters, not bytes")

	_, err = application.ValidateCommentBody(atLimit + "x")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = application.ValidateCommentBody("\n\t ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidateCommentID(t *testing.T) {
	_, err := application.ValidateCommentID("1234567890")
	require.NoError(t, err)

	for _, bad := range []string{"", "abc", "12 3", "-1", "PRRC_kw"} {
		_, err := application.ValidateCommentID(bad)
		assert.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
}
