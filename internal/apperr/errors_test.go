package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindDuplicate:       http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindUpstream:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := ErrForbidden.WithMessage("Only the creator can delete this campaign")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrAuthorizationMismatch))
	assert.Equal(t, "You are not allowed to modify this campaign", ErrForbidden.Message)

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, errors.Is(wrapped, ErrForbidden))
}

func TestFrom(t *testing.T) {
	cause := errors.New("connection refused")
	got := From(cause)
	assert.Equal(t, KindUpstream, got.Kind)
	assert.ErrorIs(t, got, cause)

	known := ErrCampaignNotFound
	assert.Same(t, known, From(fmt.Errorf("lookup: %w", known)))
}
