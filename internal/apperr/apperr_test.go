package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"forumhub/internal/apperr"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(apperr.Validation("empty content")))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(apperr.Forbidden("no permission")))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("plain failure")))

	wrapped := fmt.Errorf("handler: %w", apperr.NotFound("message not found"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(wrapped))
}

func TestUserMessage_HidesInternalCause(t *testing.T) {
	err := apperr.Internal(errors.New("pq: connection refused"))
	assert.Equal(t, "internal server error", apperr.UserMessage(err))
	assert.Equal(t, "message not found", apperr.UserMessage(apperr.NotFound("message not found")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, apperr.HTTPStatus(apperr.Unauthorized("bad token")))
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(apperr.Forbidden("nope")))
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(apperr.NotFound("gone")))
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.Validation("too long")))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(errors.New("boom")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row scan failed")
	err := apperr.Wrap(apperr.KindInternal, "load message", cause)
	assert.True(t, errors.Is(err, cause))
}
