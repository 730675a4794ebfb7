package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := New(KindForbidden, 403)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, ErrForbidden.Error(), err.Message)
}

func TestAPIError_WithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{Kind: KindNetworkUnavailable, Message: "down", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAPIError_IsMatchesKindOnly(t *testing.T) {
	err := New(KindNotFound, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch projects: %w", New(KindServerError, 502))
	assert.Equal(t, KindServerError, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "username is required", Message(fmt.Errorf("login: %w", Precondition("username is required"))))
}

func TestValidation_FormatsFieldPaths(t *testing.T) {
	err := Validation(422, []FieldError{
		{Loc: []any{"body", "email"}, Msg: "value is not a valid email"},
		{Msg: "bad"},
	})
	assert.Equal(t, KindValidationFailed, err.Kind)
	assert.Equal(t, "input validation failed: body.email: value is not a valid email, bad", err.Message)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidation_NoFields(t *testing.T) {
	err := Validation(422, nil)
	assert.Equal(t, ErrValidationFailed.Error(), err.Message)
}

func TestFieldError_NumericSegments(t *testing.T) {
	f := FieldError{Loc: []any{"body", float64(0), "name"}, Msg: "field required"}
	assert.Equal(t, "body.0.name", f.Path())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindNetworkUnavailable, 0)))
	assert.True(t, IsRetryable(New(KindServerError, 503)))
	assert.False(t, IsRetryable(New(KindUnauthorized, 401)))
	assert.False(t, IsRetryable(Precondition("name required")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
