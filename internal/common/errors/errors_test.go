package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeMissingHeaders, http.StatusBadRequest},
		{ErrCodeInvalidSignature, http.StatusUnauthorized},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnsupportedInteraction, http.StatusBadRequest},
		{ErrCodeGiveawayNotFound, http.StatusNotFound},
		{ErrCodeDiscordAPI, http.StatusBadGateway},
		{ErrCodeStore, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus())
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(io.EOF, ErrCodeStore, "load")

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "[STORE_ERROR] load: EOF", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := NewDiscordAPIError("patch message", 503, "unavailable")
	wrapped := fmt.Errorf("draw: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, appErr)
	assert.True(t, HasCode(wrapped, ErrCodeDiscordAPI))
	assert.True(t, appErr.IsUpstream())
	assert.Equal(t, 503, StatusOf(wrapped))

	_, ok = AsAppError(io.EOF)
	assert.False(t, ok)
	assert.Equal(t, 0, StatusOf(io.EOF))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, New(ErrCodeInvalidSignature, "").IsAuth())
	assert.False(t, New(ErrCodeValidation, "").IsAuth())
	assert.True(t, NewGiveawayNotFoundError("1").IsNotFound())
	assert.Equal(t, "1", NewGiveawayNotFoundError("1").Details["giveaway_id"])
}
