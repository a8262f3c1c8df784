package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("payment", nil), http.StatusNotFound},
		{BadRequest("bad", nil), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{Forbidden("forbidden"), http.StatusForbidden},
		{Conflict("taken", nil), http.StatusConflict},
		{TooManyRequests("slow down"), http.StatusTooManyRequests},
		{Unavailable("gateway down", nil), http.StatusBadGateway},
		{Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestAsUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", Forbidden("forbidden"))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrForbidden, appErr.Code)
	assert.True(t, Is(wrapped, ErrForbidden))
	assert.False(t, Is(fmt.Errorf("plain"), ErrForbidden))
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(fmt.Errorf("pq: connection refused"))
	assert.Equal(t, "internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}
