package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", fmt.Errorf("%w: passwords do not match", common.ErrorValidation), http.StatusBadRequest, "validation_error", "passwords do not match"},
		{"bare validation", common.ErrorValidation, http.StatusBadRequest, "validation_error", "validation error"},
		{"already exists", fmt.Errorf("%w: dup", common.ErrorAlreadyExists), http.StatusBadRequest, "already_exists", "dup"},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized", "not authenticated"},
		{"not found wrapped", fmt.Errorf("loading: %w", common.ErrorNotFound), http.StatusNotFound, "not_found", "not found"},
		{"rate limited", common.ErrorRateLimited, http.StatusTooManyRequests, "rate_limited", "too many requests"},
		{"expired token", common.ErrTokenExpired, http.StatusBadRequest, "invalid_token", "invalid or expired refresh token"},
		{"api error", errInvalidCredentials, http.StatusBadRequest, "invalid_credentials", "incorrect email or password"},
		{"constraint leaks nothing", fmt.Errorf("db error: %w: tasks_user_id_fkey", common.ErrorConstraintViolation), http.StatusInternalServerError, "internal_error", "internal server error"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := errorResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.wantMsg, detail.Message)
		})
	}
}
