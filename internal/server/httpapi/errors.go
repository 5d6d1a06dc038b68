package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// apiError carries a status and a message that is safe to show the client.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &apiError{status: http.StatusBadRequest, code: code, message: message}
}

var errInvalidCredentials = badRequest("invalid_credentials", "incorrect email or password")

// errorResponse maps err onto a status code and client-facing body. Details
// of unexpected errors are never exposed.
func errorResponse(err error) (int, errorDetail) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, errorDetail{Code: ae.code, Message: ae.message}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorDetail{Code: "validation_error", Message: validationMessage(ve)}
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, errorDetail{Code: "validation_error", Message: publicMessage(err, common.ErrorValidation)}
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, errorDetail{Code: "already_exists", Message: publicMessage(err, common.ErrorAlreadyExists)}
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusBadRequest, errorDetail{Code: "invalid_token", Message: "invalid or expired refresh token"}
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, errorDetail{Code: "unauthorized", Message: "not authenticated"}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorDetail{Code: "not_found", Message: "not found"}
	case errors.Is(err, common.ErrorRateLimited):
		return http.StatusTooManyRequests, errorDetail{Code: "rate_limited", Message: "too many requests"}
	default:
		return http.StatusInternalServerError, errorDetail{Code: "internal_error", Message: "internal server error"}
	}
}

// publicMessage returns the text services attach after "<sentinel>: ".
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}

func validationMessage(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fe.Field()+": failed "+fe.Tag()+"="+fe.Param())
			continue
		}
		parts = append(parts, fe.Field()+": failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func writeError(w http.ResponseWriter, status int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
