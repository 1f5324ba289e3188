package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ravenholt/lorekeep/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error errBody `json:"error"`
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func errorBody(code, msg string) errResponse {
	return errResponse{Error: errBody{Code: code, Message: msg}}
}

// statusFor maps error codes to HTTP statuses. The mapping is the single
// source of truth for transport-level error translation.
func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation, apperr.CodeInvalidContentType:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError renders a coded error with its mapped status.
func writeAppError(w http.ResponseWriter, err *apperr.Error) {
	status := statusFor(err.Code)
	if status == http.StatusInternalServerError {
		slog.Error("content operation failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{Error: errBody{
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}})
}
