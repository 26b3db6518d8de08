package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// errorBody is the JSON error envelope returned by every API endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Email   string `json:"email,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and JSON body. Server-side failures are
// logged with the request path; client errors are logged at info.
// Internal details never reach the client for 5xx responses.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	body := errorBody{Error: http.StatusText(status)}

	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation:
			body.Error = "Validation error"
			body.Message = e.Message
		case KindDuplicateAccount:
			body.Error = "Email already registered"
			body.Email = e.Email
		case KindNotFound, KindInvalidCredentials:
			body.Error = e.Message
			if body.Error == "" {
				body.Error = sentinels[e.Kind].Error()
			}
		case KindUpstreamGeneration:
			body.Error = "Internal error"
			body.Message = "Meal plan generation failed"
		default:
			body.Error = "Internal error"
			body.Message = "An unexpected error occurred"
		}
	} else {
		body.Error = "Internal error"
		body.Message = "An unexpected error occurred"
	}

	if log != nil {
		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", status),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}
	}

	WriteJSON(w, status, body)
}
