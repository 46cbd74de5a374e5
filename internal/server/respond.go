package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	goahttp "goa.design/goa/v3/http"
	goamiddleware "goa.design/goa/v3/middleware"

	apperrors "vendorhub/pkg/errors"
)

// errorBody is the shape of every error response
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON encodes v with the goa response encoder
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := goahttp.ResponseEncoder(ctx, w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// decode reads a JSON request body into v
func decode(r *http.Request, v any) error {
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}

// statusOf maps the error taxonomy onto HTTP status codes
func statusOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}. Internal causes are only exposed in debug mode.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	body := errorBody{Error: "Internal server error"}

	var appErr *apperrors.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		body.Error = appErr.Message
	}
	if status == http.StatusInternalServerError {
		reqID, _ := ctx.Value(goamiddleware.RequestIDKey).(string)
		log.Printf("[API] Internal error (request %s): %v", reqID, err)
		if s.cfg.App.Debug {
			body.Details = err.Error()
		}
	}

	writeJSON(ctx, w, status, body)
}
