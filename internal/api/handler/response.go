// internal/api/handler/response.go
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	apperrors "ping-auth-server/pkg/errors"
)

// Error wraps error messages for consistent JSON responses
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON sends a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// WriteError maps err onto its status and the {status, message} envelope.
// Errors without a kind are reported as a bare internal error.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.WrapInternal(err)
	}
	status := appErr.Status()

	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("kind", appErr.Kind.String()),
		zap.Int("status", status),
		zap.Error(err),
		zap.NamedError("cause", appErr.Err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Debug("request rejected", fields...)
	}

	WriteJSON(w, r, Error{
		Status:  status,
		Message: appErr.Error(),
	}, status)
}

func decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return apperrors.NewBadRequestError("invalid request payload")
	}
	return nil
}
