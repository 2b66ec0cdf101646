// internal/api/handler/client.go
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ping-auth-server/internal/domain/auth"
	apperrors "ping-auth-server/pkg/errors"
)

type ClientService interface {
	RegisterClient(ctx context.Context, ownerID int64, req *auth.RegisterClientRequest) (*auth.ClientCredentials, error)
	RotateClientSecret(ctx context.Context, ownerID, id int64) (*auth.ClientCredentials, error)
}

// ClientHandler serves the client registry. Every route expects RequireBearer in front of it.
type ClientHandler struct {
	clients ClientService
	log     *zap.Logger
}

func NewClientHandler(cs ClientService, log *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clients: cs,
		log:     log.Named("http"),
	}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.log, errUnauthenticated)
		return
	}

	var req auth.RegisterClientRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	creds, err := h.clients.RegisterClient(r.Context(), claims.ID, &req)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, creds, http.StatusCreated)
}

func (h *ClientHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.log, errUnauthenticated)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, h.log, apperrors.NewBadRequestError("invalid client id"))
		return
	}

	creds, err := h.clients.RotateClientSecret(r.Context(), claims.ID, id)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, creds, http.StatusOK)
}
