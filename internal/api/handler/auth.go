// internal/api/handler/auth.go
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ping-auth-server/internal/domain/auth"
)

type AuthService interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*auth.RegisterResponse, error)
	ProcessLogin(ctx context.Context, req *auth.LoginRequest, oauth *auth.OAuthContext) (*auth.LoginResponse, error)
	LoginWithOAuth(ctx context.Context, userID int64, oauth *auth.OAuthContext) (*auth.LoginResponse, error)
	LoginWithGoogle(ctx context.Context, req *auth.GoogleLoginRequest) (*auth.TokenResponse, error)
	ExchangeCodeForToken(ctx context.Context, req *auth.TokenExchangeRequest) (*auth.TokenResponse, error)
}

type AuthHandler struct {
	authService AuthService
	log         *zap.Logger
}

func NewAuthHandler(as AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: as,
		log:         log.Named("http"),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusCreated)
}

// Login answers with a token pair, or with a redirect URI when the query
// names a client application.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.authService.ProcessLogin(r.Context(), &req, oauthContext(r))
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusOK)
}

// SessionLogin continues an authorization-code grant for a caller that already
// holds a bearer token.
func (h *AuthHandler) SessionLogin(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.log, errUnauthenticated)
		return
	}

	resp, err := h.authService.LoginWithOAuth(r.Context(), claims.ID, oauthContext(r))
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusOK)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleLoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.authService.LoginWithGoogle(r.Context(), &req)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusOK)
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req auth.TokenExchangeRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.authService.ExchangeCodeForToken(r.Context(), &req)
	if err != nil {
		WriteError(w, r, h.log, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusOK)
}

func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

func oauthContext(r *http.Request) *auth.OAuthContext {
	q := r.URL.Query()
	clientID := q.Get("clientId")
	if clientID == "" {
		return nil
	}
	return &auth.OAuthContext{
		ClientID: clientID,
		Scope:    q.Get("scope"),
	}
}
