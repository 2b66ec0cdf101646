package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "ping-auth-server/pkg/errors"
)

// LoginWithOAuth bridges a caller already authenticated by bearer token into
// either a fresh token pair or, with a client id, the authorization-code grant.
func (s *AuthService) LoginWithOAuth(ctx context.Context, userID int64, oauth *OAuthContext) (resp *LoginResponse, err error) {
	defer func() { s.metrics.Login("session", outcome(err)) }()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError()
		}
		return nil, apperrors.NewDependencyError(err)
	}

	if oauth != nil && oauth.ClientID != "" {
		return s.redirectWithCode(ctx, user.ID, oauth)
	}

	tokens, err := s.tokenResponse(user, nil)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken: tokens.AccessToken,
		User:        &tokens.User,
	}, nil
}

// LoginWithGoogle signs in the owner of a verified Google identity. An existing
// account with the same email is adopted; otherwise one is provisioned.
func (s *AuthService) LoginWithGoogle(ctx context.Context, req *GoogleLoginRequest) (resp *TokenResponse, err error) {
	defer func() { s.metrics.Login("google", outcome(err)) }()

	token := strings.TrimSpace(req.TokenID)
	if token == "" {
		return nil, apperrors.NewInvalidFederatedCredentialError("google credential is required", nil)
	}

	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrFederatedRejected) {
			return nil, apperrors.NewInvalidFederatedCredentialError("invalid google credential", err)
		}
		return nil, apperrors.NewDependencyError(err)
	}
	if identity == nil || identity.Email == "" {
		return nil, apperrors.NewInvalidFederatedCredentialError("invalid google credential", nil)
	}
	if !identity.EmailVerified {
		return nil, apperrors.NewInvalidFederatedCredentialError("google account email is not verified", nil)
	}

	email := NormalizeEmail(identity.Email)
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.tokenResponse(user, nil)
	case !errors.Is(err, ErrUserNotFound):
		return nil, apperrors.NewDependencyError(err)
	}

	user, err = s.provisionFederatedUser(ctx, email, identity)
	if err != nil {
		return nil, err
	}
	return s.tokenResponse(user, nil)
}

func (s *AuthService) provisionFederatedUser(ctx context.Context, email string, identity *FederatedProfile) (*User, error) {
	// Nobody knows this password; the account is reachable only through the provider
	// until its owner sets one.
	placeholder, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	user := &User{
		Email:        email,
		PasswordHash: placeholder,
		Role:         RoleUser,
	}
	profile := &UserProfile{
		FullName:  optional(identity.Name),
		AvatarURL: optional(identity.Picture),
	}
	if err := s.users.CreateUser(ctx, user, profile); err != nil {
		if !errors.Is(err, ErrUserExists) {
			return nil, apperrors.NewDependencyError(err)
		}
		// A concurrent first login won the insert.
		existing, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NewDependencyError(err)
		}
		return existing, nil
	}

	s.log.Info("user provisioned from federated login",
		zap.Int64("user_id", user.ID),
		zap.String("provider", "google"))
	return user, nil
}
