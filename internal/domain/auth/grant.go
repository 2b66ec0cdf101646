package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "ping-auth-server/pkg/errors"
)

// GenerateAuthorizationCode issues a single-use code that clientID can trade
// for a token on behalf of userID within AuthorizationCodeTTL.
func (s *AuthService) GenerateAuthorizationCode(ctx context.Context, userID int64, clientID, scope string) (*AuthorizationCodeResult, error) {
	client, err := s.clients.GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, apperrors.NewUnknownClientError("")
		}
		return nil, apperrors.NewDependencyError(err)
	}

	code, err := s.newSecret()
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	grant := AuthorizationGrant{
		UserID:   userID,
		ClientID: client.ClientID,
		Scope:    optional(scope),
	}
	if err := s.codes.SaveAuthCode(ctx, code, grant, s.codeTTL); err != nil {
		return nil, apperrors.NewDependencyError(err)
	}

	s.metrics.CodeIssued()
	s.log.Debug("authorization code issued",
		zap.Int64("user_id", userID),
		zap.String("client_id", client.ClientID))

	return &AuthorizationCodeResult{
		RedirectURI:       client.RedirectURI,
		AuthorizationCode: code,
	}, nil
}

// ExchangeCodeForToken redeems a code. The code is consumed before any other
// check, so a failed exchange still burns it.
func (s *AuthService) ExchangeCodeForToken(ctx context.Context, req *TokenExchangeRequest) (resp *TokenResponse, err error) {
	defer func() { s.metrics.CodeExchange(outcome(err)) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	grant, err := s.codes.ConsumeAuthCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return nil, apperrors.NewInvalidOrExpiredCodeError()
		}
		return nil, apperrors.NewDependencyError(err)
	}

	client, err := s.clients.GetClientByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, apperrors.NewUnknownClientError("")
		}
		return nil, apperrors.NewDependencyError(err)
	}
	if client.ClientSecretHash == "" {
		return nil, apperrors.NewUnknownClientError("")
	}

	if err := s.hasher.Compare(client.ClientSecretHash, req.ClientSecret); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, apperrors.NewInvalidClientSecretError()
		}
		return nil, apperrors.WrapInternal(err)
	}

	if grant.ClientID != req.ClientID {
		s.log.Warn("authorization code presented by another client",
			zap.String("issued_to", grant.ClientID),
			zap.String("presented_by", req.ClientID))
		return nil, apperrors.NewClientMismatchError()
	}

	user, err := s.users.GetUserByID(ctx, grant.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError()
		}
		return nil, apperrors.NewDependencyError(err)
	}

	var profile *UserProfile
	if HasScope(grant.Scope, "profile") {
		profile, err = s.users.GetProfile(ctx, user.ID)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return nil, apperrors.NewDependencyError(err)
		}
	}

	return s.tokenResponse(user, profile)
}
