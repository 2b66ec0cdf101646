package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "ping-auth-server/pkg/errors"
)

// RegisterClient creates a client application owned by ownerID. The returned
// secret is never retrievable again; only its hash is stored.
func (s *AuthService) RegisterClient(ctx context.Context, ownerID int64, req *RegisterClientRequest) (*ClientCredentials, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if _, err := s.users.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError()
		}
		return nil, apperrors.NewDependencyError(err)
	}

	clientID, err := s.newSecret()
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	secret, secretHash, err := s.mintClientSecret()
	if err != nil {
		return nil, err
	}

	client := &ClientApplication{
		Name:             req.Name,
		Description:      optional(req.Description),
		ClientID:         clientID,
		ClientSecretHash: secretHash,
		RedirectURI:      req.RedirectURI,
		OwnerID:          &ownerID,
	}
	if err := s.clients.CreateClient(ctx, client); err != nil {
		return nil, apperrors.NewDependencyError(err)
	}

	s.log.Info("client application registered",
		zap.Int64("owner_id", ownerID),
		zap.String("client_id", clientID))
	return &ClientCredentials{ClientApplication: *client, ClientSecret: secret}, nil
}

// RotateClientSecret replaces the secret of a client owned by ownerID.
func (s *AuthService) RotateClientSecret(ctx context.Context, ownerID, id int64) (*ClientCredentials, error) {
	client, err := s.clients.GetClientByID(ctx, id)
	if err != nil && !errors.Is(err, ErrClientNotFound) {
		return nil, apperrors.NewDependencyError(err)
	}
	if err != nil || client.OwnerID == nil || *client.OwnerID != ownerID {
		return nil, apperrors.NewUnknownClientError("client application not found or you do not have permission to update it")
	}

	secret, secretHash, err := s.mintClientSecret()
	if err != nil {
		return nil, err
	}
	if err := s.clients.UpdateClientSecret(ctx, client.ID, secretHash); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, apperrors.NewUnknownClientError("")
		}
		return nil, apperrors.NewDependencyError(err)
	}
	client.ClientSecretHash = secretHash

	s.log.Info("client secret rotated", zap.String("client_id", client.ClientID))
	return &ClientCredentials{ClientApplication: *client, ClientSecret: secret}, nil
}

func (s *AuthService) mintClientSecret() (secret, hash string, err error) {
	secret, err = s.newSecret()
	if err != nil {
		return "", "", apperrors.WrapInternal(err)
	}
	hash, err = s.hasher.Hash(secret)
	if err != nil {
		return "", "", apperrors.WrapInternal(err)
	}
	return secret, hash, nil
}
