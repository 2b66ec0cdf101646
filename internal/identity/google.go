// Package identity verifies identity tokens issued by external providers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"ping-auth-server/internal/domain/auth"
)

type tokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

type GoogleVerifier struct {
	audience  string
	validator tokenValidator
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("create google token validator: %w", err)
	}
	return &GoogleVerifier{audience: clientID, validator: v}, nil
}

// Verify checks signature, issuer, expiry and audience of a Google ID token.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*auth.FederatedProfile, error) {
	if g.audience == "" {
		return nil, errors.New("google client id is not configured")
	}

	payload, err := g.validator.Validate(ctx, token, g.audience)
	if err != nil {
		if isTransportError(err) {
			return nil, fmt.Errorf("validate google id token: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrFederatedRejected, err)
	}
	return profileFromPayload(payload), nil
}

func profileFromPayload(p *idtoken.Payload) *auth.FederatedProfile {
	return &auth.FederatedProfile{
		Subject:       p.Subject,
		Email:         stringClaim(p.Claims, "email"),
		EmailVerified: boolClaim(p.Claims, "email_verified"),
		Name:          stringClaim(p.Claims, "name"),
		Picture:       stringClaim(p.Claims, "picture"),
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// Google has sent email_verified both as a JSON bool and as a string.
func boolClaim(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
