package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "ping-auth-server/pkg/errors"
)

const (
	AuthorizationCodeTTL = 10 * time.Minute
	codeBytes            = 32
)

type Dependencies struct {
	Users     UserRepository
	Clients   ClientRepository
	Codes     CodeStore
	Hasher    PasswordHasher
	Tokens    TokenIssuer
	Verifier  IdentityVerifier
	Validator Validator
	Metrics   Recorder
}

type AuthService struct {
	users     UserRepository
	clients   ClientRepository
	codes     CodeStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	verifier  IdentityVerifier
	validator Validator
	metrics   Recorder
	log       *zap.Logger

	codeTTL   time.Duration
	newSecret func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps Dependencies, log *zap.Logger) *AuthService {
	if deps.Metrics == nil {
		deps.Metrics = noopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:     deps.Users,
		clients:   deps.Clients,
		codes:     deps.Codes,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		verifier:  deps.Verifier,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		log:       log.Named("auth"),
		codeTTL:   AuthorizationCodeTTL,
		newSecret: randomHex,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (resp *RegisterResponse, err error) {
	defer func() { s.metrics.Registration(outcome(err)) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	email := NormalizeEmail(req.Email)
	_, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.NewConflictError("email already exists")
	case !errors.Is(err, ErrUserNotFound):
		return nil, apperrors.NewDependencyError(err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if errors.Is(err, ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("password: max")
	}
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	user := &User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         RoleUser,
	}
	profile := &UserProfile{FullName: optional(req.FullName)}
	if err := s.users.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, apperrors.NewConflictError("email already exists")
		}
		return nil, apperrors.NewDependencyError(err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return &RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
	}, nil
}

// Login answers an unknown email and a wrong password with the same error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (resp *TokenResponse, err error) {
	defer func() { s.metrics.Login("password", outcome(err)) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.compareDummy(req.Password)
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.NewDependencyError(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.WrapInternal(err)
	}

	return s.tokenResponse(user, nil)
}

// ProcessLogin is Login, except that inside an authorization-code grant it
// answers with the client's redirect URI carrying a fresh code.
func (s *AuthService) ProcessLogin(ctx context.Context, req *LoginRequest, oauth *OAuthContext) (*LoginResponse, error) {
	resp, err := s.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if oauth != nil && oauth.ClientID != "" {
		return s.redirectWithCode(ctx, resp.User.ID, oauth)
	}

	return &LoginResponse{
		AccessToken: resp.AccessToken,
		User:        &resp.User,
	}, nil
}

func (s *AuthService) redirectWithCode(ctx context.Context, userID int64, oauth *OAuthContext) (*LoginResponse, error) {
	result, err := s.GenerateAuthorizationCode(ctx, userID, oauth.ClientID, oauth.Scope)
	if err != nil {
		return nil, err
	}
	redirectURI, err := BuildRedirectURI(result.RedirectURI, result.AuthorizationCode)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	return &LoginResponse{RedirectURI: redirectURI}, nil
}

// compareDummy spends one hash comparison so an unknown email costs as much as a wrong password.
func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

func (s *AuthService) tokenResponse(user *User, profile *UserProfile) (*TokenResponse, error) {
	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	payload := UserPayload{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}
	if profile != nil {
		payload.Profile = &ProfilePayload{
			FullName:  profile.FullName,
			AvatarURL: profile.AvatarURL,
		}
	}

	return &TokenResponse{
		AccessToken: accessToken,
		User:        payload,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BuildRedirectURI appends code to baseURI, keeping any query it already has.
func BuildRedirectURI(baseURI, code string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HasScope reports whether a comma or space separated scope string lists want.
func HasScope(scope *string, want string) bool {
	if scope == nil {
		return false
	}
	fields := strings.FieldsFunc(*scope, func(r rune) bool {
		return r == ',' || r == ' '
	})
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

func randomHex() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOf(err).String()
}
