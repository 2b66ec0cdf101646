package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"ping-auth-server/internal/domain/auth"
	"ping-auth-server/internal/resource"
	"ping-auth-server/internal/token"
	apperrors "ping-auth-server/pkg/errors"
)

const (
	jwtSecret    = "0123456789abcdef0123456789abcdef"
	clientID     = "c1"
	clientSecret = "c1-secret"
	otherClient  = "c2"
	otherSecret  = "c2-secret"
	redirectURI  = "https://app.example.com/callback"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type memUsers struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]auth.User
	profiles map[int64]auth.UserProfile
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]auth.User{}, profiles: map[int64]auth.UserProfile{}}
}

func (m *memUsers) CreateUser(_ context.Context, user *auth.User, profile *auth.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return auth.ErrUserExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt, user.UpdatedAt = now, now
	m.byID[user.ID] = *user
	if profile != nil {
		profile.UserID = user.ID
		m.profiles[user.ID] = *profile
	}
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) GetProfile(_ context.Context, userID int64) (*auth.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	return &p, nil
}

func (m *memUsers) delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	delete(m.profiles, id)
}

type memClients struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]auth.ClientApplication
}

func newMemClients() *memClients {
	return &memClients{byID: map[int64]auth.ClientApplication{}}
}

func (m *memClients) GetClientByClientID(_ context.Context, id string) (*auth.ClientApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.ClientID == id {
			return &c, nil
		}
	}
	return nil, auth.ErrClientNotFound
}

func (m *memClients) GetClientByID(_ context.Context, id int64) (*auth.ClientApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrClientNotFound
	}
	return &c, nil
}

func (m *memClients) CreateClient(_ context.Context, c *auth.ClientApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.byID[c.ID] = *c
	return nil
}

func (m *memClients) UpdateClientSecret(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return auth.ErrClientNotFound
	}
	c.ClientSecretHash = hash
	m.byID[id] = c
	return nil
}

type stubVerifier struct {
	profile *auth.FederatedProfile
	err     error
}

func (s stubVerifier) Verify(context.Context, string) (*auth.FederatedProfile, error) {
	return s.profile, s.err
}

type countingHasher struct {
	auth.PasswordHasher
	compares *atomic.Int32
}

func (h countingHasher) Compare(hash, password string) error {
	h.compares.Add(1)
	return h.PasswordHasher.Compare(hash, password)
}

type env struct {
	svc      *auth.AuthService
	users    *memUsers
	clients  *memClients
	redis    *miniredis.Miniredis
	issuer   *token.Issuer
	hasher   *auth.BcryptHasher
	compares atomic.Int32
}

func newEnv(t *testing.T, verifier auth.IdentityVerifier) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := &env{
		users:   newMemUsers(),
		clients: newMemClients(),
		redis:   mr,
		issuer:  token.NewIssuer(jwtSecret, token.WithClock(func() time.Time { return now })),
		hasher:  auth.NewBcryptHasher(bcrypt.MinCost),
	}
	if verifier == nil {
		verifier = stubVerifier{err: errors.New("no verifier configured")}
	}
	e.svc = auth.NewAuthService(auth.Dependencies{
		Users:     e.users,
		Clients:   e.clients,
		Codes:     auth.NewCodeStore(resource.Ready(client)),
		Hasher:    countingHasher{PasswordHasher: e.hasher, compares: &e.compares},
		Tokens:    e.issuer,
		Verifier:  verifier,
		Validator: auth.NewValidator(validator.New()),
	}, zaptest.NewLogger(t))

	e.addClient(t, clientID, clientSecret, nil)
	e.addClient(t, otherClient, otherSecret, nil)
	return e
}

func (e *env) addClient(t *testing.T, id, secret string, owner *int64) {
	t.Helper()
	hash, err := e.hasher.Hash(secret)
	require.NoError(t, err)
	require.NoError(t, e.clients.CreateClient(context.Background(), &auth.ClientApplication{
		Name:             id,
		ClientID:         id,
		ClientSecretHash: hash,
		RedirectURI:      redirectURI,
		OwnerID:          owner,
	}))
}

func (e *env) register(t *testing.T, email, password, fullName string) int64 {
	t.Helper()
	resp, err := e.svc.Register(context.Background(), &auth.RegisterRequest{Email: email, Password: password, FullName: fullName})
	require.NoError(t, err)
	return resp.ID
}

func kindOf(err error) apperrors.Kind {
	return apperrors.KindOf(err)
}

func TestRegisterDuplicateEmailIsCaseInsensitive(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	first, err := e.svc.Register(ctx, &auth.RegisterRequest{Email: "Jane@Example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", first.Email)

	_, err = e.svc.Register(ctx, &auth.RegisterRequest{Email: "JANE@example.COM", Password: "other"})
	assert.Equal(t, apperrors.KindConflict, kindOf(err))
}

func TestRegisterStoresHashAndProfile(t *testing.T) {
	e := newEnv(t, nil)

	id := e.register(t, "jane@example.com", "pw", "  Jane Doe ")

	user, err := e.users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.NotEqual(t, "pw", user.PasswordHash)
	assert.NoError(t, e.hasher.Compare(user.PasswordHash, "pw"))

	profile, err := e.users.GetProfile(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Jane Doe", *profile.FullName)
	assert.Nil(t, profile.AvatarURL)
}

func TestRegisterPasswordOverByteLimit(t *testing.T) {
	e := newEnv(t, nil)

	// 40 runes, 80 bytes.
	_, err := e.svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "jane@example.com",
		Password: strings.Repeat("é", 40),
	})
	assert.Equal(t, apperrors.KindValidation, kindOf(err))
	assert.Empty(t, e.users.byID)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.Register(context.Background(), &auth.RegisterRequest{Email: "not-an-email", Password: "pw"})
	assert.Equal(t, apperrors.KindValidation, kindOf(err))
}

func TestLoginTokenMatchesUser(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")

	resp, err := e.svc.Login(context.Background(), &auth.LoginRequest{Email: "jane@example.com", Password: "pw"})
	require.NoError(t, err)

	claims, err := e.issuer.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, auth.UserPayload{ID: id, Email: "jane@example.com", Role: auth.RoleUser}, resp.User)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	_, wrongPassword := e.svc.Login(ctx, &auth.LoginRequest{Email: "jane@example.com", Password: "nope"})
	_, unknownEmail := e.svc.Login(ctx, &auth.LoginRequest{Email: "ghost@example.com", Password: "pw"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, apperrors.KindInvalidCredentials, kindOf(wrongPassword))
	assert.Equal(t, kindOf(wrongPassword), kindOf(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginUnknownEmailStillComparesHash(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	e.compares.Store(0)
	_, err := e.svc.Login(ctx, &auth.LoginRequest{Email: "ghost@example.com", Password: "pw"})
	assert.Equal(t, apperrors.KindInvalidCredentials, kindOf(err))
	assert.Equal(t, int32(1), e.compares.Load())

	_, err = e.svc.Login(ctx, &auth.LoginRequest{Email: "jane@example.com", Password: "nope"})
	assert.Equal(t, apperrors.KindInvalidCredentials, kindOf(err))
	assert.Equal(t, int32(2), e.compares.Load())
}

func TestLoginMalformedEmailIsInvalidCredentials(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.Login(context.Background(), &auth.LoginRequest{Email: "not-an-email", Password: "pw"})
	assert.Equal(t, apperrors.KindInvalidCredentials, kindOf(err))
}

func TestRegisterThenLoginWithDifferentCase(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "a@B.com", "pw", "")

	resp, err := e.svc.Login(context.Background(), &auth.LoginRequest{Email: "A@b.com", Password: "pw"})
	require.NoError(t, err)

	claims, err := e.issuer.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ID)
	assert.Equal(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time)
}

func TestProcessLoginWithoutClientReturnsToken(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "jane@example.com", "pw", "")

	resp, err := e.svc.ProcessLogin(context.Background(), &auth.LoginRequest{Email: "jane@example.com", Password: "pw"}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Empty(t, resp.RedirectURI)
}

func TestProcessLoginWithClientRedirects(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "jane@example.com", "pw", "")

	resp, err := e.svc.ProcessLogin(context.Background(),
		&auth.LoginRequest{Email: "jane@example.com", Password: "pw"},
		&auth.OAuthContext{ClientID: clientID, Scope: "profile"})
	require.NoError(t, err)

	assert.Empty(t, resp.AccessToken)
	assert.Nil(t, resp.User)

	u, err := url.Parse(resp.RedirectURI)
	require.NoError(t, err)
	code := u.Query().Get("code")
	assert.Len(t, code, 64)
	assert.Equal(t, redirectURI, u.Scheme+"://"+u.Host+u.Path)

	key := "oauth:code:" + code
	assert.True(t, e.redis.Exists(key))
	assert.Equal(t, 10*time.Minute, e.redis.TTL(key))
}

func TestProcessLoginBadPasswordDoesNotIssueCode(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "jane@example.com", "pw", "")

	_, err := e.svc.ProcessLogin(context.Background(),
		&auth.LoginRequest{Email: "jane@example.com", Password: "nope"},
		&auth.OAuthContext{ClientID: clientID})

	assert.Equal(t, apperrors.KindInvalidCredentials, kindOf(err))
	assert.Empty(t, e.redis.Keys())
}

func TestGenerateAuthorizationCodeUnknownClient(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.GenerateAuthorizationCode(context.Background(), 1, "nope", "")
	assert.Equal(t, apperrors.KindUnknownClient, kindOf(err))
}

func TestExchangeCodeOnlyOnce(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)
	assert.Equal(t, redirectURI, issued.RedirectURI)

	req := &auth.TokenExchangeRequest{Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret}
	resp, err := e.svc.ExchangeCodeForToken(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.User.ID)
	assert.Nil(t, resp.User.Profile)

	_, err = e.svc.ExchangeCodeForToken(ctx, req)
	assert.Equal(t, apperrors.KindInvalidOrExpiredCode, kindOf(err))
}

func TestExchangeCodeAfterExpiry(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)

	e.redis.FastForward(10*time.Minute + time.Second)

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
	})
	assert.Equal(t, apperrors.KindInvalidOrExpiredCode, kindOf(err))
}

func TestExchangeNeverIssuedCode(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.ExchangeCodeForToken(context.Background(), &auth.TokenExchangeRequest{
		Code: "deadbeef", ClientID: clientID, ClientSecret: clientSecret,
	})
	assert.Equal(t, apperrors.KindInvalidOrExpiredCode, kindOf(err))
}

func TestExchangeByAnotherClientFails(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: otherClient, ClientSecret: otherSecret,
	})
	assert.Equal(t, apperrors.KindClientMismatch, kindOf(err))

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
	})
	assert.Equal(t, apperrors.KindInvalidOrExpiredCode, kindOf(err), "a failed exchange still consumes the code")
}

func TestExchangeWrongSecret(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: "guess",
	})
	assert.Equal(t, apperrors.KindInvalidClientSecret, kindOf(err))
}

func TestExchangeUnknownClient(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: "ghost", ClientSecret: "x",
	})
	assert.Equal(t, apperrors.KindUnknownClient, kindOf(err))
}

func TestExchangeUserDeletedAfterIssuance(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)
	e.users.delete(id)

	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
	})
	assert.Equal(t, apperrors.KindUserNotFound, kindOf(err))
}

func TestExchangeWithProfileScope(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "Jane Doe")
	require.Equal(t, int64(1), id)
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, 1, clientID, "profile")
	require.NoError(t, err)

	resp, err := e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.User.Profile)
	require.NotNil(t, resp.User.Profile.FullName)
	assert.Equal(t, "Jane Doe", *resp.User.Profile.FullName)
	assert.Nil(t, resp.User.Profile.AvatarURL)

	claims, err := e.issuer.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.ID)
}

func TestExchangeProfileScopeWithoutProfile(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	user := &auth.User{Email: "bare@example.com", Role: auth.RoleUser}
	require.NoError(t, e.users.CreateUser(ctx, user, nil))

	issued, err := e.svc.GenerateAuthorizationCode(ctx, user.ID, clientID, "email,profile")
	require.NoError(t, err)

	resp, err := e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.User.Profile)
}

func TestConcurrentExchangeSucceedsOnce(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	issued, err := e.svc.GenerateAuthorizationCode(ctx, id, clientID, "")
	require.NoError(t, err)

	const attempts = 25
	var successes, expired, other atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
				Code: issued.AuthorizationCode, ClientID: clientID, ClientSecret: clientSecret,
			})
			switch {
			case err == nil:
				successes.Add(1)
			case kindOf(err) == apperrors.KindInvalidOrExpiredCode:
				expired.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), expired.Load())
	assert.Zero(t, other.Load())
}

func TestCodeCacheUnavailable(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	e.redis.Close()

	_, err := e.svc.GenerateAuthorizationCode(context.Background(), id, clientID, "")
	assert.Equal(t, apperrors.KindDependencyUnavailable, kindOf(err))
}

func TestLoginWithOAuth(t *testing.T) {
	e := newEnv(t, nil)
	id := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	resp, err := e.svc.LoginWithOAuth(ctx, id, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, id, resp.User.ID)

	resp, err = e.svc.LoginWithOAuth(ctx, id, &auth.OAuthContext{ClientID: clientID})
	require.NoError(t, err)
	assert.Empty(t, resp.AccessToken)
	assert.Contains(t, resp.RedirectURI, redirectURI+"?code=")

	_, err = e.svc.LoginWithOAuth(ctx, 404, nil)
	assert.Equal(t, apperrors.KindUserNotFound, kindOf(err))

	_, err = e.svc.LoginWithOAuth(ctx, id, &auth.OAuthContext{ClientID: "ghost"})
	assert.Equal(t, apperrors.KindUnknownClient, kindOf(err))
}

func TestLoginWithGoogleProvisionsUser(t *testing.T) {
	e := newEnv(t, stubVerifier{profile: &auth.FederatedProfile{
		Subject:       "g-1",
		Email:         "New.User@Gmail.com",
		EmailVerified: true,
		Name:          " New User ",
		Picture:       "https://lh3.googleusercontent.com/a/new",
	}})
	ctx := context.Background()

	resp, err := e.svc.LoginWithGoogle(ctx, &auth.GoogleLoginRequest{TokenID: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, "new.user@gmail.com", resp.User.Email)
	assert.Equal(t, auth.RoleUser, resp.User.Role)

	profile, err := e.users.GetProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "New User", *profile.FullName)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/new", *profile.AvatarURL)

	user, err := e.users.GetUserByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)

	again, err := e.svc.LoginWithGoogle(ctx, &auth.GoogleLoginRequest{TokenID: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)
}

func TestLoginWithGoogleAdoptsPasswordAccount(t *testing.T) {
	e := newEnv(t, stubVerifier{profile: &auth.FederatedProfile{Email: "jane@example.com", EmailVerified: true}})
	id := e.register(t, "Jane@Example.com", "pw", "")

	resp, err := e.svc.LoginWithGoogle(context.Background(), &auth.GoogleLoginRequest{TokenID: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, id, resp.User.ID)
}

func TestLoginWithGoogleFailures(t *testing.T) {
	cases := []struct {
		name     string
		verifier stubVerifier
		token    string
		want     apperrors.Kind
	}{
		{
			name:  "missing token",
			token: " ",
			want:  apperrors.KindInvalidFederatedCredential,
		},
		{
			name:     "rejected token",
			verifier: stubVerifier{err: auth.ErrFederatedRejected},
			token:    "id-token",
			want:     apperrors.KindInvalidFederatedCredential,
		},
		{
			name:     "missing email",
			verifier: stubVerifier{profile: &auth.FederatedProfile{EmailVerified: true}},
			token:    "id-token",
			want:     apperrors.KindInvalidFederatedCredential,
		},
		{
			name:     "unverified email",
			verifier: stubVerifier{profile: &auth.FederatedProfile{Email: "a@b.com"}},
			token:    "id-token",
			want:     apperrors.KindInvalidFederatedCredential,
		},
		{
			name:     "provider unreachable",
			verifier: stubVerifier{err: errors.New("dial tcp: i/o timeout")},
			token:    "id-token",
			want:     apperrors.KindDependencyUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, tc.verifier)
			_, err := e.svc.LoginWithGoogle(context.Background(), &auth.GoogleLoginRequest{TokenID: tc.token})
			assert.Equal(t, tc.want, kindOf(err))
			assert.Empty(t, e.users.byID)
		})
	}
}

func TestRegisterClientAndRotateSecret(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "pw", "")
	user := e.register(t, "jane@example.com", "pw", "")
	ctx := context.Background()

	creds, err := e.svc.RegisterClient(ctx, owner, &auth.RegisterClientRequest{
		Name:        "Dashboard",
		RedirectURI: "https://dash.example.com/cb",
	})
	require.NoError(t, err)
	assert.Len(t, creds.ClientID, 64)
	assert.Len(t, creds.ClientSecret, 64)
	assert.NoError(t, e.hasher.Compare(creds.ClientSecretHash, creds.ClientSecret))

	_, err = e.svc.RotateClientSecret(ctx, user, creds.ID)
	assert.Equal(t, apperrors.KindUnknownClient, kindOf(err))

	rotated, err := e.svc.RotateClientSecret(ctx, owner, creds.ID)
	require.NoError(t, err)
	assert.NotEqual(t, creds.ClientSecret, rotated.ClientSecret)

	issued, err := e.svc.GenerateAuthorizationCode(ctx, user, creds.ClientID, "")
	require.NoError(t, err)
	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: creds.ClientID, ClientSecret: creds.ClientSecret,
	})
	assert.Equal(t, apperrors.KindInvalidClientSecret, kindOf(err))

	issued, err = e.svc.GenerateAuthorizationCode(ctx, user, creds.ClientID, "")
	require.NoError(t, err)
	_, err = e.svc.ExchangeCodeForToken(ctx, &auth.TokenExchangeRequest{
		Code: issued.AuthorizationCode, ClientID: creds.ClientID, ClientSecret: rotated.ClientSecret,
	})
	assert.NoError(t, err)
}

func TestRotateSecretOfUnownedClient(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "pw", "")

	existing, err := e.clients.GetClientByClientID(context.Background(), clientID)
	require.NoError(t, err)
	require.Nil(t, existing.OwnerID)

	_, err = e.svc.RotateClientSecret(context.Background(), owner, existing.ID)
	assert.Equal(t, apperrors.KindUnknownClient, kindOf(err))
}

func TestRegisterClientUnknownOwner(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.RegisterClient(context.Background(), 404, &auth.RegisterClientRequest{
		Name:        "Dashboard",
		RedirectURI: "https://dash.example.com/cb",
	})
	assert.Equal(t, apperrors.KindUserNotFound, kindOf(err))
}
