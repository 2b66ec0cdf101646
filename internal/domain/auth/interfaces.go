package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrClientNotFound    = errors.New("client application not found")
	ErrCodeNotFound      = errors.New("authorization code not found")
	ErrPasswordMismatch  = errors.New("password mismatch")
	ErrPasswordTooLong   = errors.New("password exceeds 72 bytes")
	ErrFederatedRejected = errors.New("federated credential rejected")
)

type Validator interface {
	Validate(interface{}) error
}

type UserRepository interface {
	// CreateUser stores user and profile together and fills in user.ID.
	CreateUser(ctx context.Context, user *User, profile *UserProfile) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)
}

type ClientRepository interface {
	GetClientByClientID(ctx context.Context, clientID string) (*ClientApplication, error)
	GetClientByID(ctx context.Context, id int64) (*ClientApplication, error)
	CreateClient(ctx context.Context, client *ClientApplication) error
	UpdateClientSecret(ctx context.Context, id int64, secretHash string) error
}

// CodeStore holds authorization grants between issuance and redemption.
type CodeStore interface {
	SaveAuthCode(ctx context.Context, code string, grant AuthorizationGrant, ttl time.Duration) error
	// ConsumeAuthCode returns and removes the grant in one atomic step.
	ConsumeAuthCode(ctx context.Context, code string) (*AuthorizationGrant, error)
}

type PasswordHasher interface {
	// Hash returns ErrPasswordTooLong when password does not fit the hash input.
	Hash(password string) (string, error)
	// Compare returns ErrPasswordMismatch when password does not match hash.
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(user *User) (string, error)
}

// IdentityVerifier validates a federated identity token. Tokens the provider
// rejects are reported wrapped in ErrFederatedRejected.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*FederatedProfile, error)
}

type Recorder interface {
	Registration(outcome string)
	Login(method, outcome string)
	CodeIssued()
	CodeExchange(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) Registration(string)  {}
func (noopRecorder) Login(string, string) {}
func (noopRecorder) CodeIssued()          {}
func (noopRecorder) CodeExchange(string)  {}
