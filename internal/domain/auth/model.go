package auth

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserProfile struct {
	UserID    int64   `json:"-"`
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
}

type ClientApplication struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	ClientID         string    `json:"clientId"`
	ClientSecretHash string    `json:"-"`
	RedirectURI      string    `json:"redirectUri"`
	OwnerID          *int64    `json:"ownerId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AuthorizationGrant is what an authorization code stands for while it sits in the cache.
type AuthorizationGrant struct {
	UserID   int64   `json:"userId"`
	ClientID string  `json:"clientId"`
	Scope    *string `json:"scope"`
}

// FederatedProfile is the verified identity returned by an external provider.
type FederatedProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"fullName,omitempty" validate:"omitempty,max=255"`
}

type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// OAuthContext is present when a login is the resource-owner leg of an authorization-code grant.
type OAuthContext struct {
	ClientID string
	Scope    string
}

type GoogleLoginRequest struct {
	TokenID string `json:"tokenId"`
}

type TokenExchangeRequest struct {
	Code         string `json:"code" validate:"required"`
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

type ProfilePayload struct {
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
}

type UserPayload struct {
	ID      int64           `json:"id"`
	Email   string          `json:"email"`
	Role    Role            `json:"role"`
	Profile *ProfilePayload `json:"profile,omitempty"`
}

type TokenResponse struct {
	AccessToken string      `json:"accessToken"`
	User        UserPayload `json:"user"`
}

// LoginResponse carries either a token pair or, inside an authorization-code grant, a redirect target.
type LoginResponse struct {
	AccessToken string       `json:"accessToken,omitempty"`
	User        *UserPayload `json:"user,omitempty"`
	RedirectURI string       `json:"redirectUri,omitempty"`
}

type AuthorizationCodeResult struct {
	RedirectURI       string
	AuthorizationCode string
}

type RegisterClientRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	RedirectURI string `json:"redirectUri" validate:"required,url"`
}

// ClientCredentials is the only shape in which a plaintext client secret ever leaves the service.
type ClientCredentials struct {
	ClientApplication
	ClientSecret string `json:"clientSecret"`
}
