package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an operational error. Every kind maps to a stable HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindInvalidCredentials
	KindConflict
	KindUnknownClient
	KindInvalidClientSecret
	KindClientMismatch
	KindInvalidOrExpiredCode
	KindUserNotFound
	KindInvalidFederatedCredential
	KindInvalidToken
	KindDependencyUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:                   "internal",
	KindValidation:                 "validation",
	KindBadRequest:                 "bad_request",
	KindInvalidCredentials:         "invalid_credentials",
	KindConflict:                   "conflict",
	KindUnknownClient:              "unknown_client",
	KindInvalidClientSecret:        "invalid_client_secret",
	KindClientMismatch:             "client_mismatch",
	KindInvalidOrExpiredCode:       "invalid_or_expired_code",
	KindUserNotFound:               "user_not_found",
	KindInvalidFederatedCredential: "invalid_federated_credential",
	KindInvalidToken:               "invalid_token",
	KindDependencyUnavailable:      "dependency_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status the boundary layer should answer with.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindBadRequest, KindUnknownClient, KindClientMismatch, KindInvalidOrExpiredCode:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindInvalidClientSecret, KindInvalidFederatedCredential, KindInvalidToken:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindUserNotFound:
		return http.StatusNotFound
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type returned across the service boundary.
// Message is safe to show to callers; Err holds the cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return defaultMessage(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	return e.Kind.Status()
}

// KindOf reports the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == kind
}

func defaultMessage(k Kind) string {
	switch k {
	case KindInternal:
		return "internal server error"
	case KindDependencyUnavailable:
		return "service temporarily unavailable"
	default:
		return http.StatusText(k.Status())
	}
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewBadRequestError(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func NewInvalidCredentialsError() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewUnknownClientError(message string) *Error {
	if message == "" {
		message = "client application not found"
	}
	return &Error{Kind: KindUnknownClient, Message: message}
}

func NewInvalidClientSecretError() *Error {
	return &Error{Kind: KindInvalidClientSecret, Message: "invalid client secret"}
}

func NewClientMismatchError() *Error {
	return &Error{Kind: KindClientMismatch, Message: "authorization code belongs to a different client"}
}

func NewInvalidOrExpiredCodeError() *Error {
	return &Error{Kind: KindInvalidOrExpiredCode, Message: "invalid or expired authorization code"}
}

func NewUserNotFoundError() *Error {
	return &Error{Kind: KindUserNotFound, Message: "user not found"}
}

func NewInvalidFederatedCredentialError(message string, cause error) *Error {
	return &Error{Kind: KindInvalidFederatedCredential, Message: message, Err: cause}
}

func NewInvalidTokenError(cause error) *Error {
	return &Error{Kind: KindInvalidToken, Message: "invalid or expired token", Err: cause}
}

// NewDependencyError hides the cause behind a generic message; the cause stays reachable via Unwrap.
func NewDependencyError(cause error) *Error {
	return &Error{Kind: KindDependencyUnavailable, Err: cause}
}

func NewInternalError() *Error {
	return &Error{Kind: KindInternal}
}

// WrapInternal keeps the cause of an unexpected failure for logging.
func WrapInternal(cause error) *Error {
	return &Error{Kind: KindInternal, Err: cause}
}
