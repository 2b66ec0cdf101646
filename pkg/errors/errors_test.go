package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:                 http.StatusBadRequest,
		KindInvalidCredentials:         http.StatusUnauthorized,
		KindConflict:                   http.StatusConflict,
		KindUnknownClient:              http.StatusBadRequest,
		KindInvalidClientSecret:        http.StatusUnauthorized,
		KindClientMismatch:             http.StatusBadRequest,
		KindInvalidOrExpiredCode:       http.StatusBadRequest,
		KindUserNotFound:               http.StatusNotFound,
		KindInvalidFederatedCredential: http.StatusUnauthorized,
		KindInvalidToken:               http.StatusUnauthorized,
		KindDependencyUnavailable:      http.StatusServiceUnavailable,
		KindInternal:                   http.StatusInternalServerError,
	}
	for kind, status := range cases {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, status, kind.Status())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("login: %w", NewInvalidCredentialsError())

	assert.Equal(t, KindInvalidCredentials, KindOf(err))
	assert.True(t, Is(err, KindInvalidCredentials))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
}

func TestDependencyErrorHidesCause(t *testing.T) {
	cause := stderrors.New("dial tcp 127.0.0.1:6379: connection refused")
	err := NewDependencyError(cause)

	assert.Equal(t, "service temporarily unavailable", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status())
}
