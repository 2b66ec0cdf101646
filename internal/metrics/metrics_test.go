package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login("password", "success")
	m.Login("password", "invalid_credentials")
	m.Login("password", "invalid_credentials")
	m.CodeIssued()
	m.CodeExchange("invalid_or_expired_code")
	m.Registration("conflict")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("password", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("password", "invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codesIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codeExchanges.WithLabelValues("invalid_or_expired_code")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("conflict")))
}
