package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.7 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.True(t, isTrusted("10.20.30.40", nets))
	assert.True(t, isTrusted("192.0.2.7", nets))
	assert.False(t, isTrusted("192.0.2.8", nets))
	assert.True(t, isTrusted("::1", nets))
	assert.False(t, isTrusted("not-an-ip", nets))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestTrustedRealIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.1"})
	require.NoError(t, err)

	var seen string
	h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientIP(r)
	}))

	serve := func(remote, forwarded string) string {
		req := httptest.NewRequest(http.MethodPost, "/login/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		h.ServeHTTP(httptest.NewRecorder(), req)
		return seen
	}

	assert.Equal(t, "203.0.113.9", serve("10.0.0.1:4000", "203.0.113.9"), "trusted proxy forwards the client")
	assert.Equal(t, "198.51.100.4", serve("198.51.100.4:4000", "203.0.113.9"), "direct clients cannot spoof")
	assert.Equal(t, "198.51.100.4", serve("198.51.100.4:4000", ""), "no header")
}
