package superadmin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-service/pkg/config"
)

func clientFor(baseURL string) *Client {
	return NewClient(&config.SuperAdminConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tokens":{"access":"jwt-token","refresh":"refresh"},"user":{"email":"user@clinic.test"}}`))
	}))
	defer srv.Close()

	resp, err := clientFor(srv.URL).Login(context.Background(), "user@clinic.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Tokens.Access)
	assert.Equal(t, "refresh", resp.Tokens.Refresh)
	assert.Equal(t, "user@clinic.test", resp.User["email"])
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := clientFor(srv.URL).Login(context.Background(), "user@clinic.test", "wrong")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := clientFor(srv.URL).Login(context.Background(), "user@clinic.test", "secret")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginMissingAccessToken(t *testing.T) {
	for name, body := range map[string]string{
		"no tokens object": `{"user":{"email":"user@clinic.test"}}`,
		"empty access":     `{"tokens":{"access":"","refresh":"refresh"}}`,
		"flat token field": `{"token":"jwt-token","refresh_token":"refresh"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := clientFor(srv.URL).Login(context.Background(), "user@clinic.test", "secret")
			assert.ErrorIs(t, err, ErrLoginFailed)
		})
	}
}

func TestLoginProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := clientFor(srv.URL).Login(context.Background(), "user@clinic.test", "secret")
	assert.ErrorIs(t, err, ErrUnavailable)
}
