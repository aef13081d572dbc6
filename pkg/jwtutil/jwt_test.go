package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-service/pkg/config"
)

const testSigningKey = "test-signing-key"

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SigningKey: testSigningKey,
		Leeway:     60 * time.Second,
		ModuleName: "hms",
	}
}

func validClaims(exp time.Time) *Claims {
	return &Claims{
		UserID:         "user-1",
		Email:          "user@clinic.test",
		TenantID:       "tenant-a",
		TenantSlug:     "city-hospital",
		EnabledModules: []string{"hms"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

func signToken(t *testing.T, claims *Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestValidateTokenSuccess(t *testing.T) {
	util := NewJWTUtil(testConfig())
	token := signToken(t, validClaims(time.Now().Add(time.Hour)), testSigningKey)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-a", claims.TenantID)
	assert.Equal(t, "city-hospital", claims.TenantSlug)
}

func TestValidateTokenWithinLeeway(t *testing.T) {
	util := NewJWTUtil(testConfig())

	// Expired 30s ago but inside the 60s leeway window.
	token := signToken(t, validClaims(time.Now().Add(-30*time.Second)), testSigningKey)

	_, err := util.ValidateToken(token)
	assert.NoError(t, err)
}

func TestValidateTokenExpiredBeyondLeeway(t *testing.T) {
	util := NewJWTUtil(testConfig())
	token := signToken(t, validClaims(time.Now().Add(-90*time.Second)), testSigningKey)

	_, err := util.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenWrongKey(t *testing.T) {
	util := NewJWTUtil(testConfig())
	token := signToken(t, validClaims(time.Now().Add(time.Hour)), "some-other-key")

	_, err := util.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	util := NewJWTUtil(testConfig())

	_, err := util.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMissingRequiredClaims(t *testing.T) {
	util := NewJWTUtil(testConfig())

	for _, tc := range []struct {
		name   string
		mutate func(*Claims)
	}{
		{"user_id", func(c *Claims) { c.UserID = "" }},
		{"email", func(c *Claims) { c.Email = "" }},
		{"tenant_id", func(c *Claims) { c.TenantID = "" }},
		{"tenant_slug", func(c *Claims) { c.TenantSlug = "" }},
		{"enabled_modules", func(c *Claims) { c.EnabledModules = nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			claims := validClaims(time.Now().Add(time.Hour))
			tc.mutate(claims)
			token := signToken(t, claims, testSigningKey)

			_, err := util.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateTokenModuleNotEnabled(t *testing.T) {
	util := NewJWTUtil(testConfig())
	claims := validClaims(time.Now().Add(time.Hour))
	claims.EnabledModules = []string{"lab", "radiology"}
	token := signToken(t, claims, testSigningKey)

	_, err := util.ValidateToken(token)
	assert.ErrorIs(t, err, ErrModuleNotEnabled)
}

func TestValidateTokenCarriesPermissions(t *testing.T) {
	util := NewJWTUtil(testConfig())
	claims := validClaims(time.Now().Add(time.Hour))
	claims.Permissions = map[string]interface{}{
		"hms.patients.view":   "own",
		"hms.patients.create": true,
	}
	token := signToken(t, claims, testSigningKey)

	parsed, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "own", parsed.Permissions["hms.patients.view"])
	assert.Equal(t, true, parsed.Permissions["hms.patients.create"])
}

func TestValidateTokenDatabaseURLOptional(t *testing.T) {
	util := NewJWTUtil(testConfig())
	claims := validClaims(time.Now().Add(time.Hour))
	claims.DatabaseURL = "host=tenant-db port=5432 user=app dbname=custom sslmode=disable"
	token := signToken(t, claims, testSigningKey)

	parsed, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.DatabaseURL)
}
