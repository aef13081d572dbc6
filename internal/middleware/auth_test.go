package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hms-service/internal/tenantdb"
	"hms-service/pkg/config"
	"hms-service/pkg/jwtutil"
)

const testSigningKey = "gate-test-key"

func testJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey: testSigningKey,
		Leeway:     60 * time.Second,
		ModuleName: "hms",
	})
}

func testRegistry(open tenantdb.OpenFunc) *tenantdb.Registry {
	if open == nil {
		open = func(tenantdb.StoreConfig) (*gorm.DB, error) { return &gorm.DB{}, nil }
	}
	return tenantdb.NewRegistry(
		&config.DBConfig{Host: "localhost", Port: "5432", User: "app", DBName: "hms_shared", SSLMode: "disable"},
		&config.TenantConfig{DBNamePrefix: "tenant_", ProvisionRetries: 1},
		open,
		func(*gorm.DB) error { return nil },
		zap.NewNop(),
	)
}

func tokenFor(t *testing.T, tenantID string, mutate func(*jwtutil.Claims)) string {
	t.Helper()
	claims := &jwtutil.Claims{
		UserID:         "user-1",
		Email:          "user@clinic.test",
		TenantID:       tenantID,
		TenantSlug:     "city-hospital",
		EnabledModules: []string{"hms"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return token
}

func doRequest(gate *AuthGate, path, authHeader string, inner echo.HandlerFunc) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if inner == nil {
		inner = func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	}
	_ = gate.Middleware(inner)(c)
	return rec, c
}

func TestGateSkipsPublicPaths(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)

	for _, path := range []string{"/health", "/metrics", "/api/auth/login"} {
		rec, _ := doRequest(gate, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGateRejectsMissingHeader(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	rec, _ := doRequest(gate, "/api/patients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateRejectsMalformedHeader(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	rec, _ := doRequest(gate, "/api/patients", "Token abcdef", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateRejectsInvalidToken(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	rec, _ := doRequest(gate, "/api/patients", "Bearer not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	token := tokenFor(t, "tenant-a", func(c *jwtutil.Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Minute))
	})
	rec, _ := doRequest(gate, "/api/patients", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}

func TestGateRejectsDisabledModule(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	token := tokenFor(t, "tenant-a", func(c *jwtutil.Claims) {
		c.EnabledModules = []string{"lab"}
	})
	rec, _ := doRequest(gate, "/api/patients", "Bearer "+token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGateFailsClosedOnStoreError(t *testing.T) {
	registry := testRegistry(func(tenantdb.StoreConfig) (*gorm.DB, error) {
		return nil, errors.New("connection refused")
	})
	gate := NewAuthGate(testJWT(), registry, nil)

	token := tokenFor(t, "tenant-a", nil)
	rec, _ := doRequest(gate, "/api/patients", "Bearer "+token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGateBindsIdentityAndTenant(t *testing.T) {
	gate := NewAuthGate(testJWT(), testRegistry(nil), nil)
	token := tokenFor(t, "tenant-a", nil)

	var sawStore string
	rec, c := doRequest(gate, "/api/patients", "Bearer "+token, func(c echo.Context) error {
		ident := IdentityFrom(c)
		require.NotNil(t, ident)
		assert.Equal(t, "user-1", ident.UserID)
		assert.Equal(t, "tenant-a", ident.TenantID)

		tc := TenantFrom(c)
		require.NotNil(t, tc)
		sawStore = tc.Store.Name

		// The tenant context is also threaded through the request context.
		assert.NotNil(t, tenantdb.FromContext(c.Request().Context()))
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant_tenant-a", sawStore)

	// Bindings are cleared before the pooled context is reused.
	assert.Nil(t, IdentityFrom(c))
	assert.Nil(t, TenantFrom(c))
}

func TestGateIsolatesTenants(t *testing.T) {
	registry := testRegistry(nil)
	gate := NewAuthGate(testJWT(), registry, nil)

	stores := map[string]string{}
	for _, tenant := range []string{"tenant-a", "tenant-b"} {
		token := tokenFor(t, tenant, nil)
		rec, _ := doRequest(gate, "/api/patients", "Bearer "+token, func(c echo.Context) error {
			stores[c.Get("tenant_context").(*tenantdb.Context).TenantID] = TenantFrom(c).Store.Name
			return c.String(http.StatusOK, "ok")
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, "tenant_tenant-a", stores["tenant-a"])
	assert.Equal(t, "tenant_tenant-b", stores["tenant-b"])
	assert.NotEqual(t, stores["tenant-a"], stores["tenant-b"])
}
