package jwtutil

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"hms-service/pkg/config"
)

// Validation errors. The middleware maps these to distinct HTTP outcomes:
// expired and invalid tokens are authentication failures (401), a valid token
// for a tenant without the HMS module is an authorization failure (403).
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrModuleNotEnabled = errors.New("module not enabled for tenant")
)

// Claims represents the SuperAdmin-issued JWT claims.
//
// Permission values are either booleans (create/edit/delete capabilities) or
// one of the scope strings "all", "team", "own", "none" (view capabilities).
type Claims struct {
	UserID         string                 `json:"user_id"`
	Email          string                 `json:"email"`
	TenantID       string                 `json:"tenant_id"`
	TenantSlug     string                 `json:"tenant_slug"`
	IsSuperAdmin   bool                   `json:"is_super_admin,omitempty"`
	Permissions    map[string]interface{} `json:"permissions,omitempty"`
	EnabledModules []string               `json:"enabled_modules"`
	DatabaseURL    string                 `json:"database_url,omitempty"`
	jwt.RegisteredClaims
}

// JWTUtil validates SuperAdmin-issued tokens. Validation is local: only the
// shared signing key is needed, no call to SuperAdmin is made per request.
type JWTUtil struct {
	config *config.JWTConfig
	parser *jwt.Parser
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: cfg,
		// Leeway absorbs clock drift between SuperAdmin and this service.
		parser: jwt.NewParser(jwt.WithLeeway(cfg.Leeway)),
	}
}

// ValidateToken verifies the token signature and expiry and checks that all
// required claims are present and that the HMS module is enabled for the
// tenant. It is a pure function of the token, the configured key and the clock.
func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := j.parser.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if err := claims.checkRequired(); err != nil {
		return nil, err
	}

	if !claims.ModuleEnabled(j.config.ModuleName) {
		return nil, ErrModuleNotEnabled
	}

	return claims, nil
}

// checkRequired verifies the claims SuperAdmin always issues are present.
func (c *Claims) checkRequired() error {
	required := []struct {
		name  string
		value string
	}{
		{"user_id", c.UserID},
		{"email", c.Email},
		{"tenant_id", c.TenantID},
		{"tenant_slug", c.TenantSlug},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: missing required claim: %s", ErrInvalidToken, r.name)
		}
	}
	if c.EnabledModules == nil {
		return fmt.Errorf("%w: missing required claim: enabled_modules", ErrInvalidToken)
	}
	return nil
}

// ModuleEnabled reports whether the given module is enabled for the tenant
func (c *Claims) ModuleEnabled(module string) bool {
	for _, m := range c.EnabledModules {
		if m == module {
			return true
		}
	}
	return false
}
