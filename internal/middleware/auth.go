package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hms-service/internal/authz"
	"hms-service/internal/tenantdb"
	"hms-service/pkg/jwtutil"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DefaultSkipPaths lists the path prefixes served without authentication
var DefaultSkipPaths = []string{
	"/health",
	"/metrics",
	"/docs",
	"/static",
	"/media",
	"/api/auth/login",
}

// AuthGate verifies the bearer token on every request outside the skip list,
// resolves the tenant store and binds identity and tenant context into the
// request. Requests that fail any step never reach a handler.
type AuthGate struct {
	jwt       *jwtutil.JWTUtil
	registry  *tenantdb.Registry
	skipPaths []string
}

// NewAuthGate creates the authentication gate. A nil skipPaths uses
// DefaultSkipPaths.
func NewAuthGate(jwt *jwtutil.JWTUtil, registry *tenantdb.Registry, skipPaths []string) *AuthGate {
	if skipPaths == nil {
		skipPaths = DefaultSkipPaths
	}
	return &AuthGate{jwt: jwt, registry: registry, skipPaths: skipPaths}
}

// Middleware returns the echo middleware function for the gate
func (g *AuthGate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		for _, skip := range g.skipPaths {
			if strings.HasPrefix(path, skip) {
				return next(c)
			}
		}

		log := logger.FromContext(c)

		header := c.Request().Header.Get("Authorization")
		if header == "" {
			log.Warn("Missing authorization header")
			prometheus.RecordAuthError("missing_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		if len(header) <= 7 || !strings.EqualFold(header[0:7], "Bearer ") {
			log.Warn("Malformed authorization header")
			prometheus.RecordAuthError("malformed_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		tokenString := header[7:]

		claims, err := g.jwt.ValidateToken(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, jwtutil.ErrTokenExpired):
				log.Warn("Expired token", zap.Error(err))
				prometheus.RecordAuthError("expired")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			case errors.Is(err, jwtutil.ErrModuleNotEnabled):
				log.Warn("Module not enabled for tenant", zap.Error(err))
				prometheus.RecordAuthError("module_disabled")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "module not enabled"})
			default:
				log.Warn("Invalid token", zap.Error(err))
				prometheus.RecordAuthError("invalid")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
		}

		store, err := g.registry.Resolve(c.Request().Context(), tenantdb.TenantInfo{
			ID:          claims.TenantID,
			Slug:        claims.TenantSlug,
			DatabaseURL: claims.DatabaseURL,
		})
		if err != nil {
			// Fail closed: a tenant whose store cannot be reached gets no
			// fallback to any other store.
			log.Error("Tenant store resolution failed",
				zap.String("tenant_id", claims.TenantID),
				zap.Error(err))
			prometheus.RecordAuthError("store_unavailable")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant store unavailable"})
		}
		prometheus.UpdateTenantStores(len(g.registry.StoreNames()))

		ident := authz.IdentityFromClaims(claims)
		tc := &tenantdb.Context{
			TenantID:   claims.TenantID,
			TenantSlug: claims.TenantSlug,
			Store:      store,
		}

		log = log.With(
			zap.String("user_id", ident.UserID),
			zap.String("email", ident.Email),
			zap.String("tenant_id", tc.TenantID),
			zap.String("tenant_slug", tc.TenantSlug),
		)

		req := c.Request()
		ctx := tenantdb.WithContext(req.Context(), tc)
		ctx = logger.WithLogger(ctx, log)
		c.SetRequest(req.WithContext(ctx))

		c.Set("identity", ident)
		c.Set("tenant_context", tc)
		c.Set("logger", log)

		// Echo pools contexts across requests; clear the bindings so nothing
		// from this tenant survives into the next request.
		defer func() {
			c.Set("identity", nil)
			c.Set("tenant_context", nil)
		}()

		prometheus.RecordAuthSuccess()
		return next(c)
	}
}

// IdentityFrom returns the authenticated identity bound to the request, or nil
func IdentityFrom(c echo.Context) *authz.Identity {
	ident, _ := c.Get("identity").(*authz.Identity)
	return ident
}

// TenantFrom returns the tenant context bound to the request, or nil
func TenantFrom(c echo.Context) *tenantdb.Context {
	tc, _ := c.Get("tenant_context").(*tenantdb.Context)
	return tc
}
