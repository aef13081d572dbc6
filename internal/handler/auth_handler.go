package handler

import (
	"errors"
	"net/http"

	"hms-service/pkg/jwtutil"
	"hms-service/pkg/logger"
	"hms-service/pkg/superadmin"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler proxies credential login to the SuperAdmin identity provider.
// The service never verifies passwords itself.
type AuthHandler struct {
	client *superadmin.Client
	jwt    *jwtutil.JWTUtil
}

// NewAuthHandler creates an auth handler backed by the identity provider client
func NewAuthHandler(client *superadmin.Client, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{client: client, jwt: jwt}
}

// Login forwards credentials to the identity provider and relays its tokens
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req superadmin.LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.client.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		prometheus.RecordAuthAttempt("failure")
		if errors.Is(err, superadmin.ErrUnavailable) {
			log.Error("Identity provider unreachable", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login service unavailable"})
		}
		log.Warn("Login rejected", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// The returned token must be usable against this service before we hand
	// it out: same signing key, required claims, hms module enabled.
	if _, err := h.jwt.ValidateToken(resp.Tokens.Access); err != nil {
		prometheus.RecordAuthAttempt("failure")
		log.Error("Provider issued an unusable token", zap.Error(err))
		if errors.Is(err, jwtutil.ErrModuleNotEnabled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "module not enabled"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	prometheus.RecordAuthAttempt("success")
	log.Info("Login succeeded", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated identity bound to the request
func (h *AuthHandler) Me(c echo.Context) error {
	ident, _, err := requestScope(c)
	if ident == nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":         ident.UserID,
		"email":           ident.Email,
		"tenant_id":       ident.TenantID,
		"tenant_slug":     ident.TenantSlug,
		"is_superadmin":   ident.IsSuperAdmin,
		"enabled_modules": ident.EnabledModules,
	})
}
