package handler

import (
	"errors"
	"net/http"

	"hms-service/internal/authz"
	"hms-service/internal/collection"
	"hms-service/internal/middleware"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// requestScope pulls the identity and tenant store bound by the auth gate.
// When either is missing the request never passed the gate; respond 401 and
// return a nil db so the caller bails out.
func requestScope(c echo.Context) (*authz.Identity, *gorm.DB, error) {
	ident := middleware.IdentityFrom(c)
	tc := middleware.TenantFrom(c)
	if ident == nil || tc == nil || tc.Store == nil {
		prometheus.RecordTenantContextMissing()
		logger.FromContext(c).Warn("Request reached handler without tenant context")
		return nil, nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return ident, tc.Store.DB, nil
}

// collectionError maps collection layer failures onto HTTP responses. Records
// outside the caller's view scope already surface as not-found from the
// collection, so a 404 here never confirms existence.
func collectionError(c echo.Context, resource, action string, err error) error {
	log := logger.FromContext(c)
	switch {
	case errors.Is(err, collection.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": resource + " not found"})
	case errors.Is(err, collection.ErrNotAuthorized):
		log.Warn("Permission denied",
			zap.String("resource", resource),
			zap.String("action", action))
		prometheus.RecordPermissionDenied(resource, action)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	default:
		log.Error("Database operation failed",
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
