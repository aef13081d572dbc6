package handler

import (
	"net/http"
	"time"

	"hms-service/internal/middleware"
	"hms-service/internal/model"
	"hms-service/internal/tenantdb"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler exposes superadmin-only views over the tenant registry
type TenantHandler struct {
	registry *tenantdb.Registry
	router   *tenantdb.Router
}

// NewTenantHandler creates a tenant admin handler
func NewTenantHandler(registry *tenantdb.Registry, router *tenantdb.Router) *TenantHandler {
	return &TenantHandler{registry: registry, router: router}
}

// ListTenants returns the tenants known to the shared store together with
// which ones have a live store in this process. Superadmin only.
func (h *TenantHandler) ListTenants(c echo.Context) error {
	log := logger.FromContext(c)

	ident := middleware.IdentityFrom(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !ident.IsSuperAdmin {
		prometheus.RecordPermissionDenied("tenants", "list")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	shared, err := h.router.ResolveStore(tenantdb.Shared, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "shared store unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenants []model.Tenant
	if err := shared.DB.Order("created_at desc").Find(&tenants).Error; err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list tenants"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenants":           tenants,
		"registered_stores": h.registry.StoreNames(),
	})
}
