package middleware

import (
	"errors"
	"net/http"
	"time"

	"hms-service/internal/model"
	"hms-service/internal/tenantdb"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditMiddleware records the outcome of every authenticated request in the
// shared store. Unauthenticated traffic (skip-list paths, rejected tokens) is
// not audited here.
func AuditMiddleware(shared *tenantdb.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ident := IdentityFrom(c)
			if ident == nil {
				return err
			}

			requestID, _ := c.Get("request_id").(string)
			entry := model.AuditLog{
				TenantID:  ident.TenantID,
				UserID:    ident.UserID,
				Method:    c.Request().Method,
				Path:      c.Request().URL.Path,
				Status:    auditStatus(c, err),
				RequestID: requestID,
				ClientIP:  c.RealIP(),
			}

			defer prometheus.TrackDBOperation("audit_create")(time.Now())
			if dbErr := shared.DB.Create(&entry).Error; dbErr != nil {
				// Auditing must not fail the request.
				logger.FromContext(c).Error("Failed to write audit log", zap.Error(dbErr))
			}

			return err
		}
	}
}

// auditStatus resolves the status code a request will answer with. When the
// handler returned an error that has not been committed yet, the echo error
// handler runs after this middleware, so the code comes from the error itself.
func auditStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
