package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditTestContext(t *testing.T) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/patients/1", nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestAuditStatusCommittedResponse(t *testing.T) {
	c := auditTestContext(t)
	require.NoError(t, c.JSON(http.StatusCreated, echo.Map{"id": 1}))

	assert.Equal(t, http.StatusCreated, auditStatus(c, nil))
}

func TestAuditStatusFromHTTPError(t *testing.T) {
	c := auditTestContext(t)
	err := echo.NewHTTPError(http.StatusNotFound, "patient not found")

	assert.Equal(t, http.StatusNotFound, auditStatus(c, err))
}

func TestAuditStatusFromWrappedHTTPError(t *testing.T) {
	c := auditTestContext(t)
	err := fmt.Errorf("handler: %w", echo.NewHTTPError(http.StatusConflict, "already booked"))

	assert.Equal(t, http.StatusConflict, auditStatus(c, err))
}

func TestAuditStatusPlainErrorMapsToInternal(t *testing.T) {
	c := auditTestContext(t)

	assert.Equal(t, http.StatusInternalServerError, auditStatus(c, errors.New("boom")))
}

func TestAuditStatusCommittedWinsOverError(t *testing.T) {
	c := auditTestContext(t)
	require.NoError(t, c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed"}))

	assert.Equal(t, http.StatusForbidden, auditStatus(c, errors.New("already answered")))
}
