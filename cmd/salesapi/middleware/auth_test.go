package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helcity/homesales/cmd/salesapi/models"
)

func TestExtractActor(t *testing.T) {
	e := echo.New()

	handler := ExtractActor()(func(c echo.Context) error {
		return c.String(http.StatusOK, GetActor(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "sales-1")
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, "sales-1", rec.Body.String())
}

func TestExtractActor_MissingHeader(t *testing.T) {
	e := echo.New()

	handler := ExtractActor()(func(c echo.Context) error {
		return c.String(http.StatusOK, GetActor(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Empty(t, rec.Body.String())
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, models.AuditCreate, operationFor(http.MethodPost))
	assert.Equal(t, models.AuditUpdate, operationFor(http.MethodPut))
	assert.Equal(t, models.AuditUpdate, operationFor(http.MethodPatch))
	assert.Equal(t, models.AuditDelete, operationFor(http.MethodDelete))
	assert.Equal(t, models.AuditRead, operationFor(http.MethodGet))
}
