package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helcity/homesales/common/apperr"
)

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validationf("bad input"), http.StatusBadRequest},
		{"unsupported type", fmt.Errorf("wrapped: %w", apperr.ErrUnsupportedApplicationType), http.StatusBadRequest},
		{"no applications", apperr.ErrProjectHasNoApplications, http.StatusBadRequest},
		{"period not closed", apperr.ErrApplicationPeriodNotClosed, http.StatusBadRequest},
		{"not found", apperr.NotFoundf("reservation 7"), http.StatusNotFound},
		{"invalid transition", fmt.Errorf("%w: SOLD -> RESERVED", apperr.ErrInvalidStateTransition), http.StatusConflict},
		{"concurrency conflict", apperr.ErrConcurrencyConflict, http.StatusServiceUnavailable},
		{"unknown error", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, respondError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRespondError_ConcurrencyConflictIsRetriable(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, respondError(c, fmt.Errorf("add to queue: %w", apperr.ErrConcurrencyConflict)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["retriable"])
}
