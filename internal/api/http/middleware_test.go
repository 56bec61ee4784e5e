package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

func newMiddlewareApp(metrics *observability.Metrics, limiter *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), metrics)})
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/ok", limiter.Handle, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewBookingConflict("slot taken", []string{"ZM-20260302-0001"})
	})
	app.Get("/race", func(c *fiber.Ctx) error { return repository.ErrRaceLost })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("disk on fire") })
	return app
}

func call(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	errBody, _ := body["error"].(map[string]any)
	return resp.StatusCode, errBody
}

func TestErrorRendering(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics, nil)

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/conflict", http.StatusUnprocessableEntity, "BOOKING_CONFLICT"},
		{"/race", http.StatusConflict, "RACE_LOST"},
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/plain", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/missing", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			status, errBody := call(t, app, tc.path)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, errBody["code"])
		})
	}

	_, errBody := call(t, app, "/conflict")
	details, _ := errBody["details"].(map[string]any)
	assert.NotEmpty(t, details["conflicts"])

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Errors["/conflict|GET|BOOKING_CONFLICT"])
	assert.Equal(t, int64(1), snap.Requests["/race|GET|409"])
}

func TestRateLimiterPerCaller(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	require.NotNil(t, limiter)
	app := newMiddlewareApp(nil, limiter)

	for i := 0; i < 2; i++ {
		status, _ := call(t, app, "/ok")
		assert.Equal(t, http.StatusOK, status)
	}
	status, errBody := call(t, app, "/ok")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errBody["code"])
}

func TestRateLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(config.RateLimitConfig{}))
	app := newMiddlewareApp(nil, nil)
	for i := 0; i < 5; i++ {
		status, _ := call(t, app, "/ok")
		assert.Equal(t, http.StatusOK, status)
	}
}
