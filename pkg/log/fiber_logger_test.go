package log

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFiberLogger_RouteLabels(t *testing.T) {
	f := fiber.New(fiber.Config{DisableStartupMessage: true})
	f.Use(NewFiberLogger(&LoggerConfig{Name: "test_routes", DoMetrics: true}))

	f.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return fiber.ErrNotFound
		}

		return c.SendString(c.Params("id"))
	})
	f.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	for _, path := range []string{"/items/1", "/items/2", "/items/3", "/items/0", "/boom", "/missing/1", "/missing/2"} {
		res, err := f.Test(httptest.NewRequest(http.MethodGet, path, nil), 3000)
		require.NoError(t, err)
		require.NoError(t, res.Body.Close())
	}

	ok := prometheus.Labels{"api": "test_routes", "route": "/items/:id", "method": "GET", "code": "200"}
	require.Equal(t, 3.0, testutil.ToFloat64(httpRequestsCount.With(ok)))

	notFound := prometheus.Labels{"api": "test_routes", "route": "/items/:id", "method": "GET", "code": "404"}
	require.Equal(t, 1.0, testutil.ToFloat64(httpRequestsCount.With(notFound)))

	failed := prometheus.Labels{"api": "test_routes", "route": "/boom", "method": "GET", "code": "500"}
	require.Equal(t, 1.0, testutil.ToFloat64(httpRequestsCount.With(failed)))

	unmatched := prometheus.Labels{"api": "test_routes", "route": "/", "method": "GET", "code": "404"}
	require.Equal(t, 2.0, testutil.ToFloat64(httpRequestsCount.With(unmatched)))

	_, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
}
