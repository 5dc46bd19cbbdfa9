package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedRoute = "-"

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assessd",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api", "route"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "route", "method", "code"})
)

type LoggerConfig struct {
	Name          string
	UserGetter    func(c *fiber.Ctx) string
	DoMetrics     bool
	LogErrorsOnly bool
}

// NewFiberLogger logs every request and optionally counts it by route template.
// Errors of the chain are rendered here with the app error handler, so the logged status is the real one.
func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	if conf == nil {
		conf = &LoggerConfig{Name: "http"}
	}

	logger := slog.Default().With(slog.String("logger", conf.Name))

	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		if chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		wt := time.Since(start)
		status := c.Response().StatusCode()
		route := RouteLabel(c)

		if conf.DoMetrics {
			httpRequestsDuration.With(prometheus.Labels{"api": conf.Name, "route": route}).Observe(wt.Seconds())
			httpRequestsCount.With(prometheus.Labels{
				"api":    conf.Name,
				"route":  route,
				"method": strings.Clone(c.Method()),
				"code":   strconv.Itoa(status),
			}).Inc()
		}

		// query strings are left out, they carry signed tokens
		msg := fmt.Sprintf("%d %s %s", status, c.Method(), c.Path())

		l := logger
		if chainErr != nil {
			l = l.With(slog.Any("error", chainErr))
		}

		attrs := []any{
			slog.String("client", c.IP()+":"+c.Port()),
			slog.Int("status", status),
			slog.String("route", route),
			slog.Int64("ms", wt.Milliseconds()),
		}

		if conf.UserGetter != nil {
			attrs = append(attrs, slog.String("user", conf.UserGetter(c)))
		}

		switch {
		case !conf.LogErrorsOnly:
			l.Info(msg, attrs...)
		case status < 300:
			l.Debug(msg, attrs...)
		case status < 400:
			l.Info(msg, attrs...)
		default:
			l.Warn(msg, attrs...)
		}

		return nil
	}
}

// RouteLabel is the registered route template of the request, copied out of fiber's reused buffers.
// Requests no handler matched carry the prefix of the last middleware they passed.
func RouteLabel(c *fiber.Ctx) string {
	r := c.Route()
	if r == nil || len(r.Handlers) == 0 {
		return unmatchedRoute
	}

	return strings.Clone(r.Path)
}
