package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/pkg/request"
)

const (
	scorePath      = "/api/v1/score"
	DefaultTimeout = 300 * time.Second
)

var (
	ErrTimeout     = fmt.Errorf("%w: scoring engine timed out", fault.DependencyFailure)
	ErrUnavailable = fmt.Errorf("%w: scoring engine unavailable", fault.DependencyFailure)
	ErrBadResponse = fmt.Errorf("%w: bad scoring engine response", fault.DependencyFailure)
)

// StatusError is a non 2xx answer of the scoring engine.
type StatusError = request.StatusError

var (
	callsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessd",
		Subsystem: "scoring",
		Name:      "calls_total",
		Help:      "Scoring engine calls by result",
	}, []string{"result"})

	durationMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assessd",
		Subsystem: "scoring",
		Name:      "call_duration_seconds",
		Help:      "Scoring engine call latency",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	})
)

type Client interface {
	Score(ctx context.Context, req *model.ScoringRequest) (*model.ScoringResult, error)
}

type Config struct {
	URL      string
	Token    string
	Timeout  time.Duration
	Attempts int
}

// HTTPClient calls the external scoring engine over JSON/HTTP.
type HTTPClient struct {
	conf    Config
	client  *http.Client
	backoff func() backoff.BackOff
	logger  *slog.Logger
}

func NewHTTPClient(conf Config) *HTTPClient {
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}

	if conf.Attempts < 1 {
		conf.Attempts = 1
	}

	return &HTTPClient{
		conf:   conf,
		client: &http.Client{},
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.With("logger", "scoring"),
	}
}

// Score posts the payload and waits for the result up to the configured timeout.
// Only connection failures are retried, never timeouts or error answers.
func (c *HTTPClient) Score(ctx context.Context, req *model.ScoringRequest) (*model.ScoringResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()

	start := time.Now()
	attempt := 0

	res, err := backoff.Retry(ctx, func() (*model.ScoringResult, error) {
		attempt++

		res, err := c.call(ctx, req)
		if err == nil {
			return res, nil
		}

		if errors.Is(err, ErrUnavailable) && attempt < c.conf.Attempts {
			c.logger.Warn(fmt.Sprintf("scoring engine unavailable, attempt %d of %d", attempt, c.conf.Attempts), slog.Any("error", err))
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(c.backoff()), backoff.WithMaxTries(uint(c.conf.Attempts)))

	durationMetric.Observe(time.Since(start).Seconds())

	if err != nil {
		err = classify(ctx, err)
		callsMetric.With(prometheus.Labels{"result": result(err)}).Inc()
		c.logger.Error(fmt.Sprintf("scoring of assessment %d failed", req.AssessmentID), slog.Any("error", err))

		return nil, err
	}

	callsMetric.With(prometheus.Labels{"result": "ok"}).Inc()
	c.logger.Info(fmt.Sprintf("assessment %d scored in %s", req.AssessmentID, time.Since(start).Round(time.Millisecond)))

	return res, nil
}

func (c *HTTPClient) call(ctx context.Context, req *model.ScoringRequest) (*model.ScoringResult, error) {
	res := new(model.ScoringResult)

	err := request.New(c.client, c.logger).
		URL(c.conf.URL + scorePath).
		Post().
		Token(c.conf.Token).
		JSON(req).
		GetJSON(ctx, res)

	if err == nil {
		return res, nil
	}

	var se *StatusError

	switch {
	case errors.As(err, &se):
		return nil, fmt.Errorf("%w: %w", fault.DependencyFailure, se)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case isTransport(err):
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
}

// classify turns context errors into the scoring taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, fault.DependencyFailure) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", fault.DependencyFailure, err)
}

func result(err error) string {
	var se *StatusError

	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.As(err, &se):
		return "status"
	default:
		return "error"
	}
}
