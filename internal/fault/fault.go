package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	NotFound            = errors.New("not found")
	InvalidState        = errors.New("invalid state")
	Expired             = errors.New("expired")
	QuotaExceeded       = errors.New("quota exceeded")
	DependencyFailure   = errors.New("dependency failure")
	NotificationFailure = errors.New("notification failure")
	BadRequest          = errors.New("bad request")
	Unauthorized        = errors.New("unauthorized")
)

func NotFoundf(format string, args ...any) error {
	return wrap(NotFound, format, args...)
}

func InvalidStatef(format string, args ...any) error {
	return wrap(InvalidState, format, args...)
}

func Expiredf(format string, args ...any) error {
	return wrap(Expired, format, args...)
}

func QuotaExceededf(format string, args ...any) error {
	return wrap(QuotaExceeded, format, args...)
}

func BadRequestf(format string, args ...any) error {
	return wrap(BadRequest, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, NotFound):
		return http.StatusNotFound
	case errors.Is(err, Unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, InvalidState),
		errors.Is(err, Expired),
		errors.Is(err, QuotaExceeded),
		errors.Is(err, BadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine readable name of the taxonomy member err belongs to.
func Kind(err error) string {
	for _, k := range []struct {
		err  error
		name string
	}{
		{NotFound, "not_found"},
		{InvalidState, "invalid_state"},
		{Expired, "expired"},
		{QuotaExceeded, "quota_exceeded"},
		{DependencyFailure, "dependency_failure"},
		{NotificationFailure, "notification_failure"},
		{BadRequest, "bad_request"},
		{Unauthorized, "unauthorized"},
	} {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "internal"
}
