package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	for _, d := range []struct {
		err    error
		status int
		kind   string
	}{
		{NotFoundf("assessment %d", 1), http.StatusNotFound, "not_found"},
		{InvalidStatef("status is %s", "SUBMITTED"), http.StatusBadRequest, "invalid_state"},
		{Expiredf("invitation has expired"), http.StatusBadRequest, "expired"},
		{QuotaExceededf("insufficient credits"), http.StatusBadRequest, "quota_exceeded"},
		{fmt.Errorf("%w: engine unavailable", DependencyFailure), http.StatusInternalServerError, "dependency_failure"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	} {
		t.Run(d.kind, func(t *testing.T) {
			require.Equal(t, d.status, Status(d.err))
			require.Equal(t, d.kind, Kind(d.err))
		})
	}
}

func TestWrapKeepsMessage(t *testing.T) {
	err := fmt.Errorf("add respondent: %w", QuotaExceededf("balance %.1f", 0.0))

	require.ErrorIs(t, err, QuotaExceeded)
	require.Equal(t, "add respondent: quota exceeded: balance 0.0", err.Error())
}
