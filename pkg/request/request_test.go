package request

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		_ = json.NewEncoder(w).Encode(map[string]int{"sum": in["a"] + in["b"]})
	}))
	defer srv.Close()

	var out map[string]int

	err := New(srv.Client(), nil).URL(srv.URL).Post().Token("tkn").JSON(map[string]int{"a": 1, "b": 2}).GetJSON(context.Background(), &out)
	require.NoError(t, err)
	require.Equal(t, 3, out["sum"])
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.Client(), nil).URL(srv.URL).GetJSON(context.Background(), &struct{}{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Code)
	require.Equal(t, "model not loaded", se.Body)
}
