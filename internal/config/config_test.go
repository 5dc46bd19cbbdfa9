package config

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewAppConfig()

	require.Equal(t, ":8080", c.APIAddr())
	require.Equal(t, 300*time.Second, c.ScoringTimeout())
	require.Equal(t, 1, c.ScoringAttempts())
	require.Equal(t, 14, c.InviteDeadlineDays())
	require.Equal(t, time.Hour, c.StorageURLTTL())
	require.False(t, c.SMTP().Enabled())
	require.Equal(t, slog.LevelInfo, c.LogLevel())
}

func TestLoadFile(t *testing.T) {
	f, err := os.CreateTemp("", "assessd_*.yml")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	fmt.Fprint(f, "---\nscoring:\n    url: http://scorer:9000/\n    timeout: 5s\nsmtp:\n    server: mail\n    from: noreply@example.com\nlog_level: warn\n")
	f.Close()

	c := NewAppConfig()
	require.True(t, c.Load("/nonexistent/assessd.yml", f.Name()))

	require.Equal(t, "http://scorer:9000", c.ScoringURL())
	require.Equal(t, 5*time.Second, c.ScoringTimeout())
	require.True(t, c.SMTP().Enabled())
	require.Equal(t, "mail:587", c.SMTP().Addr())
	require.Equal(t, slog.LevelWarn, c.LogLevel())
}

func TestEnvAndFlags(t *testing.T) {
	t.Setenv("ASSESSD_INVITE_DEADLINE_DAYS", "30")

	c := NewAppConfig()
	require.Equal(t, 30, c.InviteDeadlineDays())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("api_addr", ":8080", "")
	require.NoError(t, fs.Parse([]string{"--api_addr", ":9999"}))
	require.NoError(t, c.BindFlags(fs))

	require.Equal(t, ":9999", c.APIAddr())
}
