package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ASSESSD"

type AppConfig struct {
	v *viper.Viper
}

func NewAppConfig() *AppConfig {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return &AppConfig{v: v}
}

// Load reads the first config file that exists. A missing file is not an error.
func (c *AppConfig) Load(filename ...string) bool {
	for _, name := range filename {
		if name == "" {
			continue
		}

		c.v.SetConfigFile(name)

		if err := c.v.ReadInConfig(); err != nil {
			slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
			continue
		}

		return true
	}

	return false
}

// BindFlags makes command line flags override file and env values.
func (c *AppConfig) BindFlags(fs *pflag.FlagSet) error {
	return c.v.BindPFlags(fs)
}

// OnChange watches the loaded config file.
func (c *AppConfig) OnChange(fn func(c *AppConfig)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config changed: " + e.Name)
		fn(c)
	})

	c.v.WatchConfig()
}

func (c *AppConfig) Bool(key string) bool {
	return c.v.GetBool(key)
}

func (c *AppConfig) String(key string) string {
	return c.v.GetString(key)
}

func (c *AppConfig) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *AppConfig) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) APIAddr() string {
	return c.v.GetString("api_addr")
}

func (c *AppConfig) DB() string {
	return c.v.GetString("db")
}

func (c *AppConfig) DataDir() string {
	return c.v.GetString("data_dir")
}

func (c *AppConfig) Debug() bool {
	return c.v.GetBool("debug")
}

func (c *AppConfig) LogLevel() slog.Level {
	if c.Debug() {
		return slog.LevelDebug
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.v.GetString("log_level"))); err != nil {
		return slog.LevelInfo
	}

	return l
}

func (c *AppConfig) AuthSecret() []byte {
	return []byte(c.v.GetString("auth.secret"))
}

func (c *AppConfig) ScoringURL() string {
	return strings.TrimSuffix(c.v.GetString("scoring.url"), "/")
}

func (c *AppConfig) ScoringToken() string {
	return c.v.GetString("scoring.token")
}

func (c *AppConfig) ScoringTimeout() time.Duration {
	return c.v.GetDuration("scoring.timeout")
}

func (c *AppConfig) ScoringAttempts() int {
	return max(c.v.GetInt("scoring.attempts"), 1)
}

func (c *AppConfig) InviteDeadlineDays() int {
	return c.v.GetInt("invite.deadline_days")
}

func (c *AppConfig) FrontendURL() string {
	return strings.TrimSuffix(c.v.GetString("invite.frontend_url"), "/")
}

func (c *AppConfig) StorageBucket() string {
	return c.v.GetString("storage.bucket")
}

func (c *AppConfig) StoragePublicURL() string {
	return strings.TrimSuffix(c.v.GetString("storage.public_url"), "/")
}

func (c *AppConfig) StorageURLTTL() time.Duration {
	return c.v.GetDuration("storage.url_ttl")
}

func (c *AppConfig) SMTP() SMTPConfig {
	return SMTPConfig{
		Server:   c.v.GetString("smtp.server"),
		Port:     c.v.GetInt("smtp.port"),
		User:     c.v.GetString("smtp.user"),
		Password: c.v.GetString("smtp.password"),
		From:     c.v.GetString("smtp.from"),
	}
}

func (c *AppConfig) CreditsFile() string {
	return c.v.GetString("credits_file")
}

type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool {
	return s.Server != "" && s.From != ""
}

func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_addr", ":8080")
	v.SetDefault("db", "assessd.sqlite")
	v.SetDefault("data_dir", "data")
	v.SetDefault("log_level", "info")

	v.SetDefault("scoring.url", "http://localhost:8000")
	v.SetDefault("scoring.timeout", 300*time.Second)
	v.SetDefault("scoring.attempts", 1)

	v.SetDefault("invite.deadline_days", 14)
	v.SetDefault("invite.frontend_url", "http://localhost:3000")

	v.SetDefault("storage.bucket", "evidence")
	v.SetDefault("storage.public_url", "http://localhost:8080")
	v.SetDefault("storage.url_ttl", time.Hour)

	v.SetDefault("smtp.port", 587)
}
