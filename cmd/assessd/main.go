package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/trustform/assessd/internal/config"
	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/invitation"
	"github.com/trustform/assessd/internal/ledger"
	"github.com/trustform/assessd/internal/notify"
	"github.com/trustform/assessd/internal/scoring"
	"github.com/trustform/assessd/internal/storage"
	"github.com/trustform/assessd/internal/submission"
	"github.com/trustform/assessd/internal/workflow"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	config *config.AppConfig
	logger *slog.Logger

	dbm          *database.DatabaseManager
	bus          *events.Bus[events.Event]
	ledger       *ledger.Ledger
	store        *workflow.Store
	invitations  *invitation.Manager
	orchestrator *submission.Orchestrator
	signer       *storage.Signer
	blobs        *storage.BlobStore
	notifier     notify.Notifier
	scorer       scoring.Client
}

func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{
		config: cfg,
		logger: slog.Default(),
		bus:    events.New[events.Event](),
	}

	db, err := database.GetDatabase(cfg.DB(), cfg.Debug())
	if err != nil {
		return nil, err
	}

	app.dbm = database.New(db)

	if err := app.dbm.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if len(cfg.AuthSecret()) == 0 {
		app.logger.Warn("auth.secret is not set, using an ephemeral one")
		tok, err := invitation.NewToken()
		if err != nil {
			return nil, err
		}

		cfg.Set("auth.secret", tok)
	}

	if smtp := cfg.SMTP(); smtp.Enabled() {
		app.notifier = notify.NewMailer(smtp)
	} else {
		app.logger.Info("no smtp server configured, notifications are logged only")
		app.notifier = notify.NewLogNotifier()
	}

	app.signer = storage.NewSigner(cfg.AuthSecret(), cfg.StoragePublicURL(), cfg.StorageBucket(), cfg.StorageURLTTL())
	app.blobs = storage.NewBlobStore(filepath.Join(cfg.DataDir(), "blobs"))

	app.scorer = scoring.NewHTTPClient(scoring.Config{
		URL:      cfg.ScoringURL(),
		Token:    cfg.ScoringToken(),
		Timeout:  cfg.ScoringTimeout(),
		Attempts: cfg.ScoringAttempts(),
	})

	app.ledger = ledger.New(app.dbm)
	app.store = workflow.New(app.dbm, app.ledger, app.signer, app.bus)
	app.invitations = invitation.New(app.dbm, app.notifier, app.bus, invitation.Config{
		DeadlineDays: cfg.InviteDeadlineDays(),
		FrontendURL:  cfg.FrontendURL(),
	})
	app.orchestrator = submission.New(app.store, app.scorer, app.notifier, app.bus)

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	if fn := app.config.CreditsFile(); fn != "" {
		n, err := app.ledger.SeedFile(fn)
		if err != nil {
			return fmt.Errorf("credits file: %w", err)
		}

		app.logger.Info(fmt.Sprintf("seeded %d credit grants from %s", n, fn))
	}

	go app.cleaner(ctx)

	api := NewAPI(app, app.config.APIAddr())

	go func() {
		app.logger.Info("listening api at " + api.Address())

		if err := api.Listen(); err != nil {
			app.logger.Error("api server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	app.logger.Info("exiting...")

	return api.Shutdown()
}

func (app *App) cleaner(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.store.CleanCache()
		}
	}
}

func main() {
	fs := pflag.NewFlagSet("assessd", pflag.ExitOnError)
	conf := fs.String("config", "assessd.yml", "name of config file")
	fs.Bool("debug", false, "debug")
	fs.String("api_addr", ":8080", "api listen address")
	fs.String("db", "assessd.sqlite", "database file or mysql:<dsn>")
	_ = fs.Parse(os.Args[1:])

	cfg := config.NewAppConfig()

	if err := cfg.BindFlags(fs); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	loaded := cfg.Load(*conf)

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel())

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	slog.Info(fmt.Sprintf("version %s:%s", gitBranch, gitRevision))

	if loaded {
		cfg.OnChange(func(c *config.AppConfig) {
			level.Set(c.LogLevel())
			slog.Info("log level is " + level.Level().String())
		})
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("init error", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		slog.Error("run error", slog.Any("error", err))
		os.Exit(1)
	}
}
