package plume

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/plume-app/plume/api"
	"github.com/plume-app/plume/db/sqlite3"
	"github.com/plume-app/plume/metrics"
	"github.com/plume-app/plume/random"
	"github.com/plume-app/plume/server"
	sessionstore "github.com/plume-app/plume/session"
	"github.com/plume-app/plume/web"
)

type App struct {
	server  *server.Server
	handler http.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	sessionStorage, db, err := newSessionStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	store := sessionstore.NewStore(sessionStorage)

	err = store.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore sessions: %w", err)
	}

	store.Subscribe(func(event sessionstore.Event) {
		slog.Debug(
			"session state changed",
			"sessionId",
			event.SessionID,
			"authenticated",
			event.Authenticated,
		)
	})

	apiClient := api.NewClient(env.GetString("API_URL", "http://localhost:4000"))

	sessionName := env.GetString("SESSION_NAME", "plume-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	csrfAuthKeys := []byte(env.GetString("CSRF_AUTH_KEY", random.String(32)))
	csrfTrustedOrigins := env.GetStringSlice("CSRF_TRUSTED_ORIGINS", []string{})

	m := metrics.New()

	httpHandler, err := web.NewHandler(
		apiClient,
		store,
		cookieStore,
		sessionName,
		csrfAuthKeys,
		csrfTrustedOrigins,
		m.Handler(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	app := &App{
		server:  newServer(),
		handler: m.Middleware(httpHandler),
		db:      db,
	}

	return app, nil
}

// newSessionStorage picks the durable mirror for frontend sessions. The
// returned *sql.DB is nil in memory mode.
func newSessionStorage(ctx context.Context) (sessionstore.Storage, *sql.DB, error) {
	if env.GetString("SESSION_STORAGE", "sqlite") == "memory" {
		return sessionstore.NewMemoryStorage(), nil, nil
	}

	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file:plume.db?cache=shared"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return sqlite3.NewSessionStorage(db), db, nil
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}
