package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/internal/config"
	"github.com/aretw0/elementx/pkg/adapters/file"
	"github.com/aretw0/elementx/pkg/adapters/memory"
	"github.com/aretw0/elementx/pkg/adapters/redis"
	"github.com/aretw0/elementx/pkg/adapters/sqlite"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/observability"
	"github.com/aretw0/elementx/pkg/ports"
)

// App is everything a command needs, built from the configuration.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Lab     *elementx.Lab
	Auth    *auth.Service
	Metrics *observability.Metrics

	closers []io.Closer
}

type stores struct {
	samples      ports.SampleStore
	users        ports.UserStore
	measurements ports.MeasurementStore
}

// Open wires the stores selected by cfg.Store.Backend into a Lab and an
// auth service.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	st, err := app.openStores(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	secret, err := signingSecret(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Auth, err = auth.NewService(st.users, secret,
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithLogger(logger),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Lab = elementx.New(
		elementx.WithSampleStore(st.samples),
		elementx.WithMeasurementStore(st.measurements),
		elementx.WithMetrics(app.Metrics),
		elementx.WithLogger(logger),
	)
	logger.Debug("stores ready", "backend", cfg.Store.Backend)
	return app, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		return stores{
			samples:      memory.NewSampleStore(),
			users:        memory.NewUserStore(),
			measurements: memory.NewMeasurementStore(),
		}, nil

	case config.BackendFile:
		dir := cfg.Store.DataDir
		return stores{
			samples:      file.NewSampleStore(filepath.Join(dir, "samples")),
			users:        file.NewUserStore(filepath.Join(dir, "users")),
			measurements: file.NewMeasurementStore(filepath.Join(dir, "measurements")),
		}, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return stores{}, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, db)
		return stores{samples: db.Samples(), users: db.Users(), measurements: db.Measurements()}, nil

	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		client := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		a.closers = append(a.closers, client)
		if err := client.Ping(ctx); err != nil {
			return stores{}, fmt.Errorf("redis at %s: %w", cfg.Redis.Addr, err)
		}
		return stores{samples: client.Samples(), users: client.Users(), measurements: client.Measurements()}, nil
	}
	return stores{}, fmt.Errorf("%w: store backend %q", config.ErrInvalidConfig, cfg.Store.Backend)
}

// signingSecret returns the configured JWT secret. Local installs without
// one get a random secret persisted in the data directory so CLI logins
// survive between runs.
func signingSecret(cfg config.Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.Auth.JWTSecret); s != "" {
		return []byte(s), nil
	}
	if cfg.Store.Backend == config.BackendMemory {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	path := filepath.Join(cfg.Store.DataDir, "secret")
	data, err := os.ReadFile(path)
	if err == nil && len(strings.TrimSpace(string(data))) > 0 {
		return []byte(strings.TrimSpace(string(data))), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read local secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	secret := hex.EncodeToString(buf)
	if err := os.MkdirAll(cfg.Store.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret), 0600); err != nil {
		return nil, fmt.Errorf("write local secret: %w", err)
	}
	return []byte(secret), nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
