package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/elementx/internal/config"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = backend
	cfg.Store.DataDir = t.TempDir()
	cfg.Store.SQLitePath = filepath.Join(cfg.Store.DataDir, "db", "elementx.db")
	cfg.Auth.JWTSecret = "test-secret-0123456789"
	return cfg
}

func TestOpen_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite, config.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			cfg.Redis.Addr = mr.Addr()

			app, err := Open(context.Background(), cfg, nil)
			require.NoError(t, err)
			defer app.Close()

			ctx := context.Background()
			sess, err := app.Auth.Register(ctx, auth.Registration{Name: "Ada", Email: backend + "@example.org", Password: "engine"})
			require.NoError(t, err)

			res, err := app.Lab.Calculate("Fe2MoGe", "Ge", 1)
			require.NoError(t, err)
			sample, err := app.Lab.SaveSample(ctx, sess.User.ID, "batch", res)
			require.NoError(t, err)

			list, err := app.Lab.ListSamples(ctx, sess.User.ID)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, sample.ID, list[0].ID)
		})
	}
}

func TestOpen_RedisUnavailable(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "redis at 127.0.0.1:1")
}

func TestSigningSecret_PersistedLocally(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	cfg.Auth.JWTSecret = ""

	first, err := signingSecret(cfg)
	require.NoError(t, err)
	second, err := signingSecret(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(filepath.Join(cfg.Store.DataDir, "secret"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg.Auth.JWTSecret = "configured"
	configured, err := signingSecret(cfg)
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), configured)
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	app, err := Open(ctx, testConfig(t, config.BackendFile), nil)
	require.NoError(t, err)
	defer app.Close()

	_, err = app.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	sess, err := app.Auth.Register(ctx, auth.Registration{Name: "Ada", Email: "ada@example.org", Password: "engine"})
	require.NoError(t, err)
	require.NoError(t, app.SaveToken(sess.Token))

	user, err := app.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)

	require.NoError(t, app.SaveToken("not-a-jwt"))
	_, err = app.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, app.ClearToken())
	require.NoError(t, app.ClearToken())
	_, err = app.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.ShutdownGrace = time.Second
	app, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
