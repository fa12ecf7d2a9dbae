package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/file"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlinks/internal/config"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load(writeConfig(t, "storage:\n  driver: memory\n"))
	require.NoError(t, err)

	return cfg
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := t.TempDir() + "/config.yml"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	return path
}

func TestNewSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := testConfig(t)

		slot, closeSlot, err := newSlot(ctx, cfg, discardLogger)
		require.NoError(t, err)
		defer closeSlot()

		assert.IsType(t, &memory.Slot{}, slot)
	})

	t.Run("file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = config.DriverFile
		cfg.Storage.Dir = t.TempDir()

		slot, closeSlot, err := newSlot(ctx, cfg, discardLogger)
		require.NoError(t, err)
		defer closeSlot()

		assert.IsType(t, &file.Slot{}, slot)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = "sqlite"

		_, _, err := newSlot(ctx, cfg, discardLogger)

		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "not a level"

	logger := NewLogger(cfg)

	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)
		w.Write([]byte(`{"clientID":"id","clientSecret":"secret"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Evaluation.BaseURL = srv.URL
	cfg.Evaluation.Email = "user@example.com"

	res, err := Register(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, "id", res.ClientID)
}

