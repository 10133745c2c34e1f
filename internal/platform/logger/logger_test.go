package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/atlas-api/internal/config"
	"github.com/phrazzld/atlas-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantLevel  slog.Level
		recognized bool
	}{
		{name: "debug", input: "debug", wantLevel: slog.LevelDebug, recognized: true},
		{name: "info", input: "info", wantLevel: slog.LevelInfo, recognized: true},
		{name: "warn", input: "warn", wantLevel: slog.LevelWarn, recognized: true},
		{name: "error", input: "error", wantLevel: slog.LevelError, recognized: true},
		{name: "mixed_case", input: "DeBuG", wantLevel: slog.LevelDebug, recognized: true},
		{name: "unknown_falls_back_to_info", input: "verbose", wantLevel: slog.LevelInfo, recognized: false},
		{name: "empty_falls_back_to_info", input: "", wantLevel: slog.LevelInfo, recognized: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			level, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.recognized, ok)
		})
	}
}

func TestSetup(t *testing.T) {
	// Setup replaces the process default logger, so restore it afterwards.
	original := slog.Default()
	defer slog.SetDefault(original)

	log, err := logger.Setup(config.ServerConfig{LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Same(t, log, slog.Default(), "Setup should install the logger as process default")

	// An invalid level must not fail startup.
	log, err = logger.Setup(config.ServerConfig{LogLevel: "nonsense"})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	t.Run("valid_logger", func(t *testing.T) {
		t.Parallel()

		custom := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := logger.WithLogger(context.Background(), custom)

		assert.Same(t, custom, logger.FromContext(ctx))
	})

	t.Run("nil_logger_panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.WithLogger(context.Background(), nil)
		})
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("context_without_logger_returns_default", func(t *testing.T) {
		t.Parallel()

		got := logger.FromContext(context.Background())
		require.NotNil(t, got)
	})

	t.Run("nil_context_returns_default", func(t *testing.T) {
		t.Parallel()

		//nolint:staticcheck // Intentionally passing nil to exercise the guard.
		got := logger.FromContext(nil)
		require.NotNil(t, got)
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	def := slog.New(slog.NewTextHandler(io.Discard, nil))
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		ctx      context.Context
		expected *slog.Logger
	}{
		{
			name:     "nil_context_returns_default",
			ctx:      nil,
			expected: def,
		},
		{
			name:     "context_without_logger_returns_default",
			ctx:      context.Background(),
			expected: def,
		},
		{
			name:     "context_with_logger_returns_context_logger",
			ctx:      logger.WithLogger(context.Background(), custom),
			expected: custom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := logger.FromContextOrDefault(tt.ctx, def)
			assert.Same(t, tt.expected, result)
		})
	}
}
