package logging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("level parsing with fallback", func(t *testing.T) {
		tests := []struct {
			name  string
			level string
			want  zerolog.Level
		}{
			{"debug", "debug", zerolog.DebugLevel},
			{"warn", "warn", zerolog.WarnLevel},
			{"empty falls back to info", "", zerolog.InfoLevel},
			{"garbage falls back to info", "shouty", zerolog.InfoLevel},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := New(Config{Level: tt.level})
				defer result.Close()
				assert.Equal(t, tt.want, result.Logger.GetLevel())
			})
		}
	})

	t.Run("file output is reported and closable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "newsbatch.log")
		result := New(Config{Level: "info", File: path})

		assert.True(t, result.UsingFile)
		assert.Equal(t, path, result.FilePath)

		result.Logger.Info().Msg("hello")
		require.NoError(t, result.Close())
		require.NoError(t, result.Close(), "close is idempotent")
	})

	t.Run("unopenable file degrades to stderr only", func(t *testing.T) {
		result := New(Config{Level: "info", File: filepath.Join(t.TempDir(), "no", "such", "dir", "x.log")})
		defer result.Close()
		assert.False(t, result.UsingFile)
	})
}

func TestContextRoundTrip(t *testing.T) {
	result := New(Config{Level: "debug"})
	defer result.Close()

	logger := ComponentLogger(result.Logger, "coordinator")
	ctx := WithContext(context.Background(), logger)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, logger.GetLevel(), got.GetLevel())
}
