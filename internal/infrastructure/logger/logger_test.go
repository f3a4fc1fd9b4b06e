package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("json file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m13.log")
		l, err := New(&Config{Level: "warn", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("dropped")
		l.Warn("Stock sync partially failed", zap.String("marketplace", "ETSY"))
		require.NoError(t, Sync(l))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dropped")
		assert.Contains(t, string(data), `"marketplace":"ETSY"`)
		assert.Contains(t, string(data), `"level":"warn"`)
	})

	t.Run("console", func(t *testing.T) {
		l, err := New(&Config{Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(&Config{Level: "chatty"})
		assert.Error(t, err)
	})

	t.Run("unwritable file", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "m13.log")})
		assert.Error(t, err)
	})
}

func TestSync_Nil(t *testing.T) {
	assert.NoError(t, Sync(nil))
}
