package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantDebug bool
	}{
		{name: "production default", cfg: Config{}},
		{name: "production debug", cfg: Config{Level: "debug"}, wantDebug: true},
		{name: "development", cfg: Config{Development: true}, wantDebug: true},
		{name: "development warn", cfg: Config{Development: true, Level: "warn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(tt.cfg, &buf)
			require.NoError(t, err)

			logger.Debug("debug line")
			logger.Error("error line", zap.String("party", "1"))
			require.NoError(t, logger.Sync())

			out := buf.String()
			assert.Contains(t, out, "error line")
			assert.Contains(t, out, "party")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frost.log")
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}
