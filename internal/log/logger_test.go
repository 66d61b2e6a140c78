package log

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"production", "warn", zerolog.WarnLevel},
		{"production", "", zerolog.InfoLevel},
		{"development", "", zerolog.DebugLevel},
		{"development", "error", zerolog.ErrorLevel},
		{"production", "nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		l := New(tt.env, tt.level, &bytes.Buffer{}, false)
		assert.Equal(t, tt.want, l.GetLevel(), "env=%s level=%q", tt.env, tt.level)
	}
}

func TestNewWritesEnv(t *testing.T) {
	var buf bytes.Buffer
	l := New("production", "info", &buf, false)
	l.Info().Str("component", "test").Msg("hello")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "env=production")
	assert.Contains(t, out, "component=test")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "busdesk.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
