package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/born-ml/mixprec/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LoggingConfig{Level: "info", Encoding: "json"}, &buf)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("converted", zap.String("path", "model.born"))
	require.NoError(t, l.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "converted", entry["msg"])
	assert.Equal(t, "model.born", entry["path"])
	assert.Equal(t, "born", entry["logger"])
}

func TestSetVerbose(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LoggingConfig{Level: "warn", Encoding: "console"}, &buf)
	require.NoError(t, err)

	l.Debug("before")
	l.SetVerbose()
	l.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(config.LoggingConfig{Level: "info", Encoding: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}
