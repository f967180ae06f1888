package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: slog.LevelDebug, Format: "json"})

	logger.Debug("fetch issued", "page", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fetch issued", line["msg"])
	assert.Equal(t, float64(2), line["page"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DefaultConfig())

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "pixgrid.log")

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDefaultLogFileUsesStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "pixgrid", "pixgrid.log"), DefaultLogFile())
}
