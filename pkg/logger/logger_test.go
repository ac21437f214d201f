package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToOutputPath(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "app.log")

	// Act
	log, err := New(Config{Level: "debug", Format: "json", OutputPaths: []string{path}, Service: "nutrilabel"})
	require.NoError(t, err)
	log.Debug("label generated")
	require.NoError(t, log.Sync())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "label generated", entry["msg"])
	assert.Equal(t, "nutrilabel", entry["service"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "chatty", Format: "console", OutputPaths: []string{path}})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(-1))
	assert.True(t, log.Core().Enabled(0))
}
