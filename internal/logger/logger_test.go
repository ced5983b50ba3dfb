package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchsweep/config"
	"watchsweep/internal/logger"
)

func TestFileSinkIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "watchsweep.log")
	var console bytes.Buffer

	l, closer, err := logger.New(config.LogConfig{File: path, Level: "info", MaxSize: 1}, &console)
	require.NoError(t, err)

	l.Info().Int("movies_removed", 2).Int("shows_removed", 1).Msg("run summary")
	l.Debug().Msg("hidden at info")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &event))
	assert.Equal(t, "run summary", event["message"])
	assert.EqualValues(t, 2, event["movies_removed"])
	assert.EqualValues(t, 1, event["shows_removed"])

	assert.Contains(t, console.String(), "run summary")
	assert.NotContains(t, console.String(), "hidden at info")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
}
