package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, logging.WARNING, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, logging.DEBUG, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestGetLogsFiltersBySeverity(t *testing.T) {
	Debugf("debug line %d", 1)
	Info("info line")
	Errorf("error line %s", "x")

	errorsOnly := GetLogs(10, "error")
	require.NotEmpty(t, errorsOnly)
	assert.Contains(t, errorsOnly[0], "error line x")
	for _, l := range errorsOnly {
		assert.NotContains(t, l, "info line")
	}

	all := GetLogs(3, "debug")
	assert.Len(t, all, 3)
	assert.Contains(t, all[0], "error line x")
	assert.Contains(t, all[2], "debug line 1")
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	InitLogger(logging.INFO, dir)
	defer CloseLogger()

	Debug("written to file only")

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file only"))
}
