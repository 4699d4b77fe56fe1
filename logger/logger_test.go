package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(dir, "debug"))

	Info("session %s ready", "abc")
	Protocol("TX", "command", []byte("STATUS\r\n"))
	Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "session abc ready")
	assert.Contains(t, string(data), `"STATUS\r\n"`)
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(t.TempDir(), "chatty")
	assert.Error(t, err)
}

func TestInitTwiceIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, "info"))
	defer Close()
	assert.NoError(t, Init(filepath.Join(dir, "other"), "info"))
	_, err := os.Stat(filepath.Join(dir, "other"))
	assert.True(t, os.IsNotExist(err))
}
