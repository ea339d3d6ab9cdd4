package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsReadsFileBack(t *testing.T) {
	log := NewIsolatedLogger(filepath.Join(t.TempDir(), "app.log"))
	log.Info("LocationWatcher", "fix acquired", nil)
	log.Warn("LocationWatcher", "Error getting location", map[string]interface{}{"error": "timeout"})
	log.Error("CaptureSession", "Error accessing media devices", map[string]interface{}{"error": "denied"})
	require.NoError(t, log.Sync())

	all, err := log.GetLogs("", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Error accessing media devices", all[0].Message)
	assert.Equal(t, "CaptureSession", all[0].Module)
	assert.Equal(t, "denied", all[0].Details["error"])
	assert.Len(t, all[0].Id, 16)

	warns, err := log.GetLogs("warn", 0, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "WARN", warns[0].Level)

	page, err := log.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Error getting location", page[0].Message)

	empty, err := log.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	found, err := log.GetLogById(all[1].Id)
	require.NoError(t, err)
	assert.Equal(t, all[1].Message, found.Message)

	_, err = log.GetLogById("missing")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestGetLogsWithoutFile(t *testing.T) {
	logs, err := NewNopLogger().GetLogs("", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	logs, err = NewIsolatedLogger(filepath.Join(t.TempDir(), "never-written.log")).GetLogs("", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
