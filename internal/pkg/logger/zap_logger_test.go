package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notification.log")
	l := NewIsolatedLogger(path)

	l.Info("NotificationService", "delivered", map[string]interface{}{"kind": "RESERVATION_CANCELLED"})
	l.Debug("NotificationService", "below file level", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "delivered", entry["message"])
	assert.Equal(t, "NotificationService", entry["module"])
}

func TestIsolatedLogger_ErrorCarriesErrorRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewIsolatedLogger(path)

	l.Error("OutboxDispatcher", "emit failed", map[string]interface{}{"error": "nats: timeout"})
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "nats: timeout", entry["error_ref"])
	assert.Contains(t, entry["caller"], "zap_logger_test.go")
}
