package logs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	LogJSON("ERROR", "storage failure", map[string]interface{}{"path": "/posts/1"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["severity"])
	assert.Equal(t, "storage failure", entry["message"])
	assert.Equal(t, "/posts/1", entry["path"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogJSON_UnencodableField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	LogJSON("WARN", "odd field", map[string]interface{}{"ch": make(chan int)})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "odd field", entry["message"])
	assert.NotEmpty(t, entry["error"])
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yatube.log")
	closer := EnableFile(path)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	LogJSON("INFO", "to file", nil)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to file"`)
}
