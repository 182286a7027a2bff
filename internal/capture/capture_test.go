package capture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_DisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envCaptureDir, dir)
	Disable()

	WriteJSON("completion", map[string]string{"prompt": "x"})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteJSON_WritesFixture(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envCaptureDir, dir)
	Enable()
	t.Cleanup(Disable)

	WriteJSON("completion", map[string]string{"prompt": "draw a flowchart"})

	files, err := filepath.Glob(filepath.Join(dir, sessionID, "completion-*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "draw a flowchart", got["prompt"])
}
