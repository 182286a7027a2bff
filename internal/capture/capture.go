package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	sessionID  = time.Now().Format("20060102-150405")
	captureSeq uint64
)

var captureEnabled atomic.Bool

// envCaptureDir overrides the directory fixtures are written to.
const envCaptureDir = "MERMAIDFLOW_CAPTURE_DIR"

const defaultCaptureDir = "captures/completions"

// Enabled reports whether capture is currently active.
func Enabled() bool {
	return captureEnabled.Load()
}

// Enable turns on capture for the running process.
func Enable() {
	captureEnabled.Store(true)
}

// Disable turns off capture for the running process.
func Disable() {
	captureEnabled.Store(false)
}

// Dir returns the directory fixtures are written under.
func Dir() string {
	if dir := os.Getenv(envCaptureDir); dir != "" {
		return dir
	}
	return defaultCaptureDir
}

// WriteJSON marshals payload as indented JSON into
// <dir>/<session>/<category>-<seq>.json. Failures are logged and otherwise ignored.
func WriteJSON(category string, payload interface{}) {
	if !Enabled() {
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("capture: failed to marshal payload")
		return
	}

	sessionDir := filepath.Join(Dir(), sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", sessionDir).Msg("capture: failed to create directory")
		return
	}

	seq := atomic.AddUint64(&captureSeq, 1)
	path := filepath.Join(sessionDir, fmt.Sprintf("%s-%04d.json", category, seq))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return
	}

	log.Debug().Str("path", path).Msg("capture: wrote fixture")
}
