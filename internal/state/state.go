package state

import (
	"encoding/json" // For JSON encoding and decoding of the state file
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"benefits-setup/internal/logger"
)

// ToolState represents the saved state of an installed tool.
// It records the installed version, the full install path of the tool executable,
// and whether this tool was installed by benefits-setup itself.
type ToolState struct {
	Version             string `json:"version"`
	InstallPath         string `json:"install_path"`
	InstalledByDevSetup bool   `json:"installed_by_dev_setup"`
}

// State holds the entire saved state, keyed by tool name.
type State struct {
	Tools map[string]ToolState `json:"tools"`
}

// New returns an empty State.
func New() *State {
	return &State{Tools: make(map[string]ToolState)}
}

// LoadState loads the saved state from a JSON file at the given path.
// A missing file yields an empty State; an unreadable or malformed one is an error.
func LoadState(path string) (*State, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("[DEBUG] No state file at %s, starting empty\n", path)
			return New(), nil
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}

	// The file may contain "tools": null.
	if st.Tools == nil {
		st.Tools = make(map[string]ToolState)
	}
	return &st, nil
}

// SaveState writes st as indented JSON, creating the parent directory if needed.
func SaveState(path string, st *State) error {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	logger.Debug("[DEBUG] Writing state to %s:\n%s\n", path, string(file))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(file, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return nil
}
