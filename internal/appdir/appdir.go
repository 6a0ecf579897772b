// Package appdir locates the kyr data directory, which holds the saved chat
// location (location.yaml) and rotated logs (logs/kyr.log).
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// KyrDirEnv overrides the data directory.
	KyrDirEnv = "KYR_DIR"

	// LocationFileName is the file that mirrors the current chat location.
	LocationFileName = "location.yaml"

	// LogsDirName is the name of the log subdirectory.
	LogsDirName = "logs"

	// LogFileName is the name of the main log file.
	LogFileName = "kyr.log"
)

var (
	cachedDir string
	mu        sync.RWMutex
)

// Dir returns the kyr data directory path.
// The directory is determined in the following order:
//  1. KYR_DIR environment variable (if set)
//  2. Platform-specific default:
//     - macOS: ~/Library/Application Support/kyr
//     - Linux: $XDG_DATA_HOME/kyr or ~/.local/share/kyr
//     - Windows: %APPDATA%\kyr
//
// Dir does not create the directory; see EnsureDir.
func Dir() (string, error) {
	mu.RLock()
	if cachedDir != "" {
		dir := cachedDir
		mu.RUnlock()
		return dir, nil
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if cachedDir != "" {
		return cachedDir, nil
	}

	dir, err := resolveDir()
	if err != nil {
		return "", err
	}
	cachedDir = dir
	return dir, nil
}

func resolveDir() (string, error) {
	if envDir := os.Getenv(KyrDirEnv); envDir != "" {
		return envDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "kyr"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "kyr"), nil
	default:
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
		return filepath.Join(dataDir, "kyr"), nil
	}
}

// EnsureDir creates the data directory and its logs subdirectory.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	logsDir := filepath.Join(dir, LogsDirName)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", logsDir, err)
	}
	return nil
}

// LocationPath returns the full path to location.yaml.
func LocationPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LocationFileName), nil
}

// LogPath returns the full path to the main log file.
func LogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName, LogFileName), nil
}

// ResetCache clears the cached directory path. Used by tests.
func ResetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedDir = ""
}
