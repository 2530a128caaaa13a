package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PROSYNC_CONFIG_PATH: config file location (default: ~/.config/prosync.toml)
//   - PROSYNC_HOME: base directory for prosync data (default: ~/.local/share/prosync)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":      configPath,
		"base_dir":         baseDir,
		"log_dir":          filepath.Join(baseDir, "log"),
		"connections_path": filepath.Join(baseDir, "connections.json"),
	}, nil
}

// getConfigPath returns the config file path, checking PROSYNC_CONFIG_PATH env var
// first, then falling back to the default ~/.config/prosync.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PROSYNC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "prosync.toml"), nil
}

// getBaseDir returns the base directory for prosync data, checking PROSYNC_HOME
// env var first, then falling back to the XDG default ~/.local/share/prosync.
func getBaseDir() (string, error) {
	if path := os.Getenv("PROSYNC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "prosync"), nil
}
