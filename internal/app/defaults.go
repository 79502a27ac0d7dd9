package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - YD_CONFIG_PATH: config file location (default: ~/.config/yd.toml)
//   - YD_HOME: base directory for yd data (default: ~/.local/share/yd)
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
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"fonts_dir":   filepath.Join(baseDir, "fonts"),
	}, nil
}

// getConfigPath returns the config file path, checking YD_CONFIG_PATH first,
// then falling back to ~/.config/yd.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("YD_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "yd.toml"), nil
}

// getBaseDir returns the base directory for yd data, checking YD_HOME first,
// then falling back to the XDG default ~/.local/share/yd.
func getBaseDir() (string, error) {
	if path := os.Getenv("YD_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "yd"), nil
}
