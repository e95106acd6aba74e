package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "CHECKSMTP_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "checksmtp.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "checksmtp"
	// HistoryFileName is the default run history database name
	HistoryFileName = "history.db"
)

// FindConfigPath searches for config file in priority order:
// 1. $CHECKSMTP_CONFIG (explicit path)
// 2. ./checksmtp.yaml (working directory)
// 3. $XDG_CONFIG_HOME/checksmtp/config.yaml
// 4. ~/.config/checksmtp/config.yaml
// 5. /etc/checksmtp/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	// 1. Explicit environment variable
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	// 2. Working directory
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	// 3. XDG config home
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	// 4. Default XDG location (~/.config)
	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	// 5. System-wide
	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

// DefaultHistoryPath returns the default run history location under XDG data home
func DefaultHistoryPath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, ConfigDirName, HistoryFileName)
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", ConfigDirName, HistoryFileName)
	}

	return HistoryFileName
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
