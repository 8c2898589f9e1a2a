package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the commscan application configuration
type Config struct {
	AppDir               string `yaml:"-"`
	CaseDBPath           string `yaml:"case_db_path"`
	Workers              int    `yaml:"workers"`
	EmitNameOnlyContacts bool   `yaml:"emit_name_only_contacts"`
	LogLevel             string `yaml:"log_level"`
	LogPath              string `yaml:"log_path"`
}

// GetAppDir returns the commscan application directory for the current OS
func GetAppDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Commscan")
	case "linux":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "commscan")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Commscan")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".commscan")
	}
}

// Load returns a Config built from defaults, the optional config.yaml in the
// app directory, and env overrides, in that order of precedence.
func Load() (*Config, error) {
	appDir := GetAppDir()

	cfg := &Config{
		AppDir:               appDir,
		CaseDBPath:           filepath.Join(appDir, "case.db"),
		Workers:              1,
		EmitNameOnlyContacts: true,
		LogLevel:             "info",
	}

	path := filepath.Join(appDir, "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.CaseDBPath = getEnv("COMMSCAN_CASE_DB", cfg.CaseDBPath)
	cfg.LogLevel = getEnv("COMMSCAN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogPath = getEnv("COMMSCAN_LOG_PATH", cfg.LogPath)
	if v := os.Getenv("COMMSCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("COMMSCAN_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("COMMSCAN_NAME_ONLY_CONTACTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COMMSCAN_NAME_ONLY_CONTACTS: %w", err)
		}
		cfg.EmitNameOnlyContacts = b
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
