package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath returns the config file path, preferring an explicit override.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GlossaryPath resolves the glossary store location for a loaded config.
func GlossaryPath(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.Glossary.Path) != "" {
		return cfg.Glossary.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "glossary.json"), nil
}

// ModelCacheDir resolves where downloaded model weights are kept.
func ModelCacheDir(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.ModelCache) != "" {
		return cfg.ModelCache, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "whisperclip", "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "whisperclip", "models"), nil
}

// HistoryPath resolves the transcript history database location.
func HistoryPath(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.History.Path) != "" {
		return cfg.History.Path, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}

// StateDir returns the whisperclip state directory (logs, history).
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "whisperclip"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "whisperclip"), nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "whisperclip"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "whisperclip"), nil
}
