package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Environment overrides are applied last, so WHISPER_MODEL and
// WHISPERCLIP_ASSISTANT_CMD win over file values.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(&cfg)
			if verr := Validate(cfg); verr != nil {
				return Loaded{}, verr
			}
			return Loaded{
				Path:   resolvedPath,
				Config: cfg,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	applyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:   resolvedPath,
		Config: cfg,
		Exists: true,
	}, nil
}

// Parse decodes YAML content over the default configuration. Unknown keys
// are rejected so typos surface instead of silently falling back.
func Parse(content []byte) (Config, error) {
	base := Default()

	fc := fileConfig{
		Model:        base.Model,
		ModelCache:   base.ModelCache,
		Audio:        base.Audio,
		ClipboardCmd: base.Clipboard.Raw,
		Assistant:    base.Assistant,
		Glossary:     base.Glossary,
		History:      base.History,
		Indicator:    base.Indicator,
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		// An empty file decodes to EOF; treat it as all-defaults.
		if strings.Contains(err.Error(), "EOF") {
			return base, nil
		}
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	clipboardArgv, err := SplitCommand(fc.ClipboardCmd)
	if err != nil {
		return Config{}, fmt.Errorf("clipboard_cmd: %w", err)
	}

	return Config{
		Model:      fc.Model,
		ModelCache: fc.ModelCache,
		Audio:      fc.Audio,
		Clipboard:  CommandConfig{Raw: fc.ClipboardCmd, Argv: clipboardArgv},
		Assistant:  fc.Assistant,
		Glossary:   fc.Glossary,
		History:    fc.History,
		Indicator:  fc.Indicator,
	}, nil
}

// Validate checks that cfg contains a coherent set of values.
func Validate(cfg Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if len(cfg.Clipboard.Argv) == 0 {
		errs = append(errs, errors.New("clipboard_cmd must not be empty"))
	}
	if strings.TrimSpace(cfg.Assistant.Command) == "" {
		errs = append(errs, errors.New("assistant.command must not be empty"))
	}
	if cfg.Assistant.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("assistant.timeout_seconds must be positive, got %d", cfg.Assistant.TimeoutSeconds))
	}

	return errors.Join(errs...)
}

// applyEnv layers environment overrides on top of file/default values.
func applyEnv(cfg *Config) {
	if model := strings.TrimSpace(os.Getenv(EnvModel)); model != "" {
		cfg.Model = model
	}
	if cmd := strings.TrimSpace(os.Getenv(EnvAssistantCmd)); cmd != "" {
		cfg.Assistant.Command = cmd
	}
}
