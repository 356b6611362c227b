// Package config resolves, parses, validates, and defaults whisperclip configuration.
package config

// EnvModel selects the default transcription model name.
const EnvModel = "WHISPER_MODEL"

// EnvAssistantCmd overrides the external assistant command string.
const EnvAssistantCmd = "WHISPERCLIP_ASSISTANT_CMD"

// AvailableModels lists the whisper model names surfaced in help and doctor
// output. SelectModel accepts any non-empty name; these are the ones the
// model host is known to serve.
var AvailableModels = []string{"base", "small", "medium", "large"}

// Config is the fully materialized runtime configuration used by whisperclip.
type Config struct {
	Model      string
	ModelCache string
	Audio      AudioConfig
	Clipboard  CommandConfig
	Assistant  AssistantConfig
	Glossary   GlossaryConfig
	History    HistoryConfig
	Indicator  IndicatorConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string `yaml:"input"`
	Fallback string `yaml:"fallback"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// AssistantConfig controls the external glossary-correction assistant.
type AssistantConfig struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	WorkDir        string `yaml:"workdir"`
}

// GlossaryConfig controls glossary rewriting and term persistence.
type GlossaryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HistoryConfig controls the transcript history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IndicatorConfig controls desktop notification behavior.
type IndicatorConfig struct {
	Enable         bool   `yaml:"enable"`
	AppName        string `yaml:"app_name"`
	ErrorTimeoutMS int    `yaml:"error_timeout_ms"`
}

// Warning is a non-fatal load/validation message.
type Warning struct {
	Message string
}

// fileConfig is the YAML shape of the config file. Command strings stay raw
// here and are parsed into argv form during materialization.
type fileConfig struct {
	Model        string          `yaml:"model"`
	ModelCache   string          `yaml:"model_cache_dir"`
	Audio        AudioConfig     `yaml:"audio"`
	ClipboardCmd string          `yaml:"clipboard_cmd"`
	Assistant    AssistantConfig `yaml:"assistant"`
	Glossary     GlossaryConfig  `yaml:"glossary"`
	History      HistoryConfig   `yaml:"history"`
	Indicator    IndicatorConfig `yaml:"indicator"`
}

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Model:      "small",
		ModelCache: "",
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustSplitCommand(clipboard)},
		Assistant: AssistantConfig{
			Command:        "codex",
			TimeoutSeconds: 90,
		},
		Glossary: GlossaryConfig{Enabled: false},
		History:  HistoryConfig{Enabled: true},
		Indicator: IndicatorConfig{
			Enable:         true,
			AppName:        "whisperclip",
			ErrorTimeoutMS: 1600,
		},
	}
}
