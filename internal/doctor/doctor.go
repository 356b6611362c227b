// Package doctor runs runtime readiness diagnostics for config, tools, and audio.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/whisperclip/whisperclip/internal/assist"
	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkSession())
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkAssistant(cfg.Config))
	checks = append(checks, checkModelCache(cfg.Config))
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications use busctl"))
	}

	return Report{Checks: checks}
}

// checkSession reports whether this looks like a Wayland session. The stock
// clipboard command is wl-copy, which needs one.
func checkSession() Check {
	session := os.Getenv("XDG_SESSION_TYPE")
	if session == "wayland" {
		return Check{Name: "session", Pass: true, Message: "XDG_SESSION_TYPE=wayland"}
	}
	return Check{
		Name:    "session",
		Pass:    false,
		Message: fmt.Sprintf("XDG_SESSION_TYPE=%q; wl-copy needs a Wayland session (override clipboard_cmd otherwise)", session),
	}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAssistant resolves the configured assistant command the same way the
// rewrite path does.
func checkAssistant(cfg config.Config) Check {
	argv, err := assist.ResolveCommand(cfg.Assistant.Command)
	if err != nil {
		return Check{Name: "assistant", Pass: false, Message: err.Error()}
	}
	return Check{Name: "assistant", Pass: true, Message: fmt.Sprintf("resolved to %s", argv[0])}
}

// checkModelCache verifies the weights cache dir can be created and written.
func checkModelCache(cfg config.Config) Check {
	dir, err := config.ModelCacheDir(cfg)
	if err != nil {
		return Check{Name: "model_cache", Pass: false, Message: err.Error()}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "model_cache", Pass: false, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}

	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return Check{Name: "model_cache", Pass: false, Message: fmt.Sprintf("cannot write to %s: %v", dir, err)}
	}
	_ = os.Remove(probe)

	message := fmt.Sprintf("writable at %s", dir)
	if cached := cachedModels(dir); len(cached) > 0 {
		message += fmt.Sprintf(" (cached: %s)", strings.Join(cached, ", "))
	}
	return Check{Name: "model_cache", Pass: true, Message: message}
}

// cachedModels lists the short names of already-downloaded weight files.
func cachedModels(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "ggml-*.bin"))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		name := strings.TrimSuffix(strings.TrimPrefix(base, "ggml-"), ".bin")
		names = append(names, name)
	}
	return names
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}
