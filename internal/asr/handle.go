// Package asr loads whisper speech models and runs inference over captured
// audio. The whisper.cpp static library (libwhisper.a) and headers must be
// available at link time via LIBRARY_PATH and C_INCLUDE_PATH.
package asr

import (
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Handle is one loaded whisper model tagged with its short name.
type Handle struct {
	name  string
	model whisperlib.Model
}

// ModelName returns the short model name this handle was loaded for.
func (h *Handle) ModelName() string { return h.name }

// Close releases the underlying model.
func (h *Handle) Close() error {
	if h.model != nil {
		return h.model.Close()
	}
	return nil
}
