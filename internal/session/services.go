package session

import (
	"context"
	"errors"
	"time"

	"github.com/whisperclip/whisperclip/internal/glossary"
)

var (
	// ErrModelNotLoaded indicates a record request arrived before any model handle exists.
	ErrModelNotLoaded = errors.New("model not loaded yet")
	// ErrServicesUnavailable indicates runtime capture/ASR wiring is missing.
	ErrServicesUnavailable = errors.New("audio capture and transcription services not wired")
)

// ModelHandle is an opaque loaded speech model tagged with its name.
// Handles backed by native allocations should also implement io.Closer; the
// controller closes a handle when it is replaced, superseded, or the session
// shuts down.
type ModelHandle interface {
	ModelName() string
}

// ModelLoader resolves and loads a named speech model.
type ModelLoader interface {
	Load(ctx context.Context, name string) (ModelHandle, error)
}

// Recorder owns one microphone capture stream between Start and Stop.
// Stop returns the captured samples in capture order and releases the stream.
type Recorder interface {
	Start(context.Context) error
	Stop(context.Context) ([]float32, error)
}

// Transcriber runs speech recognition over captured samples.
type Transcriber interface {
	Transcribe(ctx context.Context, handle ModelHandle, samples []float32) (string, time.Duration, error)
}

// Rewriter corrects a transcript against glossary terms.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, terms []glossary.Term) (string, time.Duration, error)
}

// DictationRecord is one completed dictation handed to the history sink.
type DictationRecord struct {
	Model     string
	Text      string
	Seconds   float64
	Corrected bool
}

// Historian persists completed dictations.
type Historian interface {
	Record(context.Context, DictationRecord) error
}

// HistorianFunc adapts a function to the Historian interface.
type HistorianFunc func(context.Context, DictationRecord) error

func (f HistorianFunc) Record(ctx context.Context, rec DictationRecord) error {
	return f(ctx, rec)
}

// placeholderLoader preserves controller flow when no model loader is wired.
type placeholderLoader struct{}

func (placeholderLoader) Load(context.Context, string) (ModelHandle, error) {
	return nil, ErrServicesUnavailable
}

// placeholderRecorder preserves controller flow when no capture is wired.
type placeholderRecorder struct{}

func (placeholderRecorder) Start(context.Context) error {
	return ErrServicesUnavailable
}

func (placeholderRecorder) Stop(context.Context) ([]float32, error) {
	return nil, ErrServicesUnavailable
}

// placeholderTranscriber preserves controller flow when no ASR is wired.
type placeholderTranscriber struct{}

func (placeholderTranscriber) Transcribe(context.Context, ModelHandle, []float32) (string, time.Duration, error) {
	return "", 0, ErrServicesUnavailable
}

// passthroughRewriter returns the transcript unchanged when no rewriter is wired.
type passthroughRewriter struct{}

func (passthroughRewriter) Rewrite(_ context.Context, text string, _ []glossary.Term) (string, time.Duration, error) {
	return text, 0, nil
}

// IsServicesUnavailable reports whether an error represents missing service wiring.
func IsServicesUnavailable(err error) bool {
	return errors.Is(err, ErrServicesUnavailable)
}
