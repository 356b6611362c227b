package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/whisperclip/whisperclip/internal/session"
)

const defaultLanguage = "en"

// Service runs whisper inference over captured float32 samples.
type Service struct {
	logger   *slog.Logger
	language string
}

// NewService constructs a transcription service. An empty language defaults
// to English.
func NewService(logger *slog.Logger, language string) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(language) == "" {
		language = defaultLanguage
	}
	return &Service{logger: logger, language: language}
}

// Transcribe runs inference over samples with the given model handle and
// returns the recognized text and elapsed wall time. Empty input returns
// empty text without error. Each call uses a fresh whisper context; contexts
// are not thread-safe but the shared model is.
func (s *Service) Transcribe(ctx context.Context, handle session.ModelHandle, samples []float32) (string, time.Duration, error) {
	start := time.Now()

	if len(samples) == 0 {
		return "", time.Since(start), nil
	}
	if err := ctx.Err(); err != nil {
		return "", time.Since(start), err
	}

	h, ok := handle.(*Handle)
	if !ok || h == nil || h.model == nil {
		return "", time.Since(start), errors.New("transcribe: no loaded whisper model handle")
	}

	wctx, err := h.model.NewContext()
	if err != nil {
		return "", time.Since(start), fmt.Errorf("create whisper context: %w", err)
	}

	if err := wctx.SetLanguage(s.language); err != nil {
		s.logger.Warn("failed to set language, using model default", "language", s.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", time.Since(start), fmt.Errorf("process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", time.Since(start), fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	elapsed := time.Since(start)
	s.logger.Debug("transcription finished",
		"model", h.ModelName(),
		"samples", len(samples),
		"chars", len(text),
		"seconds", elapsed.Seconds(),
	)
	return text, elapsed, nil
}
