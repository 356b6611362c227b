package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Recorder opens one capture stream per recording, resolving the configured
// input/fallback preference at start time so device hotplug between
// dictations is picked up.
type Recorder struct {
	logger   *slog.Logger
	input    string
	fallback string

	mu      sync.Mutex
	capture *Capture
}

// NewRecorder constructs a recorder with input/fallback device preferences.
func NewRecorder(logger *slog.Logger, input string, fallback string) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{logger: logger, input: input, fallback: fallback}
}

// Start resolves the capture device and arms a fresh record stream.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		return errors.New("capture already running")
	}

	selection, err := SelectDevice(ctx, r.input, r.fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning)
	}

	capture, err := StartCapture(ctx, selection.Device)
	if err != nil {
		return err
	}

	r.logger.Info("capture started", "device", DescribeDevice(selection.Device), "fallback", selection.Fallback)
	r.capture = capture
	return nil
}

// Stop halts the active stream and returns everything it captured. Stopping
// without an active stream returns no samples and no error.
func (r *Recorder) Stop(_ context.Context) ([]float32, error) {
	r.mu.Lock()
	capture := r.capture
	r.capture = nil
	r.mu.Unlock()

	if capture == nil {
		return nil, nil
	}

	if err := capture.Stop(); err != nil {
		return nil, err
	}

	samples := capture.Samples()
	r.logger.Info("capture stopped", "device", DescribeDevice(capture.Device()), "samples", len(samples))
	return samples, nil
}
