package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// SampleRate is the fixed capture rate expected by the speech model.
const SampleRate = 16000

// Capture accumulates 16kHz mono float32 samples from one Pulse source.
// Chunks arrive in callback order and are concatenated verbatim by Samples,
// so chunk boundaries never affect the transcription input.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	mu      sync.Mutex
	chunks  [][]float32
	stopped bool

	samples atomic.Int64
}

// StartCapture creates and starts a 16kHz mono float32 record stream.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("whisperclip"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device: selected,
		client: client,
	}

	stream, err := client.NewRecord(
		pulse.Float32Writer(capture.onSamples),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordMediaName("whisperclip dictation"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = capture.Stop()
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// SamplesCaptured reports total samples accepted from Pulse.
func (c *Capture) SamplesCaptured() int64 {
	return c.samples.Load()
}

// Stop halts the stream and releases the Pulse connection exactly once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// Samples returns the linear concatenation of all captured chunks.
func (c *Capture) Samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, chunk := range c.chunks {
		total += len(chunk)
	}
	out := make([]float32, 0, total)
	for _, chunk := range c.chunks {
		out = append(out, chunk...)
	}
	return out
}

// onSamples receives raw Pulse frames while the stream is armed.
func (c *Capture) onSamples(buffer []float32) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	chunk := make([]float32, len(buffer))
	copy(chunk, buffer)
	c.chunks = append(c.chunks, chunk)
	c.mu.Unlock()

	c.samples.Add(int64(len(buffer)))
	return len(buffer), nil
}
