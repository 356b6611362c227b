package audio

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureConcatenationIgnoresChunkBoundaries(t *testing.T) {
	expected := make([]float32, 1000)
	for i := range expected {
		expected[i] = float32(i) / 1000
	}

	// The same sample stream delivered with different chunk sizes must
	// produce identical concatenations.
	for _, chunkSize := range []int{1, 7, 160, 1000} {
		capture := &Capture{}
		for offset := 0; offset < len(expected); offset += chunkSize {
			end := offset + chunkSize
			if end > len(expected) {
				end = len(expected)
			}
			n, err := capture.onSamples(expected[offset:end])
			require.NoError(t, err)
			require.Equal(t, end-offset, n)
		}

		require.Equal(t, expected, capture.Samples())
		require.Equal(t, int64(len(expected)), capture.SamplesCaptured())
	}
}

func TestCaptureCopiesCallbackBuffers(t *testing.T) {
	capture := &Capture{}

	buffer := []float32{0.1, 0.2, 0.3}
	_, err := capture.onSamples(buffer)
	require.NoError(t, err)

	// Pulse reuses its callback buffer between deliveries.
	buffer[0] = 99
	require.Equal(t, []float32{0.1, 0.2, 0.3}, capture.Samples())
}

func TestCaptureOnSamplesAfterStop(t *testing.T) {
	capture := &Capture{}
	require.NoError(t, capture.Stop())

	n, err := capture.onSamples([]float32{0.1})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Empty(t, capture.Samples())
}

func TestCaptureStopIdempotent(t *testing.T) {
	capture := &Capture{device: Device{ID: "mic-1"}}
	require.Equal(t, "mic-1", capture.Device().ID)
	require.NoError(t, capture.Stop())
	require.NoError(t, capture.Stop())
}

func TestCaptureEmptySamples(t *testing.T) {
	capture := &Capture{}
	require.Empty(t, capture.Samples())

	n, err := capture.onSamples(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRecorderStopWithoutStart(t *testing.T) {
	recorder := NewRecorder(nil, "default", "")

	samples, err := recorder.Stop(context.Background())
	require.NoError(t, err)
	require.Nil(t, samples)
}

func TestRecorderStartFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	recorder := NewRecorder(nil, "default", "")
	require.Error(t, recorder.Start(context.Background()))
}
