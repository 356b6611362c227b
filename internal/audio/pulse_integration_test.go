//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListDevicesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
}

func TestCaptureIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	recorder := NewRecorder(nil, "default", "")
	require.NoError(t, recorder.Start(ctx))

	time.Sleep(500 * time.Millisecond)

	samples, err := recorder.Stop(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, samples)
}
