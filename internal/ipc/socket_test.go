package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRuntimeSocketPath(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(runtimeDir, "whisperclip.sock"), path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err = RuntimeSocketPath()
	require.Error(t, err)
}

func TestAcquireFreshPath(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "whisperclip.sock")

	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 0, nil)
	require.NoError(t, err)
	defer listener.Close()

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "whisperclip.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	rescueCalls := 0
	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 2, func(context.Context) error {
		rescueCalls++
		return nil
	})
	require.NoError(t, err)
	defer listener.Close()

	require.NotZero(t, rescueCalls, "stale-socket rescue should run before rebinding")
}

func TestAcquireRefusesWhenDaemonResponds(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "whisperclip.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, _ Request) Response {
			return Response{OK: true, State: "ready"}
		}))
	}()

	_, err = Acquire(context.Background(), socketPath, 80*time.Millisecond, 1, nil)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestAcquireKeepsSocketWhenProbeInconclusive(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "whisperclip.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	// Owner accepts but never answers, so the probe times out instead of
	// settling alive or dead.
	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Acquire(context.Background(), socketPath, 30*time.Millisecond, 0, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-acceptDone
}
