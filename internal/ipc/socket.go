package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAlreadyRunning means a live daemon already owns the socket.
var ErrAlreadyRunning = errors.New("whisperclip daemon already running")

// RuntimeSocketPath returns the daemon socket location under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "whisperclip.sock"), nil
}

// Acquire binds the daemon socket, taking over a stale one left behind by a
// crashed process. A path whose owner still answers the probe yields
// ErrAlreadyRunning; an unresponsive owner keeps the socket in place and
// fails the acquire. The optional rescue hook runs after each stale-socket
// removal, before the bind is retried.
func Acquire(
	ctx context.Context,
	path string,
	probeTimeout time.Duration,
	retries int,
	rescue func(context.Context) error,
) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		if err := reclaimStaleSocket(ctx, path, probeTimeout); err != nil {
			return nil, err
		}
		if rescue != nil {
			_ = rescue(ctx)
		}

		if attempt >= retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, retries)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
		}
	}
}

// reclaimStaleSocket unlinks path once it is confirmed dead. A responsive
// owner or an inconclusive probe leaves the socket alone.
func reclaimStaleSocket(ctx context.Context, path string, probeTimeout time.Duration) error {
	alive, probeErr := Probe(ctx, path, probeTimeout)
	if alive {
		return ErrAlreadyRunning
	}
	if probeErr != nil {
		return fmt.Errorf("probe existing socket %s: %w", path, probeErr)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}

func isAddrInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
