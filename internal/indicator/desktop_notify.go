package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyObject = "/org/freedesktop/Notifications"
)

// desktopNotify posts a freedesktop notification over DBus via busctl and
// returns the server-assigned notification ID. A non-zero replaceID updates
// the existing notification in place instead of stacking a new one.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	out, err := busctlCall(ctx,
		"Notify",
		"susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		"", // icon
		summary,
		"", // body
		"0", // actions array length
		"0", // hints map length
		strconv.Itoa(timeoutMS),
	)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}

	// busctl prints the reply signature and value, e.g. "u 42".
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", out)
	}
	id, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(id), nil
}

// desktopDismiss closes a notification by ID.
func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctlCall(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss: %w", err)
	}
	return nil
}

// busctlCall invokes one method on the session notification service.
func busctlCall(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyDest, notifyObject, notifyDest, method, signature}, args...)

	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, trimmed)
	}
	return trimmed, nil
}
