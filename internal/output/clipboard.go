// Package output places transcripts on the system clipboard.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/whisperclip/whisperclip/internal/config"
)

const commitTimeout = 2 * time.Second

// Committer writes transcript text to the clipboard via the configured
// external command (wl-copy by default), piping the text on stdin.
type Committer struct {
	config config.Config
	logger *slog.Logger
}

// NewCommitter constructs a clipboard committer from runtime config.
func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Committer{config: cfg, logger: logger}
}

// Commit writes transcript text to the clipboard. Empty text is a no-op.
func (c *Committer) Commit(ctx context.Context, transcript string) error {
	if transcript == "" {
		return nil
	}

	commitCtx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()
	if err := runCommandWithInput(commitCtx, c.config.Clipboard.Argv, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	c.logger.Debug("clipboard updated", "chars", len(transcript))
	return nil
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
