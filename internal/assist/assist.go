// Package assist invokes an external command-line text assistant and
// recovers its final answer.
//
// The assistant is treated as an opaque subprocess. Each Ask performs up to
// two invocation attempts: the full prompt on stdin first, then the prompt
// flattened to a single line as a trailing argument. An attempt only
// succeeds on exit code zero with usable output, recovered with the
// precedence output-file > stdout > stderr. The output file is a fresh
// temporary file the assistant is asked to write its last message to, and is
// always removed afterward.
package assist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/whisperclip/whisperclip/internal/config"
)

// DefaultTimeout bounds one Ask call including both attempts.
const DefaultTimeout = 90 * time.Second

// errNoOutput marks a zero-exit attempt that produced nothing usable. Only
// this failure triggers the flattened-prompt retry; process-level failures
// (non-zero exit, timeout) end the call immediately.
var errNoOutput = errors.New("assistant produced no output")

// defaultSystemInstruction keeps answers terse and free of follow-ups so the
// raw response can be used verbatim.
const defaultSystemInstruction = "Answer the user's query directly and concisely. " +
	"Do not ask follow-up questions unless the user explicitly requests them. " +
	"If uncertain, state the uncertainty briefly."

// Client runs assistant queries against a configured base command.
type Client struct {
	command string
	timeout time.Duration
	workDir string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithWorkDir sets the working directory the assistant runs in.
func WithWorkDir(dir string) Option {
	return func(c *Client) { c.workDir = dir }
}

// New creates a Client for the given raw command string (e.g. "codex" or a
// full path with arguments).
func New(command string, opts ...Option) *Client {
	c := &Client{command: command, timeout: DefaultTimeout}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ResolveCommand splits raw into argv and resolves its executable: a direct
// file path is used as-is, otherwise PATH is searched, with .cmd/.exe/.bat
// shims tried on Windows since Node CLIs commonly install as shims there.
func ResolveCommand(raw string) ([]string, error) {
	parts, err := config.SplitCommand(raw)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errors.New("assistant command is empty")
	}

	exe := parts[0]
	if info, statErr := os.Stat(exe); statErr == nil && !info.IsDir() {
		return parts, nil
	}

	if resolved, lookErr := exec.LookPath(exe); lookErr == nil {
		parts[0] = resolved
		return parts, nil
	}

	if runtime.GOOS == "windows" {
		for _, ext := range []string{".cmd", ".exe", ".bat"} {
			if resolved, lookErr := exec.LookPath(exe + ext); lookErr == nil {
				parts[0] = resolved
				return parts, nil
			}
		}
	}

	return nil, fmt.Errorf("assistant executable not found for %q; set %s to a full command", exe, config.EnvAssistantCmd)
}

// buildPrompt wraps the user query with the system instruction so assistants
// without a dedicated system channel still behave.
func buildPrompt(query string, instruction string) string {
	return "System instruction:\n" +
		strings.TrimSpace(instruction) + "\n\n" +
		"User query:\n" +
		strings.TrimSpace(query) + "\n\n" +
		"Now return only the final answer to the user query."
}

// attempt is one planned subprocess invocation.
type attempt struct {
	args  []string
	stdin string
}

// Ask sends query to the assistant and returns its final answer text.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("assistant query is empty")
	}

	base, err := ResolveCommand(c.command)
	if err != nil {
		return "", err
	}

	prompt := buildPrompt(query, defaultSystemInstruction)
	singleLine := strings.Join(strings.Split(prompt, "\n"), " ")

	outputFile, err := os.CreateTemp("", "whisperclip-last-message-*.txt")
	if err != nil {
		return "", fmt.Errorf("create assistant output file: %w", err)
	}
	outputPath := outputFile.Name()
	_ = outputFile.Close()
	defer os.Remove(outputPath)

	common := append(append([]string(nil), base[1:]...),
		"exec", "--skip-git-repo-check", "--output-last-message", outputPath)

	attempts := []attempt{
		{args: append(append([]string(nil), common...), "-"), stdin: prompt + "\n"},
		{args: append(append([]string(nil), common...), singleLine)},
	}

	deadline, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for _, a := range attempts {
		text, attemptErr := c.run(deadline, base[0], a, outputPath)
		if attemptErr == nil {
			return text, nil
		}
		lastErr = attemptErr
		if !errors.Is(attemptErr, errNoOutput) {
			break
		}
	}

	return "", fmt.Errorf("all assistant invocation attempts failed: %w", lastErr)
}

// run executes one attempt and applies the output recovery precedence.
func (c *Client) run(ctx context.Context, exe string, a attempt, outputPath string) (string, error) {
	cmd := exec.CommandContext(ctx, exe, a.args...)
	cmd.Dir = c.workDir
	if a.stdin != "" {
		cmd.Stdin = strings.NewReader(a.stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("assistant timed out: %w", ctx.Err())
	}

	errText := strings.TrimSpace(stderr.String())
	if runErr != nil {
		if errText != "" {
			return "", fmt.Errorf("assistant command failed: %w (stderr: %s)", runErr, errText)
		}
		return "", fmt.Errorf("assistant command failed: %w", runErr)
	}

	// Exit code zero from here on: first non-empty source wins.
	if content, readErr := os.ReadFile(outputPath); readErr == nil {
		if text := strings.TrimSpace(string(content)); text != "" {
			return text, nil
		}
	}
	if text := strings.TrimSpace(stdout.String()); text != "" {
		return text, nil
	}
	if errText != "" {
		return errText, nil
	}

	return "", errNoOutput
}
