// Package app dispatches parsed CLI commands to the daemon or runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/whisperclip/whisperclip/internal/asr"
	"github.com/whisperclip/whisperclip/internal/assist"
	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/cli"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/doctor"
	"github.com/whisperclip/whisperclip/internal/glossary"
	"github.com/whisperclip/whisperclip/internal/history"
	"github.com/whisperclip/whisperclip/internal/indicator"
	"github.com/whisperclip/whisperclip/internal/ipc"
	"github.com/whisperclip/whisperclip/internal/logging"
	"github.com/whisperclip/whisperclip/internal/output"
	"github.com/whisperclip/whisperclip/internal/rewrite"
	"github.com/whisperclip/whisperclip/internal/session"
	"github.com/whisperclip/whisperclip/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("whisperclip"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("whisperclip"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, ipc.Request{Command: "toggle"})
	case cli.CommandStart:
		return r.forwardOrFail(ctx, ipc.Request{Command: "start"})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: "stop"})
	case cli.CommandCopy:
		return r.forwardOrFail(ctx, ipc.Request{Command: "copy"})
	case cli.CommandModel:
		return r.forwardOrFail(ctx, ipc.Request{Command: "model", Arg: parsed.Args[0]})
	case cli.CommandGlossary:
		return r.commandGlossary(ctx, cfgLoaded.Config, parsed.Args)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.Args)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandServe(ctx context.Context, cfgLoaded config.Loaded, logger *slog.Logger) int {
	cfg := cfgLoaded.Config

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	cacheDir, err := config.ModelCacheDir(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: resolve model cache dir: %v\n", err)
		return 1
	}

	deps := session.Deps{
		Loader:      asr.NewLoader(logger, cacheDir),
		Recorder:    audio.NewRecorder(logger, cfg.Audio.Input, cfg.Audio.Fallback),
		Transcriber: asr.NewService(logger, ""),
		Rewriter: rewrite.New(assist.New(
			cfg.Assistant.Command,
			assist.WithTimeout(time.Duration(cfg.Assistant.TimeoutSeconds)*time.Second),
			assist.WithWorkDir(cfg.Assistant.WorkDir),
		), logger),
		Committer: output.NewCommitter(cfg, logger),
		Notify:    indicator.NewNotifier(cfg.Indicator, logger).Notify,
	}

	if cfg.History.Enabled {
		historyPath, pathErr := config.HistoryPath(cfg)
		if pathErr != nil {
			fmt.Fprintf(r.Stderr, "warning: history disabled: %v\n", pathErr)
		} else if store, openErr := history.Open(historyPath); openErr != nil {
			fmt.Fprintf(r.Stderr, "warning: history disabled: %v\n", openErr)
			logger.Warn("open history store failed", "path", historyPath, "error", openErr.Error())
		} else {
			defer func() { _ = store.Close() }()
			deps.Historian = store
		}
	}

	controller := session.NewController(logger, deps)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	ctrlDone := make(chan error, 1)
	go func() { ctrlDone <- controller.Run(runCtx) }()

	glossaryPath, err := config.GlossaryPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: glossary disabled: %v\n", err)
	} else {
		if terms, loadErr := glossary.Load(glossaryPath); loadErr != nil {
			fmt.Fprintf(r.Stderr, "warning: load glossary: %v\n", loadErr)
			logger.Warn("load glossary failed", "path", glossaryPath, "error", loadErr.Error())
		} else {
			controller.SetGlossaryTerms(terms)
		}
		controller.SetGlossaryEnabled(cfg.Glossary.Enabled)
	}

	controller.SelectModel(cfg.Model)

	logger.Info("daemon listening",
		"socket", socketPath,
		"model", cfg.Model,
		"glossary", controller.GlossaryEnabled(),
	)

	serveErr := ipc.Serve(ctx, listener, daemonHandler(controller, glossaryPath, logger))
	runCancel()
	<-ctrlDone

	if serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serveErr)
		return 1
	}
	return 0
}

// daemonHandler routes requests to the controller, intercepting glossary-sync
// so CLI edits to the glossary file take effect in the running daemon.
func daemonHandler(controller *session.Controller, glossaryPath string, logger *slog.Logger) ipc.Handler {
	return ipc.HandlerFunc(func(ctx context.Context, req ipc.Request) ipc.Response {
		if req.Command == "glossary-sync" {
			if glossaryPath == "" {
				return ipc.Response{OK: false, Error: "glossary path is not configured"}
			}
			terms, err := glossary.Load(glossaryPath)
			if err != nil {
				logger.Warn("glossary sync failed", "error", err.Error())
				return ipc.Response{OK: false, Error: fmt.Sprintf("reload glossary: %v", err)}
			}
			controller.SetGlossaryTerms(terms)
			return ipc.Response{OK: true, Message: fmt.Sprintf("glossary reloaded (%d terms)", len(terms))}
		}
		return controller.Handle(ctx, req)
	})
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio input devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(r.Stdout, "%s %s\n", defaultMark, audio.DescribeDevice(device))
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"})
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	state := resp.State
	if state == "" {
		state = "idle"
	}
	if resp.Message != "" {
		fmt.Fprintf(r.Stdout, "%s (%s)\n", state, resp.Message)
	} else {
		fmt.Fprintln(r.Stdout, state)
	}
	return 0
}

func (r Runner) commandGlossary(ctx context.Context, cfg config.Config, args []string) int {
	sub := args[0]

	if sub == cli.GlossaryOn || sub == cli.GlossaryOff {
		return r.forwardOrFail(ctx, ipc.Request{Command: "glossary-" + sub})
	}

	path, err := config.GlossaryPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	terms, err := glossary.Load(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	switch sub {
	case cli.GlossaryList:
		if len(terms) == 0 {
			fmt.Fprintln(r.Stdout, "glossary is empty")
			return 0
		}
		for _, term := range terms {
			if term.Description != "" {
				fmt.Fprintf(r.Stdout, "%s\t%s\n", term.Term, term.Description)
			} else {
				fmt.Fprintln(r.Stdout, term.Term)
			}
		}
		return 0
	case cli.GlossaryAdd:
		entry := glossary.Term{Term: args[1]}
		if len(args) > 2 {
			entry.Description = args[2]
		}
		terms = upsertTerm(terms, entry)
		if err := glossary.Save(path, terms); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(r.Stdout, "added %q\n", strings.TrimSpace(entry.Term))
	case cli.GlossaryRemove:
		next, removed := removeTerm(terms, args[1])
		if !removed {
			fmt.Fprintf(r.Stderr, "error: term %q not found\n", args[1])
			return 1
		}
		if err := glossary.Save(path, next); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(r.Stdout, "removed %q\n", args[1])
	default:
		fmt.Fprintf(r.Stderr, "error: unknown glossary subcommand %q\n", sub)
		return 2
	}

	r.nudgeGlossarySync(ctx)
	return 0
}

// nudgeGlossarySync asks a running daemon to reload the glossary file. No
// daemon is fine; the next serve picks the file up on startup.
func (r Runner) nudgeGlossarySync(ctx context.Context) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return
	}
	if _, handled, forwardErr := tryForward(ctx, socketPath, ipc.Request{Command: "glossary-sync"}); handled && forwardErr != nil {
		fmt.Fprintf(r.Stderr, "warning: daemon glossary reload failed: %v\n", forwardErr)
	}
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, args []string) int {
	count := 10
	if len(args) == 1 {
		count, _ = strconv.Atoi(args[0])
	}

	path, err := config.HistoryPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if _, statErr := os.Stat(path); statErr != nil {
		fmt.Fprintln(r.Stdout, "no history yet")
		return 0
	}

	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, count)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no history yet")
		return 0
	}

	for _, entry := range entries {
		marker := " "
		if entry.Corrected {
			marker = "g"
		}
		fmt.Fprintf(r.Stdout, "%s %s [%s] %s\n",
			entry.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			marker,
			entry.Model,
			entry.Text,
		)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: whisperclip daemon is not running (start it with `whisperclip serve`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward reports handled=false only when no daemon is reachable, so
// callers can distinguish "not running" from a daemon-side failure.
func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func upsertTerm(terms []glossary.Term, entry glossary.Term) []glossary.Term {
	normalized := strings.TrimSpace(entry.Term)
	for i, existing := range terms {
		if strings.EqualFold(existing.Term, normalized) {
			terms[i] = glossary.Term{Term: normalized, Description: strings.TrimSpace(entry.Description)}
			return terms
		}
	}
	return append(terms, glossary.Term{Term: normalized, Description: strings.TrimSpace(entry.Description)})
}

func removeTerm(terms []glossary.Term, name string) ([]glossary.Term, bool) {
	out := make([]glossary.Term, 0, len(terms))
	removed := false
	for _, existing := range terms {
		if strings.EqualFold(existing.Term, strings.TrimSpace(name)) {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	return out, removed
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
