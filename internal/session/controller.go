// Package session coordinates dictation lifecycle state, intents, and commit flow.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/whisperclip/whisperclip/internal/fsm"
	"github.com/whisperclip/whisperclip/internal/glossary"
	"github.com/whisperclip/whisperclip/internal/ipc"
)

// Deps bundles the services a controller orchestrates. Nil fields fall back
// to safe placeholders so partial wiring still yields a responsive daemon.
type Deps struct {
	Loader      ModelLoader
	Recorder    Recorder
	Transcriber Transcriber
	Rewriter    Rewriter
	Committer   Committer
	Historian   Historian
	Notify      func(Status)
}

// Controller orchestrates the dictation session. All session state is owned
// by the single goroutine running Run; public methods post intents onto that
// loop and wait for the resulting status, and background task completions are
// marshalled onto the same loop. At most one primary task (model load,
// transcription, glossary rewrite) is in flight at any time.
type Controller struct {
	logger      *slog.Logger
	loader      ModelLoader
	recorder    Recorder
	transcriber Transcriber
	rewriter    Rewriter
	commit      Committer
	history     Historian
	notify      func(Status)

	mu    sync.RWMutex
	state fsm.State
	last  Status

	intents  chan func()
	notifyCh chan Status
	closed   chan struct{}

	// loop-owned session data
	runCtx          context.Context
	modelName       string
	handle          ModelHandle
	loadingName     string
	pendingModel    string
	recording       bool
	latest          string
	lastSeconds     float64
	glossaryEnabled bool
	terms           []glossary.Term
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, deps Deps) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Loader == nil {
		deps.Loader = placeholderLoader{}
	}
	if deps.Recorder == nil {
		deps.Recorder = placeholderRecorder{}
	}
	if deps.Transcriber == nil {
		deps.Transcriber = placeholderTranscriber{}
	}
	if deps.Rewriter == nil {
		deps.Rewriter = passthroughRewriter{}
	}
	if deps.Committer == nil {
		deps.Committer = CommitFunc(func(context.Context, string) error { return nil })
	}
	if deps.Historian == nil {
		deps.Historian = HistorianFunc(func(context.Context, DictationRecord) error { return nil })
	}
	if deps.Notify == nil {
		deps.Notify = func(Status) {}
	}

	return &Controller{
		logger:      logger,
		loader:      deps.Loader,
		recorder:    deps.Recorder,
		transcriber: deps.Transcriber,
		rewriter:    deps.Rewriter,
		commit:      deps.Committer,
		history:     deps.Historian,
		notify:      deps.Notify,
		state:       fsm.StateIdle,
		last:        Status{Kind: KindIdle, ModelEnabled: true},
		intents:     make(chan func()),
		notifyCh:    make(chan Status, 64),
		closed:      make(chan struct{}),
		runCtx:      context.Background(),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the most recently published status.
func (c *Controller) Snapshot() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Run executes the session event loop until ctx is cancelled. Status
// notifications are delivered in order from a separate goroutine so a slow
// observer never stalls intent handling.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx

	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		for s := range c.notifyCh {
			c.notify(s)
		}
	}()

	defer func() {
		c.releaseHandle(c.handle)
		c.handle = nil
		close(c.notifyCh)
		<-notifierDone
		close(c.closed)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.intents:
			fn()
		}
	}
}

// SelectModel requests a switch to the named model. While a load is already
// in flight the name is remembered and applied when that load settles; the
// last name issued wins and no intermediate loads run.
func (c *Controller) SelectModel(name string) Status {
	return c.do(func() Status { return c.selectModel(name) })
}

// StartRecording arms microphone capture when a model handle exists.
func (c *Controller) StartRecording() Status {
	return c.do(func() Status { return c.startRecording() })
}

// StopRecording disarms capture and launches transcription over whatever was
// captured. Calling it while not recording is a no-op.
func (c *Controller) StopRecording() Status {
	return c.do(func() Status { return c.stopRecording() })
}

// Toggle starts recording when idle and stops it when armed.
func (c *Controller) Toggle() Status {
	return c.do(func() Status {
		if c.recording {
			return c.stopRecording()
		}
		return c.startRecording()
	})
}

// CopyLatest re-commits the latest transcript to the clipboard. With no
// transcript yet it does nothing and publishes no status.
func (c *Controller) CopyLatest() Status {
	return c.do(func() Status { return c.copyLatest() })
}

// SetGlossaryEnabled toggles the glossary rewrite pass.
func (c *Controller) SetGlossaryEnabled(enabled bool) Status {
	return c.do(func() Status {
		c.glossaryEnabled = enabled
		if enabled {
			return c.emit(c.restingKind(), "Glossary enabled.")
		}
		return c.emit(c.restingKind(), "Glossary disabled.")
	})
}

// SetGlossaryTerms replaces the glossary term list. Terms are trimmed and
// empty terms dropped; persistence is the caller's concern.
func (c *Controller) SetGlossaryTerms(terms []glossary.Term) Status {
	normalized := glossary.Normalize(terms)
	return c.do(func() Status {
		c.terms = normalized
		return c.emit(c.restingKind(), fmt.Sprintf("Glossary updated (%d terms).", len(normalized)))
	})
}

// GlossaryEnabled reports whether the rewrite pass is currently on.
func (c *Controller) GlossaryEnabled() bool {
	enabled := false
	c.do(func() Status {
		enabled = c.glossaryEnabled
		return c.Snapshot()
	})
	return enabled
}

// Handle serves IPC commands against the running session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.toResponse(c.Snapshot())
	case "toggle":
		return c.toResponse(c.Toggle())
	case "start":
		return c.toResponse(c.StartRecording())
	case "stop":
		return c.toResponse(c.StopRecording())
	case "model":
		if strings.TrimSpace(req.Arg) == "" {
			return ipc.Response{OK: false, State: string(c.State()), Error: "model name required"}
		}
		return c.toResponse(c.SelectModel(req.Arg))
	case "copy":
		return c.toResponse(c.CopyLatest())
	case "glossary-on":
		return c.toResponse(c.SetGlossaryEnabled(true))
	case "glossary-off":
		return c.toResponse(c.SetGlossaryEnabled(false))
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// do runs fn on the event loop and returns its status.
func (c *Controller) do(fn func() Status) Status {
	reply := make(chan Status, 1)
	select {
	case c.intents <- func() { reply <- fn() }:
	case <-c.closed:
		return Status{Kind: KindError, Message: "session loop not running"}
	}
	select {
	case s := <-reply:
		return s
	case <-c.closed:
		return Status{Kind: KindError, Message: "session loop not running"}
	}
}

// post delivers a background completion to the event loop.
func (c *Controller) post(fn func()) {
	select {
	case c.intents <- fn:
	case <-c.closed:
	}
}

func (c *Controller) selectModel(name string) Status {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.emit(KindError, "Model name required.")
	}
	if c.recording {
		return c.emit(KindError, "Stop recording before switching models.")
	}
	switch c.State() {
	case fsm.StateTranscribing, fsm.StateCorrecting:
		return c.emit(KindError, "Busy; try again when the current dictation settles.")
	}
	if c.loadingName != "" {
		c.pendingModel = name
		return c.emit(KindLoading, fmt.Sprintf("Model switch to %s queued.", name))
	}
	return c.startLoad(name)
}

// startLoad begins loading the named model and releases the previous handle.
func (c *Controller) startLoad(name string) Status {
	if err := c.transition(fsm.EventLoad); err != nil {
		return c.emit(KindError, err.Error())
	}
	c.loadingName = name
	c.modelName = name
	c.releaseHandle(c.handle)
	c.handle = nil

	go func() {
		handle, err := c.loader.Load(c.runCtx, name)
		c.post(func() { c.finishLoad(name, handle, err) })
	}()

	c.logger.Info("model load started", "model", name)
	return c.emit(KindLoading, fmt.Sprintf("Loading model %s...", name))
}

func (c *Controller) finishLoad(name string, handle ModelHandle, err error) {
	if name != c.loadingName {
		c.logger.Debug("discarding superseded model load", "model", name)
		c.releaseHandle(handle)
		return
	}
	c.loadingName = ""

	if next := c.pendingModel; next != "" {
		c.pendingModel = ""
		c.logger.Info("discarding settled load for pending switch", "settled", name, "pending", next)
		c.releaseHandle(handle)
		c.startLoad(next)
		return
	}

	if err != nil {
		c.logger.Error("model load failed", "model", name, "error", err)
		_ = c.transition(fsm.EventFail)
		c.emit(KindError, fmt.Sprintf("Model load failed: %v", err))
		return
	}

	c.handle = handle
	_ = c.transition(fsm.EventLoaded)
	c.logger.Info("model ready", "model", name)
	c.emit(KindReady, fmt.Sprintf("Model %s ready.", name))
}

func (c *Controller) startRecording() Status {
	if c.recording {
		return c.emit(KindRecording, "Already recording.")
	}
	if c.handle == nil {
		return c.emit(KindError, "Model not loaded yet.")
	}
	if err := c.transition(fsm.EventStart); err != nil {
		return c.emit(KindError, "Busy; try again when the current dictation settles.")
	}

	if err := c.recorder.Start(c.runCtx); err != nil {
		c.logger.Error("capture start failed", "error", err)
		c.toErrorAndReset()
		return c.emit(KindError, fmt.Sprintf("Microphone error: %v", err))
	}

	c.recording = true
	c.logger.Info("recording started", "model", c.modelName)
	return c.emit(KindRecording, "Recording...")
}

func (c *Controller) stopRecording() Status {
	if !c.recording {
		return c.Snapshot()
	}
	c.recording = false

	samples, err := c.recorder.Stop(c.runCtx)
	if err != nil {
		c.logger.Error("capture stop failed", "error", err)
		c.toErrorAndReset()
		return c.emit(KindError, fmt.Sprintf("Microphone error: %v", err))
	}

	if len(samples) == 0 {
		_ = c.transition(fsm.EventAbort)
		c.logger.Info("recording stopped with empty buffer")
		return c.emit(KindNoSpeech, "No audio captured.")
	}

	if err := c.transition(fsm.EventStop); err != nil {
		c.toErrorAndReset()
		return c.emit(KindError, err.Error())
	}

	handle := c.handle
	go func() {
		text, elapsed, terr := c.transcriber.Transcribe(c.runCtx, handle, samples)
		c.post(func() { c.finishTranscribe(text, elapsed, terr) })
	}()

	c.logger.Info("transcription started", "samples", len(samples), "model", c.modelName)
	return c.emit(KindTranscribing, "Transcribing...")
}

func (c *Controller) finishTranscribe(text string, elapsed time.Duration, err error) {
	if err != nil {
		c.logger.Error("transcription failed", "error", err)
		c.toErrorAndReset()
		c.emit(KindError, fmt.Sprintf("Transcription failed: %v", err))
		return
	}

	text = strings.TrimSpace(text)
	c.lastSeconds = elapsed.Seconds()

	if text == "" {
		_ = c.transition(fsm.EventTranscribed)
		c.emit(KindNoSpeech, "No speech detected.")
		return
	}

	// Clipboard gets the raw transcript before any glossary pass so a slow
	// or failing rewrite never withholds the dictation.
	c.latest = text
	if cerr := c.commit.Commit(c.runCtx, text); cerr != nil {
		c.logger.Error("clipboard commit failed", "error", cerr)
		c.toErrorAndReset()
		c.emit(KindError, fmt.Sprintf("Clipboard error: %v", cerr))
		return
	}
	c.recordHistory(text, c.lastSeconds, false)

	if c.glossaryEnabled && len(c.terms) > 0 {
		_ = c.transition(fsm.EventCorrect)
		terms := append([]glossary.Term(nil), c.terms...)
		go func() {
			corrected, relapsed, rerr := c.rewriter.Rewrite(c.runCtx, text, terms)
			c.post(func() { c.finishRewrite(text, corrected, elapsed+relapsed, rerr) })
		}()
		c.emit(KindCorrecting, "Applying glossary...")
		return
	}

	_ = c.transition(fsm.EventTranscribed)
	c.logger.Info("dictation complete", "chars", len(text), "seconds", c.lastSeconds)
	c.emit(KindDone, "Copied to clipboard.")
}

func (c *Controller) finishRewrite(original, corrected string, total time.Duration, err error) {
	if err != nil {
		// The pre-glossary transcript is already on the clipboard and stays
		// the latest text; a rewrite failure never blanks a dictation.
		c.logger.Error("glossary rewrite failed", "error", err)
		c.toErrorAndReset()
		c.emit(KindError, fmt.Sprintf("Glossary failed: %v", err))
		return
	}

	c.lastSeconds = total.Seconds()

	c.latest = corrected
	if cerr := c.commit.Commit(c.runCtx, corrected); cerr != nil {
		c.logger.Error("clipboard commit failed", "error", cerr)
		c.toErrorAndReset()
		c.emit(KindError, fmt.Sprintf("Clipboard error: %v", cerr))
		return
	}
	if corrected != original {
		c.recordHistory(corrected, c.lastSeconds, true)
	}

	_ = c.transition(fsm.EventCorrected)
	c.logger.Info("dictation complete", "chars", len(c.latest), "seconds", c.lastSeconds, "corrected", corrected != original)
	c.emit(KindDone, "Copied to clipboard.")
}

func (c *Controller) copyLatest() Status {
	if strings.TrimSpace(c.latest) == "" {
		return c.Snapshot()
	}
	if err := c.commit.Commit(c.runCtx, c.latest); err != nil {
		c.logger.Error("clipboard commit failed", "error", err)
		return c.emit(KindError, fmt.Sprintf("Clipboard error: %v", err))
	}
	return c.emit(c.restingKind(), "Copied to clipboard.")
}

func (c *Controller) recordHistory(text string, seconds float64, corrected bool) {
	rec := DictationRecord{Model: c.modelName, Text: text, Seconds: seconds, Corrected: corrected}
	if err := c.history.Record(c.runCtx, rec); err != nil {
		c.logger.Warn("history record failed", "error", err)
	}
}

// restingKind maps the current FSM state to a neutral status kind for
// messages that do not change the lifecycle.
func (c *Controller) restingKind() Kind {
	switch c.State() {
	case fsm.StateIdle:
		return KindIdle
	case fsm.StateLoading:
		return KindLoading
	case fsm.StateRecording:
		return KindRecording
	case fsm.StateTranscribing:
		return KindTranscribing
	case fsm.StateCorrecting:
		return KindCorrecting
	case fsm.StateError:
		return KindError
	default:
		return KindReady
	}
}

// emit publishes one status snapshot to observers and stores it for Snapshot.
func (c *Controller) emit(kind Kind, message string) Status {
	state := c.State()
	s := Status{
		Kind:          kind,
		Message:       message,
		Model:         c.modelName,
		Text:          c.latest,
		Seconds:       c.lastSeconds,
		RecordEnabled: state == fsm.StateReady && c.handle != nil,
		ModelEnabled:  modelSelectable(state) && !c.recording,
	}

	c.mu.Lock()
	c.last = s
	c.mu.Unlock()

	select {
	case c.notifyCh <- s:
	default:
		c.logger.Debug("dropping status notification", "kind", s.Kind)
	}
	return s
}

func modelSelectable(state fsm.State) bool {
	switch state {
	case fsm.StateIdle, fsm.StateReady, fsm.StateError, fsm.StateLoading:
		return true
	default:
		return false
	}
}

func (c *Controller) toResponse(s Status) ipc.Response {
	resp := ipc.Response{
		OK:      s.Kind != KindError,
		State:   string(c.State()),
		Message: s.Message,
		Text:    s.Text,
	}
	if s.Kind == KindError {
		resp.Message = ""
		resp.Error = s.Message
	}
	return resp
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// releaseHandle frees a model handle that is no longer installed. whisper
// model weights are native allocations the GC never reclaims, so every
// replaced or superseded handle must be closed exactly once.
func (c *Controller) releaseHandle(handle ModelHandle) {
	if handle == nil {
		return
	}
	closer, ok := handle.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		c.logger.Warn("model handle close failed", "model", handle.ModelName(), "error", err)
	}
}

// toErrorAndReset transitions to error and back to ready best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}
