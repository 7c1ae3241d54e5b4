// Package session drives one voice command through the full round trip:
// listen, snapshot, interpret, execute, feedback. It owns the popup-side
// state machine and the bounded retry policy toward the page context.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"interactai/internal/application/port/input"
	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 300 * time.Millisecond
	defaultDisplayDelay = 3 * time.Second
	speechIdleDelay     = 1500 * time.Millisecond
)

// PageInjector restores a dead page context, the moral equivalent of
// re-injecting a content script after navigation. Detach is the other half:
// the controller declares the context dead after the page it was bound to
// is replaced.
type PageInjector interface {
	Attach()
	Detach(ctx context.Context)
	Attached() bool
}

// Config tunes retry and display timing so tests can run without real
// delays.
type Config struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	DisplayDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  defaultMaxAttempts,
		RetryBackoff: defaultRetryBackoff,
		DisplayDelay: defaultDisplayDelay,
	}
}

// UseCase is the session controller. One command runs at a time; starting a
// new recognition session cancels the old one.
type UseCase struct {
	bus        output.MessageBus
	injector   PageInjector
	recognizer output.SpeechRecognizer
	synth      output.SpeechSynthesizer
	settings   output.SettingsStore
	browser    output.BrowserPort
	logger     output.LoggerPort
	cfg        Config

	runMu sync.Mutex // serializes full command runs

	mu        sync.Mutex
	status    input.SessionStatus
	idleTimer *time.Timer
	listening bool
}

var _ input.SessionRunner = (*UseCase)(nil)

func New(
	bus output.MessageBus,
	injector PageInjector,
	recognizer output.SpeechRecognizer,
	synth output.SpeechSynthesizer,
	settings output.SettingsStore,
	browser output.BrowserPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.DisplayDelay <= 0 {
		cfg.DisplayDelay = defaultDisplayDelay
	}
	return &UseCase{
		bus:        bus,
		injector:   injector,
		recognizer: recognizer,
		synth:      synth,
		settings:   settings,
		browser:    browser,
		logger:     logger,
		cfg:        cfg,
		status:     input.SessionStatus{State: input.StateIdle},
	}
}

func (uc *UseCase) Status() input.SessionStatus {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.status
}

// ListenOnce toggles the recognizer. A session in progress is stopped;
// otherwise it captures one utterance and runs it as a command.
func (uc *UseCase) ListenOnce(ctx context.Context) (input.SessionStatus, error) {
	uc.mu.Lock()
	if uc.listening {
		uc.listening = false
		uc.mu.Unlock()
		uc.recognizer.Stop()
		uc.setState(input.StateIdle, "", "")
		return uc.Status(), nil
	}
	uc.listening = true
	uc.mu.Unlock()

	uc.setState(input.StateListening, "", "")

	transcript, err := uc.recognizer.Listen(ctx)

	uc.mu.Lock()
	uc.listening = false
	uc.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			uc.setState(input.StateIdle, "", "")
			return uc.Status(), ctx.Err()
		}
		msg := fmt.Sprintf("Recognition error: %v", err)
		if err == output.ErrNoSpeech {
			msg = "No speech detected. Please try again."
		}
		uc.setError("", msg)
		return uc.Status(), nil
	}

	display := fmt.Sprintf("%q (%d%% confidence)", transcript.Text, int(transcript.Confidence*100+0.5))
	uc.setState(input.StateProcessingSnapshot, display, "")

	return uc.RunCommand(ctx, transcript.Text)
}

// RunQuickAction resolves a preset and runs it like a spoken command.
func (uc *UseCase) RunQuickAction(ctx context.Context, action entity.QuickAction) (input.SessionStatus, error) {
	cmd, ok := action.Command()
	if !ok {
		uc.setError("", fmt.Sprintf("Unknown quick action: %s", action))
		return uc.Status(), nil
	}
	return uc.RunCommand(ctx, cmd)
}

// RunCommand takes one command text through snapshot, interpretation and
// execution. Pipeline failures land in the status display; only usage and
// cancellation errors propagate.
func (uc *UseCase) RunCommand(ctx context.Context, text string) (input.SessionStatus, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return uc.Status(), fmt.Errorf("empty command")
	}

	uc.runMu.Lock()
	defer uc.runMu.Unlock()

	uc.setState(input.StateProcessingSnapshot, fmt.Sprintf("Command: %q", text), "")

	snap, ok := uc.fetchSnapshot(ctx)
	if !ok {
		return uc.Status(), ctx.Err()
	}

	reply, ok := uc.interpret(ctx, text, snap)
	if !ok {
		return uc.Status(), ctx.Err()
	}

	if reply.IsAction() {
		uc.execute(ctx, reply)
	} else {
		uc.setState(input.StateSuccess, "", reply.Text)
		if s, err := uc.settings.Settings(ctx); err == nil && s.AutoSpeak {
			uc.speak(reply.Text)
		}
	}

	uc.scheduleIdle(uc.cfg.DisplayDelay)
	return uc.Status(), nil
}

// fetchSnapshot asks the page context for its current snapshot, retrying
// with reinjection. The second return is false only when the run should
// stop; the error state is already set.
func (uc *UseCase) fetchSnapshot(ctx context.Context) (*entity.PageSnapshot, bool) {
	resp, err := uc.sendWithRetry(ctx, entity.ContextPage, entity.BusRequest{
		ID:   uuid.NewString(),
		Type: entity.MsgGetSnapshot,
	})
	if err != nil {
		uc.failRun(fmt.Sprintf("Failed to get page content snapshot. Try refreshing the page. (%v)", err))
		return nil, false
	}
	if !resp.OK {
		uc.failRun(resp.Error)
		return nil, false
	}

	var snap entity.PageSnapshot
	if err := json.Unmarshal(resp.Payload, &snap); err != nil {
		uc.failRun(fmt.Sprintf("Malformed snapshot: %v", err))
		return nil, false
	}
	if snap.Error != "" {
		uc.failRun(snap.Error)
		return nil, false
	}
	return &snap, true
}

func (uc *UseCase) interpret(ctx context.Context, command string, snap *entity.PageSnapshot) (*entity.InterpretedReply, bool) {
	uc.setState(input.StateProcessingAI, "", "")

	payload, err := json.Marshal(entity.AIRequestPayload{Command: command, Snapshot: snap})
	if err != nil {
		uc.failRun(fmt.Sprintf("Encode request: %v", err))
		return nil, false
	}

	// The background context is always registered; no retry policy here.
	resp, err := uc.bus.Send(ctx, entity.ContextBackground, entity.BusRequest{
		ID:      uuid.NewString(),
		Type:    entity.MsgAIRequest,
		Payload: payload,
	})
	if err != nil {
		uc.failRun(fmt.Sprintf("AI service failed to respond: %v", err))
		return nil, false
	}
	if !resp.OK {
		uc.failRun(resp.Error)
		return nil, false
	}

	var reply entity.InterpretedReply
	if err := json.Unmarshal(resp.Payload, &reply); err != nil {
		uc.failRun(fmt.Sprintf("Malformed AI reply: %v", err))
		return nil, false
	}
	return &reply, true
}

// execute routes a directive: read results go to the synthesizer, a failed
// site_search falls back to a web search, everything else reports the
// dispatcher's own message.
func (uc *UseCase) execute(ctx context.Context, reply *entity.InterpretedReply) {
	d := *reply.Directive
	uc.setState(input.StateExecuting, "", fmt.Sprintf("Action requested: %s %q", d.Action, d.Text))

	result, err := uc.executeOnPage(ctx, d)
	if err != nil {
		uc.failRun(fmt.Sprintf("Action delivery failed: %v", err))
		return
	}

	switch {
	case d.Action == entity.ActionRead && result.Success:
		uc.speak(result.Text)
		uc.setState(input.StateSuccess, "", fmt.Sprintf("Reading the main page content (%d characters)...", len(result.Text)))
	case d.Action == entity.ActionSiteSearch && !result.Success:
		uc.webSearchFallback(ctx, d.Text)
	case result.Success:
		uc.setState(input.StateSuccess, "", result.Message)
	default:
		uc.failRun(result.Message)
	}

	if result.Success && leavesPage(result.Method) {
		// The page the context was bound to is gone; the next command
		// reinjects a fresh one.
		uc.injector.Detach(ctx)
	}
}

func leavesPage(method string) bool {
	switch method {
	case entity.MethodRedirect, entity.MethodClick, entity.MethodFormSubmit, entity.MethodButtonClick:
		return true
	}
	return false
}

func (uc *UseCase) executeOnPage(ctx context.Context, d entity.ActionDirective) (*entity.ActionResult, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode directive: %w", err)
	}

	resp, err := uc.sendWithRetry(ctx, entity.ContextPage, entity.BusRequest{
		ID:      uuid.NewString(),
		Type:    entity.MsgExecuteAction,
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%s", resp.Error)
	}

	var result entity.ActionResult
	if err := json.Unmarshal(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// webSearchFallback navigates to a search results page when the site itself
// offered no usable search input.
func (uc *UseCase) webSearchFallback(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		uc.failRun("No search query provided.")
		return
	}

	target := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := uc.browser.Navigate(ctx, target); err != nil {
		uc.failRun(fmt.Sprintf("Failed to open search results: %v", err))
		return
	}
	uc.injector.Detach(ctx)
	uc.setState(input.StateSuccess, "", fmt.Sprintf("Searching Google for %q.", query))
}

func (uc *UseCase) speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	uc.synth.Speak(context.Background(), output.Utterance{
		Text:   text,
		Rate:   1.0,
		Pitch:  1.0,
		Volume: 1.0,
		Lang:   "en-US",
	}, output.SpeechEvents{
		OnEnd: func() {
			uc.scheduleIdle(speechIdleDelay)
		},
		OnError: func(err error) {
			uc.logger.Warn("Speech synthesis failed", "error", err)
			uc.setError("", "Speech error")
		},
	})
}

func (uc *UseCase) failRun(message string) {
	uc.setError("", "Error: "+message)
	uc.scheduleIdle(uc.cfg.DisplayDelay)
}

func (uc *UseCase) setError(transcript, response string) {
	uc.setState(input.StateError, transcript, response)
}

// setState swaps the displayed status, keeping transcript and response when
// the new value is empty so mid-run transitions do not wipe the display.
func (uc *UseCase) setState(state input.SessionState, transcript, response string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if transcript == "" && state != input.StateIdle && state != input.StateListening {
		transcript = uc.status.Transcript
	}
	if response == "" && state != input.StateIdle && state != input.StateListening {
		response = uc.status.Response
	}
	uc.status = input.SessionStatus{State: state, Transcript: transcript, Response: response}
}

// scheduleIdle arms the auto-return to Idle after the display delay. The
// return is skipped while the synthesizer is speaking or after the state
// moved on.
func (uc *UseCase) scheduleIdle(after time.Duration) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.idleTimer != nil {
		uc.idleTimer.Stop()
	}
	uc.idleTimer = time.AfterFunc(after, func() {
		if uc.synth.Speaking() {
			uc.scheduleIdle(after)
			return
		}
		uc.mu.Lock()
		defer uc.mu.Unlock()
		if uc.status.State == input.StateSuccess || uc.status.State == input.StateError {
			uc.status = input.SessionStatus{State: input.StateIdle}
		}
	})
}
