package interpreter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

// requestTimeout time-boxes the provider round trip so a hanging request
// cannot block the session state machine.
const requestTimeout = 30 * time.Second

const defaultTemperature = 0.1

// ErrEmptyCommand is an input error: reported inline, never retried.
var ErrEmptyCommand = errors.New("empty command")

// UseCase combines a command and a page snapshot into one model round trip
// and parses the reply into a typed result. It owns the in-flight request
// set: at most one outstanding request per exact command string.
type UseCase struct {
	llm      output.LLMPort
	settings output.SettingsStore
	logger   output.LoggerPort

	mu     sync.Mutex
	active map[string]struct{}
}

func New(llm output.LLMPort, settings output.SettingsStore, logger output.LoggerPort) *UseCase {
	return &UseCase{
		llm:      llm,
		settings: settings,
		logger:   logger,
		active:   make(map[string]struct{}),
	}
}

func (uc *UseCase) Interpret(ctx context.Context, command string, snap *entity.PageSnapshot) (*entity.InterpretedReply, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}

	if !uc.begin(command) {
		return nil, entity.NewAIError(entity.AIErrBusy, 0,
			"Request already in progress.", "Wait for the current command to finish.")
	}
	defer uc.end(command)

	maxTokens := entity.DefaultSettings().MaxTokens
	if s, err := uc.settings.Settings(ctx); err == nil && s.MaxTokens > 0 {
		maxTokens = s.MaxTokens
	}

	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	uc.logger.Debug("Interpreting command",
		"command", command, "snapshotChars", snap.SerializedLen(), "maxTokens", maxTokens)

	raw, err := uc.llm.Complete(callCtx, output.CompletionRequest{
		Messages:    buildMessages(command, snap),
		MaxTokens:   maxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		uc.logger.Error("Model request failed", "command", command, "error", err)
		return nil, err
	}

	reply := parseReply(raw, command)
	if reply.IsAction() {
		uc.logger.Info("Parsed action directive",
			"action", reply.Directive.Action, "text", reply.Directive.Text)
	} else {
		uc.logger.Debug("Parsed text reply", "chars", len(reply.Text))
	}
	return reply, nil
}

func (uc *UseCase) begin(command string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.active[command]; busy {
		return false
	}
	uc.active[command] = struct{}{}
	return true
}

func (uc *UseCase) end(command string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.active, command)
}
