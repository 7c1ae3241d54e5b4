// Package di wires the three contexts together: page (browser, extractor,
// dispatcher), background (interpreter, provider) and popup (session,
// speech, HTTP surface), all joined by the in-process bus.
package di

import (
	"context"
	"fmt"
	"os"

	"interactai/internal/application/port/input"
	"interactai/internal/application/port/output"
	"interactai/internal/application/service"
	"interactai/internal/infrastructure/browser/rod"
	"interactai/internal/infrastructure/bus"
	"interactai/internal/infrastructure/httpapi"
	"interactai/internal/infrastructure/llm/groq"
	"interactai/internal/infrastructure/logger"
	"interactai/internal/infrastructure/settings/sqlite"
	"interactai/internal/infrastructure/speech"
	"interactai/internal/usecase/dispatcher"
	"interactai/internal/usecase/interpreter"
	"interactai/internal/usecase/session"
	"interactai/internal/usecase/snapshot"
)

type Config struct {
	GroqModel       string
	BrowserHeadless bool
	StartURL        string
	DBPath          string
	LogLevel        string
	LogFile         string
}

type Container struct {
	Logger   output.LoggerPort
	Browser  output.BrowserPort
	Settings output.SettingsStore
	LLM      output.LLMPort
	Bus      output.MessageBus
	Session  input.SessionRunner

	PageContext       *service.PageContext
	BackgroundContext *service.BackgroundContext
	HTTPServer        *httpapi.Server
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browser, err := rod.New(ctx, browserCfg)
	if err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	llmCfg := groq.DefaultConfig()
	if cfg.GroqModel != "" {
		llmCfg.Model = cfg.GroqModel
	}
	llmCfg.Logger = log.WithField("component", "llm")
	llm := groq.NewGroqAdapter(store, llmCfg)

	messageBus := bus.New(log.WithField("component", "bus"))

	tables, err := dispatcher.LoadNavTables()
	if err != nil {
		browser.Close()
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to load navigation tables: %w", err)
	}

	disp := dispatcher.New(browser, tables, log.WithField("context", "page"), dispatcher.DefaultConfig())
	extractor := snapshot.NewExtractor()
	pageCtx := service.NewPageContext(messageBus, browser, extractor, disp, log.WithField("context", "page"))

	interp := interpreter.New(llm, store, log.WithField("context", "background"))
	backgroundCtx := service.NewBackgroundContext(messageBus, interp, log.WithField("context", "background"))

	recognizer := speech.NewConsoleRecognizer(os.Stdin, os.Stdout)
	synthesizer := speech.NewConsoleSynthesizer(os.Stdout)

	runner := session.New(
		messageBus,
		pageCtx,
		recognizer,
		synthesizer,
		store,
		browser,
		log.WithField("context", "popup"),
		session.DefaultConfig(),
	)

	httpServer := httpapi.NewServer(runner, store, llm, browser, log.WithField("component", "http"))

	pageCtx.Attach()
	backgroundCtx.Attach()

	if cfg.StartURL != "" {
		if err := browser.Navigate(ctx, cfg.StartURL); err != nil {
			log.Warn("Failed to open start URL", "url", cfg.StartURL, "error", err)
		}
	}

	return &Container{
		Logger:            log,
		Browser:           browser,
		Settings:          store,
		LLM:               llm,
		Bus:               messageBus,
		Session:           runner,
		PageContext:       pageCtx,
		BackgroundContext: backgroundCtx,
		HTTPServer:        httpServer,
	}, nil
}

func (c *Container) Close() {
	if c.Bus != nil {
		c.Bus.Close()
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Settings != nil {
		_ = c.Settings.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
