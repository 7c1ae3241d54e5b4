package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interactai/internal/di"
	"interactai/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, di.Config{
		GroqModel:       envService.Get(env.KeyGroqModel),
		BrowserHeadless: envService.GetBool(env.KeyHeadless, false),
		StartURL:        envService.GetDefault(env.KeyStartURL, "https://example.com"),
		DBPath:          envService.GetDefault(env.KeyDBPath, "interactai.db"),
		LogLevel:        envService.GetDefault(env.KeyLogLevel, "info"),
		LogFile:         envService.Get(env.KeyLogFile),
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	addr := envService.GetDefault(env.KeyHTTPAddr, ":8737")
	server := &http.Server{
		Addr:              addr,
		Handler:           container.HTTPServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		container.Logger.Info("HTTP surface listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			container.Logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	fmt.Println("Voice assistant ready. Send commands via the HTTP API or press Ctrl+C to exit.")

	if envService.GetBool(env.KeySpeechEnable, true) {
		go listenLoop(ctx, container)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Warn("HTTP shutdown failed", "error", err)
	}
	container.Logger.Info("Shut down cleanly")
}

// listenLoop runs back-to-back console recognition sessions until the
// process is stopped.
func listenLoop(ctx context.Context, container *di.Container) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		status, err := container.Session.ListenOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			container.Logger.Warn("Listen session failed", "error", err)
			continue
		}
		if status.Response != "" {
			fmt.Printf("\n%s\n", status.Response)
		}
	}
}
