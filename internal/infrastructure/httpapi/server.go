// Package httpapi exposes the popup surface over HTTP: command execution,
// quick actions, key management, settings and a live page preview.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"interactai/internal/application/port/input"
	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const keyPrefix = "gsk_"

type Server struct {
	session  input.SessionRunner
	settings output.SettingsStore
	llm      output.LLMPort
	browser  output.BrowserPort
	logger   output.LoggerPort
	router   chi.Router
}

func NewServer(
	session input.SessionRunner,
	settings output.SettingsStore,
	llm output.LLMPort,
	browser output.BrowserPort,
	logger output.LoggerPort,
) *Server {
	s := &Server{
		session:  session,
		settings: settings,
		llm:      llm,
		browser:  browser,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	httpLogger := httplog.NewLogger("interactai", httplog.Options{Concise: true})
	r.Use(httplog.RequestLogger(httpLogger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/command", s.handleCommand)
		r.Post("/quick/{name}", s.handleQuickAction)
		r.Post("/listen", s.handleListen)
		r.Get("/status", s.handleStatus)

		r.Put("/key", s.handleSaveKey)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)

		r.Get("/screenshot", s.handleScreenshot)
	})

	s.router = r
}

type commandRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "command text is required")
		return
	}

	status, err := s.session.RunCommand(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	name := entity.QuickAction(chi.URLParam(r, "name"))
	if _, ok := name.Command(); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown quick action: %s", name))
		return
	}

	status, err := s.session.RunQuickAction(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	status, err := s.session.ListenOnce(r.Context())
	if err != nil && !errors.Is(err, r.Context().Err()) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

type saveKeyRequest struct {
	Key string `json:"key"`
}

type saveKeyResponse struct {
	Saved bool   `json:"saved"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// handleSaveKey stores the key and checks it with a minimal provider round
// trip. A malformed key is rejected before anything is written.
func (s *Server) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	var req saveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" || !strings.HasPrefix(key, keyPrefix) {
		writeError(w, http.StatusBadRequest, "please enter a valid Groq API key starting with 'gsk_'")
		return
	}

	if err := s.settings.SaveAPIKey(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save key: %v", err))
		return
	}

	resp := saveKeyResponse{Saved: true, Valid: true}
	if err := s.llm.ValidateKey(r.Context()); err != nil {
		resp.Valid = false
		var aiErr *entity.AIError
		if errors.As(err, &aiErr) {
			resp.Error = aiErr.UserMessage()
		} else {
			resp.Error = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("read settings: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings entity.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if settings.HighlightDuration <= 0 || settings.MaxTokens <= 0 {
		writeError(w, http.StatusBadRequest, "highlightDuration and maxTokens must be positive")
		return
	}

	if err := s.settings.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save settings: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	shot, err := s.browser.Screenshot(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("screenshot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/"+shot.Format)
	w.Header().Set("X-Image-Width", fmt.Sprint(shot.Width))
	w.Header().Set("X-Image-Height", fmt.Sprint(shot.Height))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(shot.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
