// Package server exposes the dispatcher over HTTP: a streaming NDJSON chat
// endpoint plus health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/config"
	"github.com/haasonsaas/concierge/internal/dispatch"
	"github.com/haasonsaas/concierge/internal/llm"
	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/pkg/models"
)

// ChatFactory opens a model session for one turn.
type ChatFactory func(ctx context.Context, cfg llm.SessionConfig) (llm.Chat, error)

// Options wires the server's collaborators.
type Options struct {
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Registry   *apps.Registry
	Broker     broker.Broker
	Logger     *observability.Logger
	// NewChat defaults to llm.NewChat; tests inject fakes here.
	NewChat ChatFactory
}

// Server is the HTTP front end.
type Server struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	registry   *apps.Registry
	broker     broker.Broker
	logger     *observability.Logger
	newChat    ChatFactory
	httpServer *http.Server
}

// New builds the server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	newChat := opts.NewChat
	if newChat == nil {
		newChat = llm.NewChat
	}
	s := &Server{
		cfg:        opts.Config,
		dispatcher: opts.Dispatcher,
		registry:   opts.Registry,
		broker:     opts.Broker,
		logger:     logger.WithComponent("server"),
		newChat:    newChat,
	}
	s.httpServer = &http.Server{
		Addr:        opts.Config.Server.Addr(),
		Handler:     s.Handler(),
		ReadTimeout: opts.Config.Server.ReadTimeout,
	}
	return s
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages        []chatMessage        `json:"messages"`
	UserID          string               `json:"user_id"`
	RequiredApps    []string             `json:"required_apps,omitempty"`
	ConfirmedAction *models.ActionRecord `json:"confirmed_action,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	userInput := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			userInput = req.Messages[i].Content
			break
		}
	}
	if userInput == "" {
		writeError(w, http.StatusBadRequest, "no user message found")
		return
	}

	ctx := observability.AddRequestID(r.Context(), uuid.NewString())
	ctx = observability.AddUserID(ctx, req.UserID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	// Static answer for help prompts; no model session needed.
	if req.ConfirmedAction == nil && apps.IsCapabilitiesQuery(userInput) {
		writeEvent(w, models.NewMessage(apps.CapabilitySummary(), ""))
		flusher.Flush()
		return
	}

	tools, loadErrs := apps.LoadTools(ctx, s.broker, s.registry, req.UserID, req.RequiredApps, s.logger)
	for _, err := range loadErrs {
		s.logger.Warn(ctx, "tool load degraded", "error", err)
	}

	chat, err := s.newChat(ctx, llm.SessionConfig{
		Provider: s.cfg.LLM.Provider,
		Model:    s.cfg.LLM.Model,
		APIKey:   s.cfg.LLM.APIKey,
		BaseURL:  s.cfg.LLM.BaseURL,
		System:   s.systemPrompt(),
		Tools:    tools,
		History:  historyTurns(req.Messages),
	})
	if err != nil {
		s.logger.Error(ctx, "chat session failed", "error", err)
		writeEvent(w, models.NewMessage("An error occurred: "+err.Error(), ""))
		flusher.Flush()
		return
	}

	input := dispatch.TurnInput{
		UserInput:       userInput,
		UserID:          req.UserID,
		RequiredApps:    req.RequiredApps,
		ConfirmedAction: req.ConfirmedAction,
	}
	for ev := range s.dispatcher.Run(ctx, chat, input) {
		if err := writeEvent(w, ev); err != nil {
			s.logger.Warn(ctx, "client disconnected", "error", err)
			return
		}
		flusher.Flush()
	}
}

// historyTurns maps all but the final message into session history. The last
// message is the current input and is sent by the dispatcher itself.
func historyTurns(messages []chatMessage) []llm.Turn {
	if len(messages) <= 1 {
		return nil
	}
	turns := make([]llm.Turn, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		role := "assistant"
		if msg.Role == "user" {
			role = "user"
		}
		turns = append(turns, llm.Turn{Role: role, Content: msg.Content})
	}
	return turns
}

func (s *Server) systemPrompt() string {
	if s.cfg.LLM.SystemPrompt != "" {
		return s.cfg.LLM.SystemPrompt
	}
	return defaultSystemPrompt
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeEvent(w http.ResponseWriter, ev models.Event) error {
	line, err := models.EncodeEvent(ev)
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
