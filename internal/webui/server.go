package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liteplex/liteplex/internal/agent"
	"github.com/liteplex/liteplex/internal/config"
)

// Server exposes the assistant over HTTP: an SSE chat endpoint, a
// WebSocket mirror of it, stop/config/health endpoints, and a small
// built-in page.
type Server struct {
	assistant *agent.Assistant
	log       *zap.Logger
	startedAt time.Time

	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

func NewServer(assistant *agent.Assistant, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		assistant: assistant,
		log:       log,
		startedAt: time.Now().UTC(),
		sessions:  make(map[string]context.CancelFunc),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

// registerSession installs the cancel function for a session, stopping
// any stream already running under the same id first.
func (s *Server) registerSession(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	if prev, ok := s.sessions[id]; ok {
		prev()
	}
	s.sessions[id] = cancel
	s.mu.Unlock()
}

func (s *Server) unregisterSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) stopSession(id string) bool {
	s.mu.Lock()
	cancel, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmOverride struct {
	Provider    string  `json:"provider"`
	APIKey      string  `json:"apiKey"`
	ModelName   string  `json:"modelName"`
	VLLMURL     string  `json:"vllmUrl"`
	Temperature float32 `json:"temperature"`
}

type searchOverride struct {
	NumQueries    int   `json:"numQueries"`
	MemoryEnabled *bool `json:"memoryEnabled"`
}

type chatRequest struct {
	Messages     []wireMessage   `json:"messages"`
	SessionID    string          `json:"sessionId"`
	LLMConfig    *llmOverride    `json:"llmConfig"`
	SearchConfig *searchOverride `json:"searchConfig"`
}

// splitQuestion separates the trailing user turn (the question) from
// the history preceding it.
func splitQuestion(msgs []wireMessage) (string, []agent.Message, bool) {
	last := len(msgs) - 1
	for last >= 0 && msgs[last].Role != "user" {
		last--
	}
	if last < 0 {
		return "", nil, false
	}

	history := make([]agent.Message, 0, last)
	for _, m := range msgs[:last] {
		role := m.Role
		if role != "user" && role != "assistant" {
			continue
		}
		history = append(history, agent.Message{Role: role, Content: m.Content})
	}
	return strings.TrimSpace(msgs[last].Content), history, true
}

func streamOptions(req chatRequest, history []agent.Message) agent.StreamOptions {
	opts := agent.StreamOptions{History: history}
	if req.LLMConfig != nil {
		opts.LLM = &config.LLMConfig{
			Provider:    req.LLMConfig.Provider,
			APIKey:      req.LLMConfig.APIKey,
			Model:       req.LLMConfig.ModelName,
			BaseURL:     req.LLMConfig.VLLMURL,
			Temperature: req.LLMConfig.Temperature,
		}
	}
	if req.SearchConfig != nil {
		opts.NumQueries = req.SearchConfig.NumQueries
		opts.MemoryEnabled = req.SearchConfig.MemoryEnabled
	}
	return opts
}

// handleChat streams the answer as server-sent events, one JSON event
// per data line. The stream ends after a done or error event, or when
// the session is stopped.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	question, history, ok := splitQuestion(req.Messages)
	if !ok || question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a user message is required"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	s.registerSession(sessionID, cancel)
	defer s.unregisterSession(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Info("chat stream started",
		zap.String("session", sessionID),
		zap.Int("history", len(history)))

	for ev := range s.assistant.StreamChat(ctx, question, streamOptions(req, history)) {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			cancel()
			break
		}
		flusher.Flush()
	}
}

type stopRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
		return
	}

	stopped := s.stopSession(req.SessionID)
	s.log.Info("stop requested",
		zap.String("session", req.SessionID),
		zap.Bool("active", stopped))
	writeJSON(w, http.StatusOK, map[string]any{"stopped": stopped})
}

type configView struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	BaseURL       string `json:"baseUrl"`
	SearchEngine  string `json:"searchEngine"`
	NumQueries    int    `json:"numQueries"`
	MemoryEnabled bool   `json:"memoryEnabled"`
}

type configUpdate struct {
	LLMConfig    *llmOverride    `json:"llmConfig"`
	SearchConfig *searchOverride `json:"searchConfig"`
}

// handleConfig reads or hot-swaps the runtime configuration. Secrets
// never appear in the GET view.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rc := s.assistant.Runtime()
		writeJSON(w, http.StatusOK, configView{
			Provider:      rc.LLM.Provider,
			Model:         rc.LLM.Model,
			BaseURL:       rc.LLM.BaseURL,
			SearchEngine:  rc.Search.PrimaryEngine,
			NumQueries:    rc.Search.NumQueries,
			MemoryEnabled: rc.Search.MemoryEnabled,
		})

	case http.MethodPost:
		var req configUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}

		rc := s.assistant.Runtime()
		if o := req.LLMConfig; o != nil {
			if o.Provider != "" {
				rc.LLM.Provider = o.Provider
			}
			if o.APIKey != "" {
				rc.LLM.APIKey = o.APIKey
			}
			if o.ModelName != "" {
				rc.LLM.Model = o.ModelName
			}
			if o.VLLMURL != "" {
				rc.LLM.BaseURL = o.VLLMURL
			}
			if o.Temperature > 0 {
				rc.LLM.Temperature = o.Temperature
			}
			s.assistant.SetLLMConfig(rc.LLM)
		}
		if o := req.SearchConfig; o != nil {
			if o.NumQueries > 0 {
				rc.Search.NumQueries = o.NumQueries
			}
			if o.MemoryEnabled != nil {
				rc.Search.MemoryEnabled = *o.MemoryEnabled
			}
			s.assistant.SetSearchConfig(rc.Search)
		}

		s.log.Info("runtime config updated",
			zap.String("provider", rc.LLM.Provider),
			zap.String("model", rc.LLM.Model))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
