// Package httpapi exposes the chatbot over HTTP and websocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neurochat/neurochat/bot"
	"github.com/neurochat/neurochat/observability"
)

// Server routes chat and memory management requests to a Bot.
type Server struct {
	bot      *bot.Bot
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New builds a Server. Browser websocket connections are restricted to
// the same origin; non-browser clients without an Origin header pass.
func New(b *bot.Bot, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		bot: b,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// Router returns the HTTP handler for all endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/stats", s.handleGlobalStats)
	r.Get("/v1/users/{id}/stats", s.handleUserStats)
	r.Get("/v1/users/{id}/recent", s.handleRecent)
	r.Post("/v1/users/{id}/clear", s.handleClear)
	r.Delete("/v1/users/{id}", s.handleDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"character": s.bot.Character().Name(),
	})
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	requestID := uuid.New().String()
	reply, err := s.bot.Chat(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.log.Error("chat failed",
			zap.String("request_id", requestID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "chat_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{
		RequestID: requestID,
		UserID:    req.UserID,
		Reply:     reply,
	})
}

// handleChatWS runs a persistent chat session over a websocket. Each
// inbound chatRequest produces exactly one chatResponse.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	defaultUser := strings.TrimSpace(r.URL.Query().Get("user_id"))
	conn.SetReadLimit(1 << 20)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.UserID == "" {
			req.UserID = defaultUser
		}
		if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Message) == "" {
			_ = conn.WriteJSON(errorResponse{Error: "user_id and message are required", Code: "invalid_request"})
			continue
		}

		reply, err := s.bot.Chat(r.Context(), req.UserID, req.Message)
		if err != nil {
			s.log.Error("websocket chat failed",
				zap.String("user_id", req.UserID), zap.Error(err))
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "chat_failed"})
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
		if err := conn.WriteJSON(chatResponse{
			RequestID: uuid.New().String(),
			UserID:    req.UserID,
			Reply:     reply,
		}); err != nil {
			return
		}
	}
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bot.Statistics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	stats, err := s.bot.Stats(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(w, http.StatusBadRequest, "invalid_n", "n must be a non-negative integer")
			return
		}
		n = v
	}
	memories, err := s.bot.Recent(r.Context(), userID, n)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "recent_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"memories": memories,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	s.bot.ClearShortTerm(userID)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"cleared": true,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	result, err := s.bot.DeleteAll(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
