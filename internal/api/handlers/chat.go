package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ragchat/internal/history"
	"ragchat/internal/rag"
)

// Answerer produces the assistant reply for one question.
type Answerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
}

type ChatHandler struct {
	sessions *history.Service
	answerer Answerer
}

func NewChatHandler(sessions *history.Service, answerer Answerer) *ChatHandler {
	return &ChatHandler{sessions: sessions, answerer: answerer}
}

func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	sessions, err := h.sessions.ListSessions(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []history.Session{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chat session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat session deleted successfully"})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if _, err := h.sessions.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chat session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages, err := h.sessions.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []history.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}

// SendMessage persists the user's question, runs the answer pipeline, and
// persists the assistant reply with its sources. Pipeline degradation still
// produces an assistant message; only persistence failures are errors here.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	if _, err := h.sessions.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chat session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.sessions.AppendMessage(r.Context(), id, "user", req.Content, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	answer, err := h.answerer.Answer(r.Context(), req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.sessions.AppendMessage(r.Context(), id, "assistant", answer.Text, answer.Sources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, reply)
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return 0, false
	}
	return id, true
}
