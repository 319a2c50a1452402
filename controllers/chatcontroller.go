package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/healthq/healthq/auth"
	"github.com/healthq/healthq/chat"
	"github.com/healthq/healthq/logger"
	"github.com/healthq/healthq/models"
)

type ChatController struct {
	Dispatcher *chat.Dispatcher
	Tokens     *auth.Tokens
	Log        *logger.Logger
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (chatController *ChatController) Chat(w http.ResponseWriter, r *http.Request) {
	userID, err := chatController.Tokens.Authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := chatRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, models.Validation("Message is required"))
		return
	}

	reply, err := chatController.Dispatcher.Send(r.Context(), userID, req.Message, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// ChatStream delivers the reply as chunked plain text. The session id is
// carried in the X-Session-ID header since the body is raw reply text.
func (chatController *ChatController) ChatStream(w http.ResponseWriter, r *http.Request) {
	userID, err := chatController.Tokens.Authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := chatRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, models.Validation("Message is required"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		session, err := chatController.Dispatcher.CurrentSession(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		sessionID = session.SessionID
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, models.Internal(nil))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-ID", sessionID)
	w.WriteHeader(http.StatusOK)

	_, err = chatController.Dispatcher.Stream(r.Context(), userID, req.Message, sessionID, func(chunk string) error {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are gone; all that is left is to log.
		chatController.Log.Error("stream dispatch failed", "user_id", userID, "error", err)
	}
}

func (chatController *ChatController) History(w http.ResponseWriter, r *http.Request) {
	userID, err := chatController.Tokens.Authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 {
			writeError(w, models.Validation("Invalid days parameter"))
			return
		}
	}

	summaries, err := chatController.Dispatcher.History(r.Context(), userID, days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (chatController *ChatController) SessionMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := chatController.Tokens.Authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID := r.PathValue("sessionID")

	messages, err := chatController.Dispatcher.SessionMessages(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
