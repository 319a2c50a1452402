package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthq/healthq/auth"
	"github.com/healthq/healthq/bus"
	"github.com/healthq/healthq/chat"
	"github.com/healthq/healthq/config"
	"github.com/healthq/healthq/db"
	"github.com/healthq/healthq/logger"
	"github.com/healthq/healthq/mailer"
	"github.com/healthq/healthq/models"
	"github.com/healthq/healthq/responder"
)

// spyResponder fails the test when consulted; used to prove emergency
// messages never reach the model.
type spyResponder struct {
	t *testing.T
}

func (r *spyResponder) Reply(context.Context, string) (string, error) {
	r.t.Error("responder must not be consulted")
	return "", nil
}

func newTestServer(t *testing.T, resp responder.Responder) *httptest.Server {
	t.Helper()

	log := logger.New(0)
	store := db.NewMemStore()
	tokens := auth.NewTokens("test-secret")
	publisher := &bus.LogPublisher{Log: log}
	dispatcher := chat.NewDispatcher(store, resp, publisher, log, time.Second)

	authController := &AuthController{
		Store:  store,
		Tokens: tokens,
		Bus:    publisher,
		Mailer: mailer.New(config.Mail{}, log),
		Log:    log,
	}
	chatController := &ChatController{Dispatcher: dispatcher, Tokens: tokens, Log: log}
	healthController := &HealthController{Store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", authController.Register)
	mux.HandleFunc("POST /login", authController.Login)
	mux.HandleFunc("GET /health", healthController.Health)
	mux.HandleFunc("POST /chat", chatController.Chat)
	mux.HandleFunc("POST /chat/stream", chatController.ChatStream)
	mux.HandleFunc("GET /history", chatController.History)
	mux.HandleFunc("GET /sessions/{sessionID}/messages", chatController.SessionMessages)

	server := httptest.NewServer(cors.AllowAll().Handler(mux))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func registerUser(t *testing.T, server *httptest.Server, email, name string) string {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/register", "", map[string]string{
		"email":    email,
		"password": "Str0ng!Pass",
		"name":     name,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginChatFlow(t *testing.T) {
	server := newTestServer(t, responder.NewRules())

	// Register.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Str0ng!Pass",
		"name":     "Alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Account created successfully!", body["message"])
	assert.Equal(t, "Alice", body["name"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// Same email again is rejected.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Str0ng!Pass",
		"name":     "Alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists with this email", body["error"])

	// Wrong password.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Wr0ng!Pass1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["error"])

	// Unknown email reads identically.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "Wr0ng!Pass1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["error"])

	// Correct login.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful!", body["message"])
	token, _ = body["token"].(string)
	require.NotEmpty(t, token)

	// History starts empty.
	req, err := http.NewRequest(http.MethodGet, server.URL+"/history", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	historyResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer historyResp.Body.Close()
	require.Equal(t, http.StatusOK, historyResp.StatusCode)
	var summaries []models.SessionSummary
	require.NoError(t, json.NewDecoder(historyResp.Body).Decode(&summaries))
	assert.Empty(t, summaries)

	// First chat message.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/chat", token, map[string]string{
		"message": "hello",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	response, _ := body["response"].(string)
	assert.NotEmpty(t, response)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// Transcript shows the pair.
	req, err = http.NewRequest(http.MethodGet, fmt.Sprintf("%s/sessions/%s/messages", server.URL, sessionID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	messagesResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer messagesResp.Body.Close()
	require.Equal(t, http.StatusOK, messagesResp.StatusCode)
	var messages []models.ChatMessage
	require.NoError(t, json.NewDecoder(messagesResp.Body).Decode(&messages))
	require.Len(t, messages, 2)
	assert.Equal(t, models.SenderUser, messages[0].Sender)
	assert.Equal(t, "hello", messages[0].Text)
	assert.Equal(t, models.SenderBot, messages[1].Sender)

	// History now shows the session.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	server := newTestServer(t, responder.NewRules())

	tests := []struct {
		name    string
		payload map[string]string
		wantErr string
	}{
		{
			name:    "missing fields",
			payload: map[string]string{"email": "alice@example.com"},
			wantErr: "All fields are required",
		},
		{
			name:    "bad email",
			payload: map[string]string{"email": "missing@domain", "password": "Str0ng!Pass", "name": "Alice"},
		},
		{
			name:    "weak password",
			payload: map[string]string{"email": "alice@example.com", "password": "weak", "name": "Alice"},
		},
		{
			name:    "bad name",
			payload: map[string]string{"email": "alice@example.com", "password": "Str0ng!Pass", "name": "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, server.URL+"/register", "", tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestChat_RequiresToken(t *testing.T) {
	server := newTestServer(t, responder.NewRules())

	resp, body := doJSON(t, http.MethodPost, server.URL+"/chat", "", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token is missing", body["error"])

	resp, body = doJSON(t, http.MethodPost, server.URL+"/chat", "not-a-jwt", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token is invalid", body["error"])
}

func TestChat_EmptyMessage(t *testing.T) {
	server := newTestServer(t, responder.NewRules())
	token := registerUser(t, server, "alice@example.com", "Alice")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/chat", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Message is required", body["error"])
}

func TestChat_EmergencyBypassesResponder(t *testing.T) {
	server := newTestServer(t, &spyResponder{t: t})
	token := registerUser(t, server, "alice@example.com", "Alice")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/chat", token, map[string]string{
		"message": "I have severe chest pain",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, chat.SafetyReply, body["response"])
}

func TestChat_ForeignSessionNotFound(t *testing.T) {
	server := newTestServer(t, responder.NewRules())
	aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobToken := registerUser(t, server, "bob@example.com", "Bob")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/chat", aliceToken, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/chat", bobToken, map[string]string{
		"message":    "hijack attempt",
		"session_id": sessionID,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Session not found", body["error"])
}

func TestChatStream(t *testing.T) {
	server := newTestServer(t, responder.NewRules())
	token := registerUser(t, server, "alice@example.com", "Alice")

	raw, err := json.Marshal(map[string]string{"message": "hello"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/chat/stream", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Session-ID"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestHistory_InvalidDays(t *testing.T) {
	server := newTestServer(t, responder.NewRules())
	token := registerUser(t, server, "alice@example.com", "Alice")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/history?days=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid days parameter", body["error"])
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, responder.NewRules())

	resp, body := doJSON(t, http.MethodGet, server.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "disconnected", body["ai_service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestStoreUnavailable(t *testing.T) {
	log := logger.New(0)
	tokens := auth.NewTokens("test-secret")
	authController := &AuthController{
		Store:  db.Unavailable{},
		Tokens: tokens,
		Bus:    &bus.LogPublisher{Log: log},
		Mailer: mailer.New(config.Mail{}, log),
		Log:    log,
	}

	raw, err := json.Marshal(map[string]string{
		"email":    "alice@example.com",
		"password": "Str0ng!Pass",
		"name":     "Alice",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	authController.Register(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database not available")
}
