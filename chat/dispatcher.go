// Package chat implements the conversation core: per-day session bucketing,
// message screening, responder delegation and append-only history.
package chat

import (
	"context"
	"time"

	"github.com/twinj/uuid"

	"github.com/healthq/healthq/bus"
	"github.com/healthq/healthq/db"
	"github.com/healthq/healthq/logger"
	"github.com/healthq/healthq/models"
	"github.com/healthq/healthq/responder"
)

const (
	defaultHistoryDays = 7
	previewRunes       = 50
)

// apologeticReply masks any responder failure from the end user.
const apologeticReply = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

// Dispatcher wires the store, the responder and the event bus together.
type Dispatcher struct {
	store     db.Store
	responder responder.Responder
	bus       bus.Publisher
	log       *logger.Logger
	timeout   time.Duration

	// now is swappable so the calendar-day boundary is testable.
	now func() time.Time
}

func NewDispatcher(store db.Store, resp responder.Responder, publisher bus.Publisher, log *logger.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		store:     store,
		responder: resp,
		bus:       publisher,
		log:       log,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Reply is the result of one dispatched exchange.
type Reply struct {
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
}

// CurrentSession resolves the user's session for the current UTC calendar
// day, creating it on the first message of the day.
func (d *Dispatcher) CurrentSession(ctx context.Context, userID string) (*models.Session, error) {
	now := d.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	session, err := d.store.SessionOnDay(ctx, userID, dayStart, dayEnd)
	if err == nil {
		if err := d.store.TouchSession(ctx, session.SessionID, now); err != nil {
			return nil, err
		}
		session.LastActivity = now
		return session, nil
	}
	if models.KindOf(err) != models.KindNotFound {
		return nil, err
	}

	session = &models.Session{
		SessionID:    uuid.NewV4().String(),
		UserID:       userID,
		DateCreated:  now,
		LastActivity: now,
		MessageCount: 0,
	}
	if err := d.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// resolveSession honors a client-supplied session id only when the
// authenticated user owns it.
func (d *Dispatcher) resolveSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return d.CurrentSession(ctx, userID)
	}
	return d.store.SessionByID(ctx, userID, sessionID)
}

// Send dispatches one message: screen, delegate, persist, reply.
func (d *Dispatcher) Send(ctx context.Context, userID, message, sessionID string) (*Reply, error) {
	session, err := d.resolveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	level := screen(message)

	var reply string
	if level == LevelCritical {
		reply = SafetyReply
	} else {
		reply = d.delegate(ctx, message)
		if needsDisclaimer(message) {
			reply += Disclaimer
		}
	}

	if level != "" {
		d.publishAlert(userID, level, message, reply)
	}

	conv := &models.Conversation{
		ConversationID: uuid.NewV4().String(),
		SessionID:      session.SessionID,
		UserID:         userID,
		UserMessage:    message,
		BotReply:       reply,
		DateCreated:    d.now().UTC(),
	}
	if err := d.store.AppendConversation(ctx, conv); err != nil {
		return nil, err
	}

	return &Reply{
		Response:       reply,
		SessionID:      session.SessionID,
		ConversationID: conv.ConversationID,
	}, nil
}

// Stream dispatches one message delivering the reply in chunks. When the
// caller aborts mid-stream, whatever text accumulated is persisted with the
// truncated flag set.
func (d *Dispatcher) Stream(ctx context.Context, userID, message, sessionID string, fn func(chunk string) error) (*Reply, error) {
	session, err := d.resolveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	level := screen(message)

	var reply string
	truncated := false

	if level == LevelCritical {
		reply = SafetyReply
		_ = fn(reply)
	} else {
		reply, truncated = d.delegateStream(ctx, message, fn)
		if !truncated && needsDisclaimer(message) {
			reply += Disclaimer
			_ = fn(Disclaimer)
		}
	}

	if level != "" {
		d.publishAlert(userID, level, message, reply)
	}

	conv := &models.Conversation{
		ConversationID: uuid.NewV4().String(),
		SessionID:      session.SessionID,
		UserID:         userID,
		UserMessage:    message,
		BotReply:       reply,
		Truncated:      truncated,
		DateCreated:    d.now().UTC(),
	}

	// The request context may already be dead when the client aborted;
	// persistence still has to happen.
	if err := d.store.AppendConversation(context.WithoutCancel(ctx), conv); err != nil {
		return nil, err
	}

	return &Reply{
		Response:       reply,
		SessionID:      session.SessionID,
		ConversationID: conv.ConversationID,
	}, nil
}

// History lists session summaries for the user, most recent first.
func (d *Dispatcher) History(ctx context.Context, userID string, sinceDays int) ([]models.SessionSummary, error) {
	if sinceDays <= 0 {
		sinceDays = defaultHistoryDays
	}
	since := d.now().UTC().AddDate(0, 0, -sinceDays)

	summaries, err := d.store.SessionSummaries(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		summaries[i].Preview = preview(summaries[i].FirstMessage)
	}

	return summaries, nil
}

// SessionMessages reconstructs a session's transcript, oldest first, as
// alternating user and bot messages.
func (d *Dispatcher) SessionMessages(ctx context.Context, userID, sessionID string) ([]models.ChatMessage, error) {
	if _, err := d.store.SessionByID(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	conversations, err := d.store.Conversations(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(conversations)*2)
	for _, conv := range conversations {
		messages = append(messages,
			models.ChatMessage{Sender: models.SenderUser, Text: conv.UserMessage, Timestamp: conv.DateCreated},
			models.ChatMessage{Sender: models.SenderBot, Text: conv.BotReply, Timestamp: conv.DateCreated},
		)
	}

	return messages, nil
}

func (d *Dispatcher) delegate(ctx context.Context, message string) string {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.responder.Reply(ctx, message)
	if err != nil {
		d.log.Error("responder failed", "error", err)
		return apologeticReply
	}

	return reply
}

// delegateStream returns the accumulated reply and whether it was cut short
// by the caller going away.
func (d *Dispatcher) delegateStream(ctx context.Context, message string, fn func(chunk string) error) (string, bool) {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	streamer, ok := d.responder.(responder.StreamingResponder)
	if !ok {
		reply := d.delegate(ctx, message)
		_ = fn(reply)
		return reply, false
	}

	reply, err := streamer.StreamReply(timeoutCtx, message, fn)
	if err != nil {
		if ctx.Err() != nil && reply != "" {
			return reply, true
		}
		d.log.Error("responder stream failed", "error", err)
		if reply == "" {
			_ = fn(apologeticReply)
			return apologeticReply, false
		}
		return reply, true
	}

	return reply, false
}

func (d *Dispatcher) publishAlert(userID, level, message, response string) {
	subject := bus.SubjectAlertUrgent
	if level == LevelCritical {
		subject = bus.SubjectAlertCritical
	}
	d.bus.Publish(subject, newAlert(userID, level, message, response, d.now().UTC()))
}

func preview(message string) string {
	runes := []rune(message)
	if len(runes) <= previewRunes {
		return message
	}
	return string(runes[:previewRunes]) + "..."
}
