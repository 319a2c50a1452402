package db

import (
	"context"
	"time"

	"github.com/healthq/healthq/models"
)

// Store is the persistence surface shared by the Mongo and sqlite backends.
// Every session and conversation lookup is scoped by the owning user.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateSession(ctx context.Context, session *models.Session) error
	SessionOnDay(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*models.Session, error)
	SessionByID(ctx context.Context, userID, sessionID string) (*models.Session, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time) error

	AppendConversation(ctx context.Context, conv *models.Conversation) error
	Conversations(ctx context.Context, userID, sessionID string) ([]models.Conversation, error)
	SessionSummaries(ctx context.Context, userID string, since time.Time) ([]models.SessionSummary, error)

	Close(ctx context.Context) error
}

// Unavailable is the store used when no backend could be reached at startup.
// Every operation fails with a typed unavailability error instead of a nil
// dereference.
type Unavailable struct{}

func errUnavailable() error {
	return models.Unavailable("Database not available. Please try again later.", nil)
}

func (Unavailable) Ping(context.Context) error { return errUnavailable() }

func (Unavailable) CreateUser(context.Context, *models.User) error { return errUnavailable() }

func (Unavailable) UserByEmail(context.Context, string) (*models.User, error) {
	return nil, errUnavailable()
}

func (Unavailable) CreateSession(context.Context, *models.Session) error { return errUnavailable() }

func (Unavailable) SessionOnDay(context.Context, string, time.Time, time.Time) (*models.Session, error) {
	return nil, errUnavailable()
}

func (Unavailable) SessionByID(context.Context, string, string) (*models.Session, error) {
	return nil, errUnavailable()
}

func (Unavailable) TouchSession(context.Context, string, time.Time) error { return errUnavailable() }

func (Unavailable) AppendConversation(context.Context, *models.Conversation) error {
	return errUnavailable()
}

func (Unavailable) Conversations(context.Context, string, string) ([]models.Conversation, error) {
	return nil, errUnavailable()
}

func (Unavailable) SessionSummaries(context.Context, string, time.Time) ([]models.SessionSummary, error) {
	return nil, errUnavailable()
}

func (Unavailable) Close(context.Context) error { return nil }
