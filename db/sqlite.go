package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/healthq/healthq/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the local fallback store used when no Mongo URI is
// configured or the cluster is unreachable.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database file and applies embedded migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dbx, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := migrateUp(dbx); err != nil {
		dbx.Close()
		return nil, err
	}

	return &SQLiteStore{db: dbx}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection without migrating.
func NewSQLiteStoreFromDB(dbx *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: dbx}
}

func migrateUp(dbx *sqlx.DB) error {
	driver, err := sqlite3.WithInstance(dbx.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return models.Unavailable("Database not available. Please try again later.", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := "INSERT INTO users(id, email, password_hash, name, date_created) VALUES($1, $2, $3, $4, $5)"

	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.Name, user.DateCreated)
	if err != nil {
		var sqliteErr sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique {
			return models.Duplicate("User already exists with this email")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT id, email, password_hash, name, date_created FROM users WHERE email=$1"

	user := models.User{}
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	query := "INSERT INTO sessions(session_id, user_id, date_created, last_activity, message_count) VALUES($1, $2, $3, $4, $5)"

	_, err := s.db.ExecContext(ctx, query, session.SessionID, session.UserID,
		session.DateCreated, session.LastActivity, session.MessageCount)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (s *SQLiteStore) SessionOnDay(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*models.Session, error) {
	query := "SELECT * FROM sessions WHERE user_id=$1 AND date_created >= $2 AND date_created < $3 ORDER BY date_created DESC LIMIT 1"

	session := models.Session{}
	if err := s.db.GetContext(ctx, &session, query, userID, dayStart, dayEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

func (s *SQLiteStore) SessionByID(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	query := "SELECT * FROM sessions WHERE user_id=$1 AND session_id=$2"

	session := models.Session{}
	if err := s.db.GetContext(ctx, &session, query, userID, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	query := "UPDATE sessions SET last_activity=$1 WHERE session_id=$2"

	if _, err := s.db.ExecContext(ctx, query, at, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

func (s *SQLiteStore) AppendConversation(ctx context.Context, conv *models.Conversation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := "INSERT INTO conversations(conversation_id, session_id, user_id, user_message, bot_reply, truncated, date_created) VALUES($1, $2, $3, $4, $5, $6, $7)"

	_, err = tx.ExecContext(ctx, insertQuery, conv.ConversationID, conv.SessionID, conv.UserID,
		conv.UserMessage, conv.BotReply, conv.Truncated, conv.DateCreated)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	updateQuery := "UPDATE sessions SET message_count=message_count+1, last_activity=$1 WHERE session_id=$2"

	if _, err := tx.ExecContext(ctx, updateQuery, conv.DateCreated, conv.SessionID); err != nil {
		return fmt.Errorf("failed to update session counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Conversations(ctx context.Context, userID, sessionID string) ([]models.Conversation, error) {
	query := "SELECT * FROM conversations WHERE user_id=$1 AND session_id=$2 ORDER BY date_created ASC"

	conversations := make([]models.Conversation, 0)
	if err := s.db.SelectContext(ctx, &conversations, query, userID, sessionID); err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}

	return conversations, nil
}

func (s *SQLiteStore) SessionSummaries(ctx context.Context, userID string, since time.Time) ([]models.SessionSummary, error) {
	query := `SELECT s.session_id, s.message_count, s.last_activity,
		COALESCE((SELECT c.user_message FROM conversations c
			WHERE c.session_id = s.session_id
			ORDER BY c.date_created ASC LIMIT 1), '') AS first_message
		FROM sessions s
		WHERE s.user_id = $1 AND s.last_activity >= $2
		ORDER BY s.last_activity DESC`

	summaries := make([]models.SessionSummary, 0)
	if err := s.db.SelectContext(ctx, &summaries, query, userID, since); err != nil {
		return nil, fmt.Errorf("failed to query session summaries: %w", err)
	}

	return summaries, nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
