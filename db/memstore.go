package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/healthq/healthq/models"
)

// MemStore is an in-memory Store used by tests. It mirrors the semantics of
// the real backends, including the unique email constraint and ordering.
type MemStore struct {
	mu            sync.Mutex
	users         map[string]models.User
	sessions      map[string]models.Session
	conversations []models.Conversation
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.Duplicate("User already exists with this email")
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, models.NotFound("User not found")
}

func (s *MemStore) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = *session
	return nil
}

func (s *MemStore) SessionOnDay(_ context.Context, userID string, dayStart, dayEnd time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Session
	for _, session := range s.sessions {
		if session.UserID != userID {
			continue
		}
		if session.DateCreated.Before(dayStart) || !session.DateCreated.Before(dayEnd) {
			continue
		}
		found := session
		if latest == nil || found.DateCreated.After(latest.DateCreated) {
			latest = &found
		}
	}
	if latest == nil {
		return nil, models.NotFound("Session not found")
	}
	return latest, nil
}

func (s *MemStore) SessionByID(_ context.Context, userID, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, models.NotFound("Session not found")
	}
	found := session
	return &found, nil
}

func (s *MemStore) TouchSession(_ context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return models.NotFound("Session not found")
	}
	session.LastActivity = at
	s.sessions[sessionID] = session
	return nil
}

func (s *MemStore) AppendConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = append(s.conversations, *conv)

	if session, ok := s.sessions[conv.SessionID]; ok {
		session.MessageCount++
		session.LastActivity = conv.DateCreated
		s.sessions[conv.SessionID] = session
	}
	return nil
}

func (s *MemStore) Conversations(_ context.Context, userID, sessionID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.UserID == userID && conv.SessionID == sessionID {
			matched = append(matched, conv)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DateCreated.Before(matched[j].DateCreated)
	})
	return matched, nil
}

func (s *MemStore) SessionSummaries(_ context.Context, userID string, since time.Time) ([]models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]models.SessionSummary, 0)
	for _, session := range s.sessions {
		if session.UserID != userID || session.LastActivity.Before(since) {
			continue
		}
		summary := models.SessionSummary{
			SessionID:    session.SessionID,
			MessageCount: session.MessageCount,
			Date:         session.LastActivity,
		}
		for _, conv := range s.conversations {
			if conv.SessionID == session.SessionID {
				summary.FirstMessage = conv.UserMessage
				break
			}
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Date.After(summaries[j].Date)
	})
	return summaries, nil
}

func (s *MemStore) Close(context.Context) error { return nil }
