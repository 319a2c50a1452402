package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthq/healthq/models"
)

const mongoConnectTimeout = 10 * time.Second

// MongoStore persists users, sessions and conversations in MongoDB.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	sessions      *mongo.Collection
	conversations *mongo.Collection
}

// NewMongoStore connects to the cluster, verifies it with a ping and makes
// sure the unique email index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	dbase := client.Database(database)
	store := &MongoStore{
		client:        client,
		users:         dbase.Collection("users"),
		sessions:      dbase.Collection("sessions"),
		conversations: dbase.Collection("conversations"),
	}

	_, err = store.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ensure email index: %w", err)
	}

	return store, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return models.Unavailable("Database not available. Please try again later.", err)
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Duplicate("User already exists with this email")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) CreateSession(ctx context.Context, session *models.Session) error {
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *MongoStore) SessionOnDay(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*models.Session, error) {
	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	session := models.Session{}
	if err := s.sessions.FindOne(ctx, filter, opts).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

func (s *MongoStore) SessionByID(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session := models.Session{}
	err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID, "user_id": userID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &session, nil
}

func (s *MongoStore) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	update := bson.M{"$set": bson.M{"last_activity": at}}
	if _, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sessionID}, update); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *MongoStore) AppendConversation(ctx context.Context, conv *models.Conversation) error {
	if _, err := s.conversations.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	update := bson.M{
		"$inc": bson.M{"message_count": 1},
		"$set": bson.M{"last_activity": conv.DateCreated},
	}
	if _, err := s.sessions.UpdateOne(ctx, bson.M{"_id": conv.SessionID}, update); err != nil {
		return fmt.Errorf("failed to update session counters: %w", err)
	}

	return nil
}

func (s *MongoStore) Conversations(ctx context.Context, userID, sessionID string) ([]models.Conversation, error) {
	filter := bson.M{"user_id": userID, "session_id": sessionID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := s.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}

	conversations := make([]models.Conversation, 0)
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}

	return conversations, nil
}

func (s *MongoStore) SessionSummaries(ctx context.Context, userID string, since time.Time) ([]models.SessionSummary, error) {
	filter := bson.M{"user_id": userID, "last_activity": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	cursor, err := s.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	sessions := make([]models.Session, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := models.SessionSummary{
			SessionID:    session.SessionID,
			MessageCount: session.MessageCount,
			Date:         session.LastActivity,
		}

		first := models.Conversation{}
		firstOpts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}})
		err := s.conversations.FindOne(ctx, bson.M{"session_id": session.SessionID}, firstOpts).Decode(&first)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to query first conversation: %w", err)
		}
		summary.FirstMessage = first.UserMessage

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
