// Package mongo stores identities and attendance in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store implements database.Store on two collections.
type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	attendance *mongo.Collection
}

// Open connects to MongoDB and sets up the indexes.
func Open(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	if cfg == nil || cfg.URI == "" {
		return nil, errors.New("MONGODB_URI is required for the mongo backend")
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.URI)
	clientOpts.SetMinPoolSize(uint64(max(cfg.MinPoolSize, 0)))
	clientOpts.SetMaxPoolSize(uint64(max(cfg.MaxPoolSize, 1)))
	clientOpts.SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, classify("connect mongodb", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, database.Unavailable("ping mongodb", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:     client,
		users:      db.Collection(cfg.UsersColl),
		attendance: db.Collection(cfg.AttendColl),
	}
	if err := s.setUpIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongodb successfully", logger.LoggerOptions{Key: "database", Data: cfg.Database})
	return s, nil
}

// setUpIndexes makes identity_key unique and indexes attendance by time.
func (s *Store) setUpIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "identity_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}, {
		Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index(),
	}})
	if err != nil {
		return classify("create user indexes", err)
	}

	_, err = s.attendance.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index(),
	}, {
		Keys:    bson.D{{Key: "identity_key", Value: 1}},
		Options: options.Index(),
	}})
	if err != nil {
		return classify("create attendance indexes", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return database.Unavailable("ping mongodb", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if database.IsConnectionError(err) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return database.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
