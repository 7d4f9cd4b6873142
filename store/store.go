// Package store persists users and recommendations in MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = eris.New("store: not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = eris.New("store: duplicate key")
)

// Store bundles the collections used by the service.
type Store struct {
	client          *mongo.Client
	Users           *UserStore
	Recommendations *RecommendationStore
}

// Open connects to MongoDB and returns a Store for database dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}
	db := client.Database(dbName)
	return &Store{
		client:          client,
		Users:           &UserStore{coll: db.Collection("users")},
		Recommendations: &RecommendationStore{coll: db.Collection("recommendations")},
	}, nil
}

// EnsureIndexes creates the indexes queries rely on. Safe to call repeatedly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.Users.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return eris.Wrap(err, "store: user indexes")
	}
	if _, err := s.Recommendations.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "location.latitude", Value: 1}, {Key: "location.longitude", Value: 1}}},
	}); err != nil {
		return eris.Wrap(err, "store: recommendation indexes")
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx, readpref.Primary()), "store: ping")
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return eris.Wrap(s.client.Disconnect(ctx), "store: disconnect")
}

// mapErr converts driver errors into package sentinels.
func mapErr(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return eris.Wrap(err, "store: "+action)
	}
}
