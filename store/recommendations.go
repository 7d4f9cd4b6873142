package store

import (
	"context"
	"time"

	"cropadvisor/models"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecommendationStore reads and writes the recommendations collection.
type RecommendationStore struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// Create inserts r and sets its ID and timestamps.
func (s *RecommendationStore) Create(ctx context.Context, r *models.Recommendation) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	res, err := s.coll.InsertOne(ctx, r)
	if err != nil {
		return mapErr(err, "insert recommendation")
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ByIDForUser loads a recommendation owned by userID.
func (s *RecommendationStore) ByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Recommendation, error) {
	var r models.Recommendation
	if err := s.coll.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&r); err != nil {
		return nil, mapErr(err, "find recommendation")
	}
	return &r, nil
}

// ListForUser returns one page of a user's history without raw model answers.
func (s *RecommendationStore) ListForUser(ctx context.Context, userID primitive.ObjectID, p Page) ([]models.Recommendation, int64, error) {
	return s.page(ctx, bson.M{"userId": userID}, p)
}

// List returns one page across all users, for admins.
func (s *RecommendationStore) List(ctx context.Context, p Page) ([]models.Recommendation, int64, error) {
	return s.page(ctx, bson.M{}, p)
}

func (s *RecommendationStore) page(ctx context.Context, filter bson.M, p Page) ([]models.Recommendation, int64, error) {
	p = p.Normalize()
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err, "count recommendations")
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit)).
		SetProjection(bson.M{"aiResponse": 0})
	out, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllForUser returns a user's full history, newest first, for export.
func (s *RecommendationStore) AllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, error) {
	return s.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

// Recent returns the latest recommendations across all users.
func (s *RecommendationStore) Recent(ctx context.Context, limit int) ([]models.Recommendation, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"aiResponse": 0})
	return s.find(ctx, bson.M{}, opts)
}

func (s *RecommendationStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Recommendation, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err, "find recommendations")
	}
	out := []models.Recommendation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, eris.Wrap(err, "store: decode recommendations")
	}
	return out, nil
}

// DeleteForUser removes one recommendation owned by userID.
func (s *RecommendationStore) DeleteForUser(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return mapErr(err, "delete recommendation")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every recommendation of a user.
func (s *RecommendationStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, mapErr(err, "delete user recommendations")
	}
	return res.DeletedCount, nil
}

// Count returns the number of recommendations, optionally for one user.
func (s *RecommendationStore) Count(ctx context.Context, userID *primitive.ObjectID) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, ownerMatch(userID))
	if err != nil {
		return 0, mapErr(err, "count recommendations")
	}
	return n, nil
}

// MonthlyCounts groups recommendations by creation month since the given time.
func (s *RecommendationStore) MonthlyCounts(ctx context.Context, userID *primitive.ObjectID, since time.Time) ([]MonthlyCount, error) {
	return aggregateAll[MonthlyCount](ctx, s.coll, monthlyPipeline(ownerMatch(userID), since))
}

// TopCrops ranks crop names by how often they were recommended.
func (s *RecommendationStore) TopCrops(ctx context.Context, userID *primitive.ObjectID, limit int) ([]CropCount, error) {
	return aggregateAll[CropCount](ctx, s.coll, topCropsPipeline(ownerMatch(userID), limit))
}

// SoilDistribution counts recommendations per soil type.
func (s *RecommendationStore) SoilDistribution(ctx context.Context, userID *primitive.ObjectID) ([]SoilCount, error) {
	return aggregateAll[SoilCount](ctx, s.coll, soilPipeline(ownerMatch(userID)))
}

// TopUsers ranks users by recommendation count.
func (s *RecommendationStore) TopUsers(ctx context.Context, limit int) ([]UserUsage, error) {
	return aggregateAll[UserUsage](ctx, s.coll, topUsersPipeline(limit))
}

func ownerMatch(userID *primitive.ObjectID) bson.M {
	if userID == nil {
		return bson.M{}
	}
	return bson.M{"userId": *userID}
}
