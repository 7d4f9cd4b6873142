package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MonthlyCount is the number of documents created in one calendar month.
type MonthlyCount struct {
	Year  int   `bson:"year"  json:"year"`
	Month int   `bson:"month" json:"month"`
	Count int64 `bson:"count" json:"count"`
}

// CropCount is how often a crop was recommended.
type CropCount struct {
	Name          string  `bson:"_id"           json:"name"`
	Count         int64   `bson:"count"         json:"count"`
	AvgConfidence float64 `bson:"avgConfidence" json:"avgConfidence"`
}

type SoilCount struct {
	SoilType string `bson:"_id"   json:"soilType"`
	Count    int64  `bson:"count" json:"count"`
}

// UserUsage is one row of the most active users report.
type UserUsage struct {
	UserID              primitive.ObjectID `bson:"_id"                 json:"userId"`
	Name                string             `bson:"name"                json:"name"`
	Email               string             `bson:"email"               json:"email"`
	RecommendationCount int64              `bson:"recommendationCount" json:"recommendationCount"`
}

func monthlyPipeline(match bson.M, since time.Time) mongo.Pipeline {
	m := bson.M{"createdAt": bson.M{"$gte": since}}
	for k, v := range match {
		m[k] = v
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: m}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"year": bson.M{"$year": "$createdAt"}, "month": bson.M{"$month": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "year": "$_id.year", "month": "$_id.month", "count": 1}}},
		{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}},
	}
}

func topCropsPipeline(match bson.M, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$recommendations.crops"}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$recommendations.crops.name",
			"count":         bson.M{"$sum": 1},
			"avgConfidence": bson.M{"$avg": "$recommendations.crops.confidence"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

func soilPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$soilType", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

func topUsersPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$userId", "recommendationCount": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "recommendationCount", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"recommendationCount": 1,
			"name":                "$user.name",
			"email":               "$user.email",
		}}},
	}
}

func aggregateAll[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, eris.Wrap(err, "store: aggregate "+coll.Name())
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, eris.Wrap(err, "store: decode aggregate "+coll.Name())
	}
	return out, nil
}
