package models

import (
	"time"

	"cropadvisor/recommend"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecommendationStatus records the state of a stored recommendation.
type RecommendationStatus string

// RecommendationCompleted is set once a result, model or rule-based, is stored.
const RecommendationCompleted RecommendationStatus = "completed"

// Recommendation is one stored answer to a farmer's request.
type Recommendation struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"        json:"id"`
	UserID              primitive.ObjectID   `bson:"userId"               json:"userId"`
	Location            Location             `bson:"location"             json:"location"`
	SoilType            string               `bson:"soilType"             json:"soilType"`
	Area                float64              `bson:"area"                 json:"area"` // acres
	IrrigationFrequency string               `bson:"irrigationFrequency"  json:"irrigationFrequency"`
	PastCrops           []recommend.PastCrop `bson:"pastCrops,omitempty"  json:"pastCrops,omitempty"`
	District            string               `bson:"district,omitempty"   json:"district,omitempty"`

	// Normalized result (fallback tables or decoded model answer).
	Result *recommend.Result `bson:"recommendations" json:"recommendations"`
	// Source is ai_model or fallback.
	Source  string   `bson:"source"            json:"source"`
	Weather *Weather `bson:"weather,omitempty" json:"weather,omitempty"`

	// Raw model answer as received; excluded from list views.
	AIResponse map[string]any `bson:"aiResponse,omitempty" json:"aiResponse,omitempty"`

	Status    RecommendationStatus `bson:"status"    json:"status"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CropNames returns the recommended crop names in rank order.
func (r *Recommendation) CropNames() []string {
	if r.Result == nil {
		return nil
	}
	out := make([]string, 0, len(r.Result.Crops))
	for _, c := range r.Result.Crops {
		out = append(out, c.Name)
	}
	return out
}

// Weather holds current conditions at the farm when the recommendation was made.
type Weather struct {
	TemperatureDegC float64 `bson:"temperature" json:"temperature"`
	HumidityPct     float64 `bson:"humidity"    json:"humidity"`
	Condition       string  `bson:"condition"   json:"condition"`
	WindSpeedMps    float64 `bson:"windSpeed"   json:"windSpeed"`
	Fallback        bool    `bson:"fallback"    json:"fallback"` // true when the weather service was unavailable
}
