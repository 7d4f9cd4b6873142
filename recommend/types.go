// Package recommend produces crop, fertilizer and irrigation advice for a farm plot.
// Advice comes from the remote model service when it answers, and from the
// built-in rule tables otherwise.
package recommend

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Provenance of a recommendation payload.
const (
	SourceAIModel       = "ai_model"
	SourceFallback      = "fallback"
	SourceFallbackModel = "fallback_model"
)

// Planting seasons.
const (
	SeasonKharif = "Kharif"
	SeasonRabi   = "Rabi"
)

// DefaultSoil is used when a soil type has no table entry.
const DefaultSoil = "loamy"

// FallbackConfidence is the overall confidence reported for rule-based results.
const FallbackConfidence = 0.75

// MaxCrops caps the number of crops in one result.
const MaxCrops = 5

// PastCrop is a previously grown crop reported by the farmer. Passed through untouched.
type PastCrop struct {
	Name     string  `json:"name"               bson:"name"`
	Season   string  `json:"season,omitempty"   bson:"season,omitempty"`
	Yield    float64 `json:"yield,omitempty"    bson:"yield,omitempty"`
	Benefits string  `json:"benefits,omitempty" bson:"benefits,omitempty"`
}

// Request is the input to GetCropRecommendations. Callers validate it first.
type Request struct {
	Latitude            float64    `json:"latitude"`
	Longitude           float64    `json:"longitude"`
	SoilType            string     `json:"soilType"`
	Area                float64    `json:"area"`
	IrrigationFrequency string     `json:"irrigationFrequency"`
	PastCrops           []PastCrop `json:"pastCrops"`
	District            string     `json:"district,omitempty"`
}

// Crop is one recommended crop.
type Crop struct {
	Name           string   `json:"name"           yaml:"name"           bson:"name"`
	Variety        string   `json:"variety"        yaml:"variety"        bson:"variety"`
	PlantingSeason string   `json:"plantingSeason" yaml:"plantingSeason" bson:"plantingSeason"`
	ExpectedYield  string   `json:"expectedYield"  yaml:"expectedYield"  bson:"expectedYield"`
	MarketPrice    float64  `json:"marketPrice"    yaml:"marketPrice"    bson:"marketPrice"`
	Confidence     float64  `json:"confidence"     yaml:"confidence"     bson:"confidence"`
	Description    string   `json:"description"    yaml:"description"    bson:"description"`
	Benefits       []string `json:"benefits"       yaml:"benefits"       bson:"benefits"`
}

// Fertilizer is one fertilizer application.
type Fertilizer struct {
	Name              string `json:"name"              yaml:"name"              bson:"name"`
	Type              string `json:"type"              yaml:"type"              bson:"type"`
	Quantity          string `json:"quantity"          yaml:"quantity"          bson:"quantity"`
	ApplicationMethod string `json:"applicationMethod" yaml:"applicationMethod" bson:"applicationMethod"`
	Timing            string `json:"timing"            yaml:"timing"            bson:"timing"`
	Benefits          string `json:"benefits"          yaml:"benefits"          bson:"benefits"`
}

// Irrigation is the watering plan for one frequency band.
type Irrigation struct {
	Frequency        string   `json:"frequency"        yaml:"frequency"        bson:"frequency"`
	Method           string   `json:"method"           yaml:"method"           bson:"method"`
	WaterRequirement string   `json:"waterRequirement" yaml:"waterRequirement" bson:"waterRequirement"`
	Timing           string   `json:"timing"           yaml:"timing"           bson:"timing"`
	Tips             []string `json:"tips"             yaml:"tips"             bson:"tips"`
}

// Result is a complete recommendation.
type Result struct {
	Crops       []Crop       `json:"crops"       bson:"crops"`
	Fertilizers []Fertilizer `json:"fertilizers" bson:"fertilizers"`
	Irrigation  Irrigation   `json:"irrigation"  bson:"irrigation"`
	Confidence  float64      `json:"confidence"  bson:"confidence"`
	Source      string       `json:"source"      bson:"source"`
	Region      string       `json:"region"      bson:"region"`
	SoilType    string       `json:"soilType"    bson:"soilType"`
}

// Outcome is what GetCropRecommendations returns. Data holds the remote body as-is
// on success, or the encoded fallback Result on failure.
type Outcome struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Source  string          `json:"source"`
	Error   string          `json:"error,omitempty"`

	fallback *Result
}

// Result decodes Data into a Result. Remote payloads that do not follow the Result
// shape decode partially; unknown fields are ignored.
func (o Outcome) Result() (*Result, error) {
	if o.fallback != nil {
		return o.fallback, nil
	}
	var r Result
	if err := json.Unmarshal(o.Data, &r); err != nil {
		return nil, eris.Wrap(err, "recommend: decode outcome data")
	}
	if r.Source == "" {
		r.Source = o.Source
	}
	return &r, nil
}

// Health reports whether the remote model service is reachable.
type Health struct {
	Success  bool            `json:"success"`
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Health statuses.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Clock returns the current time.
type Clock func() time.Time
