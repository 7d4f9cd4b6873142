package main

import (
	"bytes"
	"encoding/json"
	"strings"

	"cropadvisor/models"
	"cropadvisor/recommend"
	"cropadvisor/store"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone,omitempty"`
	Password string           `json:"password"`
	Location *models.Location `json:"location,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type profileReq struct {
	Name     *string          `json:"name,omitempty"`
	Phone    *string          `json:"phone,omitempty"`
	Location *models.Location `json:"location,omitempty"`
}

// flexString accepts a JSON string or number. Forms post irrigation
// frequency either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// recommendLocation is the nested form of the farm position.
type recommendLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

// recommendReq takes the position either as a nested location object or as
// top-level latitude/longitude/address. The nested object wins.
type recommendReq struct {
	Location            *recommendLocation   `json:"location,omitempty"`
	Latitude            *float64             `json:"latitude,omitempty"`
	Longitude           *float64             `json:"longitude,omitempty"`
	Address             string               `json:"address,omitempty"`
	SoilType            string               `json:"soilType"`
	Area                *float64             `json:"area"`
	IrrigationFrequency flexString           `json:"irrigationFrequency"`
	PastCrops           []recommend.PastCrop `json:"pastCrops,omitempty"`
	District            string               `json:"district,omitempty"`
}

func (r recommendReq) coordinates() (lat, lon *float64) {
	if r.Location != nil {
		return r.Location.Latitude, r.Location.Longitude
	}
	return r.Latitude, r.Longitude
}

func (r recommendReq) address() string {
	if r.Location != nil && r.Location.Address != "" {
		return strings.TrimSpace(r.Location.Address)
	}
	return strings.TrimSpace(r.Address)
}

// toRequest assumes the request passed validation.
func (r recommendReq) toRequest() recommend.Request {
	past := r.PastCrops
	if past == nil {
		past = []recommend.PastCrop{}
	}
	lat, lon := r.coordinates()
	return recommend.Request{
		Latitude:            *lat,
		Longitude:           *lon,
		SoilType:            strings.ToLower(strings.TrimSpace(r.SoilType)),
		Area:                *r.Area,
		IrrigationFrequency: strings.TrimSpace(string(r.IrrigationFrequency)),
		PastCrops:           past,
		District:            strings.TrimSpace(r.District),
	}
}

type recommendResp struct {
	Recommendation *models.Recommendation `json:"recommendation"`
	AISuccess      bool                   `json:"aiSuccess"`
	AIError        string                 `json:"aiError,omitempty"`
}

type pagedResp[T any] struct {
	Items      []T              `json:"items"`
	Pagination store.Pagination `json:"pagination"`
}

type userStatsResp struct {
	Total            int64                `json:"total"`
	Monthly          []store.MonthlyCount `json:"monthly"`
	TopCrops         []store.CropCount    `json:"topCrops"`
	SoilDistribution []store.SoilCount    `json:"soilDistribution"`
}

type statusReq struct {
	IsActive *bool `json:"isActive"`
}

type adminUserResp struct {
	User                *models.User `json:"user"`
	RecommendationCount int64        `json:"recommendationCount"`
}

type adminStatsResp struct {
	Overview struct {
		TotalUsers           int64 `json:"totalUsers"`
		ActiveUsers          int64 `json:"activeUsers"`
		TotalRecommendations int64 `json:"totalRecommendations"`
	} `json:"overview"`
	Registrations    []store.MonthlyCount    `json:"registrations"`
	Recommendations  []store.MonthlyCount    `json:"recommendations"`
	TopCrops         []store.CropCount       `json:"topCrops"`
	SoilDistribution []store.SoilCount       `json:"soilDistribution"`
	TopUsers         []store.UserUsage       `json:"topUsers"`
	RecentActivity   []models.Recommendation `json:"recentActivity"`
}

type aiConfigResp struct {
	Enabled         bool     `json:"enabled"`
	BaseURL         string   `json:"baseUrl"`
	Timeout         string   `json:"timeout"`
	HealthTimeout   string   `json:"healthTimeout"`
	SoilTypes       []string `json:"soilTypes"`
	IrrigationCodes []int    `json:"irrigationCodes"`
}
