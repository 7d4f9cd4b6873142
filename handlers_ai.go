package main

import (
	"net/http"

	"cropadvisor/models"
	"cropadvisor/recommend"
)

// sampleRequest is the canned farm used to exercise the model end to end.
var sampleRequest = recommend.Request{
	Latitude:            models.DefaultLocation.Latitude,
	Longitude:           models.DefaultLocation.Longitude,
	SoilType:            "loamy",
	Area:                5,
	IrrigationFrequency: "weekly",
	PastCrops:           []recommend.PastCrop{{Name: "Wheat", Season: recommend.SeasonRabi}},
}

func (a *App) handleAIHealth(w http.ResponseWriter, r *http.Request) {
	h := a.advisor.TestConnection(r.Context())
	status := http.StatusOK
	if !h.Success {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (a *App) handleAIConfig(w http.ResponseWriter, r *http.Request) {
	t := a.advisor.Tables()
	codes := make([]int, 0, len(t.Irrigation))
	for _, b := range t.Irrigation {
		codes = append(codes, b.Code)
	}
	respondOK(w, http.StatusOK, "", aiConfigResp{
		Enabled:         a.cfg.AI.APIBaseURL != "",
		BaseURL:         a.cfg.AI.APIBaseURL,
		Timeout:         a.cfg.AI.Timeout.String(),
		HealthTimeout:   a.cfg.AI.HealthTimeout.String(),
		SoilTypes:       t.SoilTypes(),
		IrrigationCodes: codes,
	})
}

// handleAITest sends sampleRequest through the advisor. Nothing is stored.
func (a *App) handleAITest(w http.ResponseWriter, r *http.Request) {
	out := a.advisor.GetCropRecommendations(r.Context(), sampleRequest)
	msg := "AI model responded"
	if !out.Success {
		msg = "AI model unavailable, fallback used"
	}
	respondOK(w, http.StatusOK, msg, out)
}
