package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cropadvisor/models"
	"cropadvisor/recommend"
	"cropadvisor/store"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// handleRecommend validates the farm details, asks the advisor, attaches current
// weather and stores the result in the user's history.
func (a *App) handleRecommend(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	var req recommendReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validateRecommend(req, a.advisor.Tables().SoilTypes()); len(errs) > 0 {
		respondInvalid(w, errs)
		return
	}
	in := req.toRequest()

	out := a.advisor.GetCropRecommendations(r.Context(), in)
	raw := rawObject(out)
	res, err := out.Result()
	if err == nil && len(res.Crops) == 0 {
		err = errNoCrops
	}
	if err != nil {
		zap.L().Warn("model answer not usable, using tables", zap.Error(err))
		res = a.advisor.Fallback(in)
		out.Success, out.Error, out.Source = false, err.Error(), recommend.SourceFallback
	}
	weather := a.weather.Current(r.Context(), in.Latitude, in.Longitude)

	now := a.now().UTC()
	rec := &models.Recommendation{
		UserID:              u.ID,
		Location:            models.Location{Latitude: in.Latitude, Longitude: in.Longitude, Address: req.address()},
		SoilType:            in.SoilType,
		Area:                in.Area,
		IrrigationFrequency: in.IrrigationFrequency,
		PastCrops:           in.PastCrops,
		District:            in.District,
		Result:              res,
		Source:              out.Source,
		Weather:             &weather,
		AIResponse:          raw,
		Status:              models.RecommendationCompleted,
		CreatedAt:           now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.recs.Create(ctx, rec); err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	respondOK(w, http.StatusCreated, "Crop recommendations generated successfully", recommendResp{
		Recommendation: rec,
		AISuccess:      out.Success,
		AIError:        out.Error,
	})
}

var errNoCrops = eris.New("recommend: model answer has no crops")

// rawObject keeps the model's answer as received when it is a JSON object.
func rawObject(out recommend.Outcome) map[string]any {
	if !out.Success {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(out.Data, &m); err != nil {
		return nil
	}
	return m
}

func (a *App) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recommendation")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rec, err := a.recs.ByIDForUser(ctx, id, currentUser(r).ID)
	if err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	respondOK(w, http.StatusOK, "", rec)
}

// pathID parses the {id} URL parameter, replying 400 when it is not an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid "+what+" id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parsePage(r *http.Request) store.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return store.Page{Page: page, Limit: limit}.Normalize()
}
