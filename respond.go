package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"cropadvisor/store"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func respondInvalid(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Validation failed", Errors: errs})
}

// respondErr maps store sentinels to 404/409 and everything else to a logged 500.
func (a *App) respondErr(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondFail(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		respondFail(w, http.StatusConflict, what+" already exists")
	default:
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		body := envelope{Success: false, Message: "Internal server error"}
		if a.cfg.isDevelopment() {
			body.Error = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
