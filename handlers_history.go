package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"cropadvisor/models"
	"cropadvisor/store"
)

func (a *App) handleListHistory(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, total, err := a.recs.ListForUser(ctx, currentUser(r).ID, page)
	if err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	respondOK(w, http.StatusOK, "", pagedResp[models.Recommendation]{
		Items:      items,
		Pagination: store.NewPagination(page, total),
	})
}

// handleHistoryStats summarizes the user's history over the last six months.
func (a *App) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r).ID
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var out userStatsResp
	var err error
	if out.Total, err = a.recs.Count(ctx, &uid); err != nil {
		a.respondErr(w, r, err, "Statistics")
		return
	}
	if out.Monthly, err = a.recs.MonthlyCounts(ctx, &uid, sixMonthsBefore(a.now())); err != nil {
		a.respondErr(w, r, err, "Statistics")
		return
	}
	if out.TopCrops, err = a.recs.TopCrops(ctx, &uid, 5); err != nil {
		a.respondErr(w, r, err, "Statistics")
		return
	}
	if out.SoilDistribution, err = a.recs.SoilDistribution(ctx, &uid); err != nil {
		a.respondErr(w, r, err, "Statistics")
		return
	}
	respondOK(w, http.StatusOK, "", out)
}

// handleExportHistory downloads the whole history as json, csv or xlsx.
func (a *App) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		respondInvalid(w, []fieldError{{Field: "format", Message: "Format must be json, csv or xlsx"}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	recs, err := a.recs.AllForUser(ctx, currentUser(r).ID)
	if err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	if format == "json" {
		respondOK(w, http.StatusOK, "", recs)
		return
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	write := writeCSV
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		write = writeXLSX
	}
	if err := write(&buf, exportRows(recs)); err != nil {
		a.respondErr(w, r, err, "Export")
		return
	}
	name := fmt.Sprintf("crop-recommendations-%s.%s", a.now().UTC().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *App) handleDeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recommendation")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.recs.DeleteForUser(ctx, id, currentUser(r).ID); err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	respondOK(w, http.StatusOK, "Recommendation deleted successfully", nil)
}

// sixMonthsBefore returns the first day of the month five months before now,
// so the window covers six calendar months including the current one.
func sixMonthsBefore(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m-5, 1, 0, 0, 0, 0, time.UTC)
}
