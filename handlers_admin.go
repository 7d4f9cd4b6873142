package main

import (
	"context"
	"net/http"
	"time"

	"cropadvisor/models"
	"cropadvisor/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// handleAdminStats runs the independent dashboard queries concurrently.
func (a *App) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	since := sixMonthsBefore(a.now())

	var out adminStatsResp
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Overview.TotalUsers, out.Overview.ActiveUsers, err = a.users.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Overview.TotalRecommendations, err = a.recs.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		out.Registrations, err = a.users.RegistrationsByMonth(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		out.Recommendations, err = a.recs.MonthlyCounts(gctx, nil, since)
		return err
	})
	g.Go(func() (err error) {
		out.TopCrops, err = a.recs.TopCrops(gctx, nil, 10)
		return err
	})
	g.Go(func() (err error) {
		out.SoilDistribution, err = a.recs.SoilDistribution(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		out.TopUsers, err = a.recs.TopUsers(gctx, 5)
		return err
	})
	g.Go(func() (err error) {
		out.RecentActivity, err = a.recs.Recent(gctx, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		a.respondErr(w, r, err, "Statistics")
		return
	}
	respondOK(w, http.StatusOK, "", out)
}

func (a *App) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, total, err := a.users.List(ctx, store.UserQuery{Search: r.URL.Query().Get("search"), Page: page})
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	respondOK(w, http.StatusOK, "", pagedResp[models.User]{
		Items:      users,
		Pagination: store.NewPagination(page, total),
	})
}

func (a *App) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.users.ByID(ctx, id)
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	n, err := a.recs.Count(ctx, &id)
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	respondOK(w, http.StatusOK, "", adminUserResp{User: u, RecommendationCount: n})
}

func (a *App) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	var req statusReq
	if err := decodeJSON(w, r, &req); err != nil || req.IsActive == nil {
		respondInvalid(w, []fieldError{{Field: "isActive", Message: "isActive must be a boolean"}})
		return
	}
	if id == currentUser(r).ID && !*req.IsActive {
		respondFail(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	u, err := a.users.SetActive(ctx, id, *req.IsActive)
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	msg := "User deactivated successfully"
	if u.IsActive {
		msg = "User activated successfully"
	}
	respondOK(w, http.StatusOK, msg, u)
}

// handleAdminDeleteUser removes a user and their history. Admins cannot delete
// themselves.
func (a *App) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	if id == currentUser(r).ID {
		respondFail(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	// History first, then the account.
	n, err := a.recs.DeleteByUser(ctx, id)
	if err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	if err := a.users.Delete(ctx, id); err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	zap.L().Info("user deleted",
		zap.String("user_id", id.Hex()),
		zap.String("by", currentUser(r).ID.Hex()),
		zap.Int64("recommendations", n),
	)
	respondOK(w, http.StatusOK, "User and associated data deleted successfully", nil)
}

func (a *App) handleAdminListRecommendations(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, total, err := a.recs.List(ctx, page)
	if err != nil {
		a.respondErr(w, r, err, "Recommendation")
		return
	}
	respondOK(w, http.StatusOK, "", pagedResp[models.Recommendation]{
		Items:      items,
		Pagination: store.NewPagination(page, total),
	})
}
