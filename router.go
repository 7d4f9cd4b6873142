package main

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openapiYAML []byte

// routes wires middlewares and endpoints. CORS origins come from CORS_ORIGINS.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	// No RealIP: the rate limiter keys on RemoteAddr, which forwarded headers
	// must not be able to change.
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", a.handleHealth)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Use(a.rateLimit)

		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/auth/me", a.handleMe)
			pr.Get("/profile", a.handleMe)
			pr.Put("/profile", a.handleUpdateProfile)

			pr.Post("/recommend", a.handleRecommend)
			pr.Get("/recommend/{id}", a.handleGetRecommendation)

			pr.Route("/history", func(hr chi.Router) {
				hr.Get("/", a.handleListHistory)
				hr.Get("/stats", a.handleHistoryStats)
				hr.Get("/export", a.handleExportHistory)
				hr.Get("/{id}", a.handleGetRecommendation)
				hr.Delete("/{id}", a.handleDeleteRecommendation)
			})

			pr.Route("/ai", func(ar chi.Router) {
				ar.Get("/health", a.handleAIHealth)
				ar.Get("/config", a.handleAIConfig)
				ar.Post("/test-recommendation", a.handleAITest)
			})

			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(adminOnly)
				adm.Get("/stats", a.handleAdminStats)
				adm.Get("/users", a.handleAdminListUsers)
				adm.Get("/users/{id}", a.handleAdminGetUser)
				adm.Put("/users/{id}/status", a.handleAdminSetStatus)
				adm.Delete("/users/{id}", a.handleAdminDeleteUser)
				adm.Get("/recommendations", a.handleAdminListRecommendations)
			})
		})
	})

	return r
}

// handleHealth reports liveness and whether MongoDB answers a ping.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if a.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			zap.L().Warn("database ping failed", zap.Error(err))
			db = "disconnected"
		}
	}
	data := map[string]any{
		"status":    "OK",
		"database":  db,
		"timestamp": a.now().UTC(),
	}
	if db != "connected" {
		data["status"] = "DEGRADED"
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "Database unavailable", Data: data})
		return
	}
	respondOK(w, http.StatusOK, "Crop advisor API is running", data)
}
