package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cropadvisor/models"
	"cropadvisor/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// handleRegister creates a farmer account with a bcrypt-hashed password and
// returns a token for it.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validateRegister(req); len(errs) > 0 {
		respondInvalid(w, errs)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}

	now := a.now().UTC()
	u := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
		Location:     models.DefaultLocation,
		Role:         models.RoleFarmer,
		IsActive:     true,
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Location != nil {
		u.Location = *req.Location
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if u.Phone != "" {
		taken, err := a.users.PhoneTaken(ctx, u.Phone, u.ID)
		if err != nil {
			a.respondErr(w, r, err, "User")
			return
		}
		if taken {
			respondFail(w, http.StatusConflict, "User with this phone already exists")
			return
		}
	}
	if err := a.users.Create(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondFail(w, http.StatusConflict, "User with this email already exists")
			return
		}
		a.respondErr(w, r, err, "User")
		return
	}

	tok, err := signJWT(a.cfg.JWTSecret, a.cfg.JWTTTL, &u, now)
	if err != nil {
		a.respondErr(w, r, err, "Token")
		return
	}
	zap.L().Info("user registered", zap.String("user_id", u.ID.Hex()))
	respondOK(w, http.StatusCreated, "User registered successfully", authResp{Token: tok, User: &u})
}

// handleLogin verifies credentials and returns a JWT token.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondInvalid(w, []fieldError{{Field: "email", Message: "Email and password are required"}})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.users.ByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		respondFail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		respondFail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !u.IsActive {
		respondFail(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	now := a.now().UTC()
	if err := a.users.TouchLogin(ctx, u.ID, now); err != nil {
		zap.L().Warn("record last login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	u.LastLogin = now

	tok, err := signJWT(a.cfg.JWTSecret, a.cfg.JWTTTL, u, now)
	if err != nil {
		a.respondErr(w, r, err, "Token")
		return
	}
	respondOK(w, http.StatusOK, "Login successful", authResp{Token: tok, User: u})
}

// handleMe returns the current user's profile (without password hash).
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, "", currentUser(r))
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	var req profileReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validateProfile(req); len(errs) > 0 {
		respondInvalid(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != u.Phone {
		taken, err := a.users.PhoneTaken(ctx, strings.TrimSpace(*req.Phone), u.ID)
		if err != nil {
			a.respondErr(w, r, err, "User")
			return
		}
		if taken {
			respondFail(w, http.StatusConflict, "Phone number already in use")
			return
		}
	}
	updated, err := a.users.UpdateProfile(ctx, u.ID, store.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		a.respondErr(w, r, err, "User")
		return
	}
	respondOK(w, http.StatusOK, "Profile updated successfully", updated)
}
