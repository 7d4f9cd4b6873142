package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"cropadvisor/models"
	"cropadvisor/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Ravi Kumar",
		"email":    "Ravi@Example.com",
		"phone":    "9876543210",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	body := decodeEnvelope(t, rec)
	var reg authResp
	require.NoError(t, json.Unmarshal(body.Data, &reg))
	assert.Equal(t, "ravi@example.com", reg.User.Email)
	assert.Equal(t, models.RoleFarmer, reg.User.Role)
	assert.Equal(t, models.DefaultLocation, reg.User.Location)
	assert.True(t, reg.User.IsActive)

	id, err := parseJWT(testSecret, reg.Token, env.app.now)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "RAVI@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login authResp
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, testNow, login.User.LastLogin)

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ravi Kumar")
}

func TestRegister_Rejects(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "taken@example.com", models.RoleFarmer)

	t.Run("invalid fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "R", "email": "not-an-email", "password": "123",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.False(t, body.Success)
		assert.ElementsMatch(t, []string{"name", "email", "password"}, errorFields(body))
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "Someone", "email": "TAKEN@example.com", "password": "secret1",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t, nil)
	u, _ := env.addUser(t, "farmer@example.com", models.RoleFarmer)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "farmer@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := env.users.SetActive(t.Context(), u.ID, false)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "farmer@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)
	u, tok := env.addUser(t, "farmer@example.com", models.RoleFarmer)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/auth/me", tok, nil).Code)

	_, err := env.users.SetActive(t.Context(), u.ID, false)
	require.NoError(t, err)
	rec := env.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, env.users.Delete(t.Context(), u.ID))
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", tok, nil).Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	other, _ := env.addUser(t, "other@example.com", models.RoleFarmer)
	phone := "9123456780"
	_, err := env.users.UpdateProfile(t.Context(), other.ID, store.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	_, tok := env.addUser(t, "me@example.com", models.RoleFarmer)

	rec := env.do(t, http.MethodPut, "/api/profile", tok, map[string]any{"phone": "9123456780"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/profile", tok, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/profile", tok, map[string]any{
		"name":     "Meena Devi",
		"location": models.Location{Latitude: 23.8, Longitude: 86.8, Address: "Dhanbad"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u models.User
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &u))
	assert.Equal(t, "Meena Devi", u.Name)
	assert.Equal(t, "Dhanbad", u.Location.Address)

	rec = env.do(t, http.MethodGet, "/api/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &u))
	assert.Equal(t, "Meena Devi", u.Name)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/profile", "", nil).Code)
}
