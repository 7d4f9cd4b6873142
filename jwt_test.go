package main

import (
	"testing"
	"time"

	"cropadvisor/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWTRoundTrip(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	tok, err := signJWT("s3cret", time.Hour, u, time.Now())
	require.NoError(t, err)

	id, err := parseJWT("s3cret", tok, time.Now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	var claims tokenClaims
	_, _, err = jwt.NewParser().ParseUnverified(tok, &claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, jwtIssuer, claims.Issuer)
}

func TestParseJWT_Rejects(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleFarmer}

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := signJWT("a", time.Hour, u, time.Now())
		require.NoError(t, err)
		_, err = parseJWT("b", tok, time.Now)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := signJWT("a", time.Hour, u, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = parseJWT("a", tok, time.Now)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("a"))
		require.NoError(t, err)
		_, err = parseJWT("a", tok, time.Now)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID.Hex(), Issuer: jwtIssuer},
		}).SignedString([]byte("a"))
		require.NoError(t, err)
		_, err = parseJWT("a", tok, time.Now)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("bad subject", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "nope", Issuer: jwtIssuer},
		}).SignedString([]byte("a"))
		require.NoError(t, err)
		_, err = parseJWT("a", tok, time.Now)
		assert.ErrorIs(t, err, errInvalidToken)
	})
}

func TestParseJWT_UsesClock(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
	issued := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tok, err := signJWT("a", time.Hour, u, issued)
	require.NoError(t, err)

	clock := func() time.Time { return issued.Add(30 * time.Minute) }
	id, err := parseJWT("a", tok, clock)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = parseJWT("a", tok, func() time.Time { return issued.Add(2 * time.Hour) })
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = parseJWT("a", tok, time.Now)
	assert.ErrorIs(t, err, errInvalidToken, "expired against the wall clock")
}
