package main

import (
	"time"

	"cropadvisor/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const jwtIssuer = "cropadvisor"

var errInvalidToken = eris.New("auth: invalid token")

type tokenClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// signJWT creates an HS256 token carrying the user id and role.
func signJWT(secret string, ttl time.Duration, u *models.User, now time.Time) (string, error) {
	claims := tokenClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return s, eris.Wrap(err, "auth: sign token")
}

// parseJWT validates the token against now and returns the subject. The role
// claim is for clients; authorization reads the stored user.
func parseJWT(secret, tokenStr string, now func() time.Time) (primitive.ObjectID, error) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithTimeFunc(now),
	)
	if err != nil || !tok.Valid {
		return primitive.NilObjectID, errInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, errInvalidToken
	}
	return id, nil
}
