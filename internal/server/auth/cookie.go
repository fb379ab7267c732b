package auth

import (
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the signed cookie body. The session id is the only
// identifying value; user and role live server-side.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SignSessionToken wraps sid in an HS256 token that expires with the session.
func SignSessionToken(sid string, secret []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID: sid,
	})
	return token.SignedString(secret)
}

// ParseSessionToken checks the signature and expiry of a cookie value and
// returns the session id. Any failure is common.ErrSessionInvalid.
func ParseSessionToken(tokenString string, secret []byte) (string, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", common.ErrSessionInvalid
	}

	return claims.SessionID, nil
}
