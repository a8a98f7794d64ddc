package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// SessionCookieName is the cookie that carries the signed session reference.
const SessionCookieName = "camionback_session"

// GenerateSessionToken signs a reference to a server-side session. The token
// grants nothing on its own: the session must still exist in the store.
func GenerateSessionToken(secret []byte, sessionID, userID string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionToken validates the signature and expiry and returns the
// session id and user id it carries.
func ParseSessionToken(secret []byte, tokenString string) (sessionID, userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}
	sessionID, _ = claims["sid"].(string)
	userID, _ = claims["sub"].(string)
	if sessionID == "" || userID == "" {
		return "", "", errors.New("token does not carry a session")
	}
	return sessionID, userID, nil
}
