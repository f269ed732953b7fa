package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned when a session token fails signature,
// structure or expiry checks.  Callers treat every variant the same way:
// the session is not valid.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are the identity claims embedded in a session token.  Only
// non-secret identity fields are carried: the token identifies the user, it
// does not cache the profile.  Anything beyond identity must be re-fetched
// from the credential store on use.
type SessionClaims struct {
	UserID string
	Name   string
	Email  string
}

// IssueSessionToken builds and signs an HS256 JWT binding a user's identity
// claims to an expiry.  The JWT includes subject (sub), name, email,
// expiration (exp) and issued at (iat).  Sessions are stateless: the server
// keeps no record of issued tokens, so validity is purely signature + expiry.
func IssueSessionToken(secret, userID, name, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   userID,
		"name":  name,
		"email": email,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseSessionToken verifies a session token and extracts its identity
// claims.  Tokens signed with a non-HMAC method are rejected outright, as
// are expired tokens and bad signatures.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidToken
	}
	sc := SessionClaims{}
	if v, ok := claims["sub"].(string); ok {
		sc.UserID = v
	}
	if v, ok := claims["name"].(string); ok {
		sc.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		sc.Email = v
	}
	if sc.UserID == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return sc, nil
}
