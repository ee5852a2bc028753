package sessions

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the client reads from a bearer token without verifying it.
// The server remains the authority; these are only used for local expiry and display hints.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time // zero when the token has no exp claim
}

func ParseTokenClaims(token string) (TokenClaims, error) {
	if token == "" {
		return TokenClaims{}, fmt.Errorf("[ParseTokenClaims] empty token")
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("[ParseTokenClaims] not a JWT: %w", err)
	}

	var tc TokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	if sub, err := claims.GetSubject(); err == nil {
		tc.Subject = sub
	}
	if sub, ok := claims["id"].(string); ok && tc.Subject == "" {
		tc.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		tc.Role = role
	}
	return tc, nil
}
