package admin

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired inspects the exp claim without verifying the signature; the
// server remains the authority, this only avoids resuming a token that is
// guaranteed to be rejected. Tokens without an exp claim are kept.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return exp.Before(now)
}
