package sessions_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_Valid(t *testing.T) {
	require.False(t, sessions.Session{}.Valid())
	require.False(t, sessions.Session{Token: "t"}.Valid())
	require.False(t, sessions.Session{User: &users.User{ID: "u"}}.Valid())
	require.True(t, sessions.Session{Token: "t", User: &users.User{ID: "u"}}.Valid())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{name: "opaque token", token: "opaque-token", expired: false},
		{name: "jwt without exp", token: signedToken(t, jwtlib.MapClaims{"id": "u1"}), expired: false},
		{name: "jwt in the future", token: signedToken(t, jwtlib.MapClaims{"exp": now.Add(time.Hour).Unix()}), expired: false},
		{name: "jwt in the past", token: signedToken(t, jwtlib.MapClaims{"exp": now.Add(-time.Hour).Unix()}), expired: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessions.Session{Token: tt.token, User: &users.User{ID: "u1"}}
			require.Equal(t, tt.expired, s.Expired(now))
		})
	}
}

func TestParseTokenClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwtlib.MapClaims{"id": "u1", "role": "admin", "exp": exp.Unix()})

	claims, err := sessions.ParseTokenClaims(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.True(t, exp.Equal(claims.ExpiresAt))

	_, err = sessions.ParseTokenClaims("")
	require.Error(t, err)
	_, err = sessions.ParseTokenClaims("not-a-jwt")
	require.Error(t, err)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := sessions.Session{Token: "t", User: &users.User{ID: "u1", Name: "A"}}
	c := s.Clone()
	c.User.Name = "B"
	require.Equal(t, "A", s.User.Name)
}
