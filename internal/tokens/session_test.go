package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopswift/internal/models"
)

var secret = []byte("test-session-secret")

func TestSignSession_Admin(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).UTC()
	user := &models.User{ID: "admin:ops@shop.io", Role: models.RoleAdmin}

	tok, err := SignSession(secret, "sid-1", user, exp)
	require.NoError(t, err)

	claims, err := SessionClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.ID)
	assert.Equal(t, "admin:ops@shop.io", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSignSession_Guest(t *testing.T) {
	t.Parallel()

	tok, err := SignSession(secret, "sid-2", nil, time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := SessionClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Empty(t, claims.Subject)
	assert.Empty(t, claims.Role)
}

func TestSessionClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := SignSession(secret, "sid", nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = SessionClaimsFromToken(expired, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := SignSession(secret, "sid", nil, time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = SessionClaimsFromToken(valid, []byte("other"))
	assert.Error(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS512, SessionClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ID: "sid"},
	})
	raw, err := forged.SignedString(secret)
	require.NoError(t, err)
	_, err = SessionClaimsFromToken(raw, secret)
	assert.Error(t, err)
}

func TestCookies(t *testing.T) {
	t.Parallel()

	c := CreateCookie("session", "v", "/", time.Now().Add(time.Hour), true)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
}
