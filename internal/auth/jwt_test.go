package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVerify_ValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, clockwork.NewFakeClock())

	token, err := v.Sign(10, time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(10), userID)
}

func TestVerify_ExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	v := NewJWTVerifier(testSecret, clock)

	token, err := v.Sign(10, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	token, err := NewJWTVerifier("other-secret", clock).Sign(10, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret, clock).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	clock := clockwork.NewFakeClock()
	claims := Claims{
		UserID:           10,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret, clock).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_MissingExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 10}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret, clockwork.NewFakeClock()).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_MissingUserID(t *testing.T) {
	v := NewJWTVerifier(testSecret, clockwork.NewFakeClock())
	token, err := v.Sign(0, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	v := NewJWTVerifier(testSecret, clockwork.NewFakeClock())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", token)
	}
}
