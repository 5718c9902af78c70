// Package auth verifies the bearer tokens issued by the account service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/watchsync/internal/domain"
)

// Claims is the payload of an access token: the user it belongs to and its expiry.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	clock  clockwork.Clock
	parser *jwt.Parser
}

var _ domain.TokenVerifier = (*JWTVerifier)(nil)

func NewJWTVerifier(secret string, clock clockwork.Clock) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		clock:  clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// Verify returns the user id of a valid token. Any failure is reported as
// domain.ErrInvalidToken wrapping the parser's reason.
func (v *JWTVerifier) Verify(token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrInvalidToken
	}

	var claims Claims
	parsed, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return 0, domain.ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidToken, errors.New("missing user_id claim"))
	}

	return claims.UserID, nil
}

// Sign issues a token for userID valid for ttl. Used by tooling and tests.
func (v *JWTVerifier) Sign(userID int64, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(v.clock.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
