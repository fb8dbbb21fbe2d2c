// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emilythestrangee/comment-board/backend/internal/common"
)

const DefaultTokenTTL = time.Hour

// Identity is the authenticated caller a verified token resolves to.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Claims embeds the registered claims and carries the caller identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"id"`
	Username string `json:"username"`
}

type JWTProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret string, ttl time.Duration) *JWTProvider {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTProvider{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken signs an HS256 token for id that expires after the provider TTL.
func (p *JWTProvider) IssueToken(id Identity) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		UserID:   id.ID,
		Username: id.Username,
	})

	tokenString, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks signature and expiry. Every failure is reported as
// common.ErrorUnauthenticated.
func (p *JWTProvider) VerifyToken(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: token expired", common.ErrorUnauthenticated)
		}
		return Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return Identity{}, common.ErrorUnauthenticated
	}

	return Identity{ID: claims.UserID, Username: claims.Username}, nil
}
