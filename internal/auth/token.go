// Package auth issues and verifies the signed session tokens returned by
// the register and login endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/netvoya/backend/types"
)

// TokenTTL is the fixed validity window of an issued token.
const TokenTTL = 24 * time.Hour

var (
	// ErrTokenInvalid is returned for a token with a bad signature or
	// malformed payload.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the set of attributes encoded in a session token.
type Claims struct {
	UserID int    `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer produces and verifies HS256 session tokens. Stateless: it keeps
// no record of outstanding tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: TokenTTL}
}

// Issue signs a token for an already-authenticated user, carrying the
// user's id, email and role, expiring TokenTTL from now.
func (i *Issuer) Issue(user types.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify recomputes the signature and checks expiry, returning the
// decoded claims on success.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
