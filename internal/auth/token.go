// Package auth mints and parses the signed claims tokens issued on login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity facts asserted about the bearer: the granted
// roles plus the user fields the downstream verifier expects.
type Claims struct {
	jwt.RegisteredClaims
	Roles    []string `json:"roles"`
	Username string   `json:"username"`
	Profile  string   `json:"profile"`
	Email    string   `json:"email"`
	Phone    string   `json:"phoneNumber"`
	FullName string   `json:"fullName"`
}

// Signer issues and verifies HMAC-SHA-256 signed tokens.
type Signer struct {
	secret   []byte
	issuer   string
	audience string
	validity time.Duration
}

func NewSigner(secret []byte, issuer, audience string, validity time.Duration) *Signer {
	return &Signer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		validity: validity,
	}
}

// Sign fills the registered claims (issuer, audience, expiry = now + validity)
// and returns the encoded token.
func (s *Signer) Sign(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the signature and expiry and returns the claims.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
