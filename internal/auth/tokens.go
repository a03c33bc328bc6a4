// Package auth issues and verifies the bearer tokens that identify users,
// and hashes their passwords. It is stateless; the signing key is injected
// at construction.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a token to a username. Tokens carry no expiry; a token stays
// valid for as long as the signing key does.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies identity tokens with a single HS256 key.
type TokenService struct {
	key []byte
}

func NewTokenService(privateKey string) *TokenService {
	return &TokenService{key: []byte(privateKey)}
}

// Generate returns a signed token for the given username.
func (s *TokenService) Generate(username string) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "message-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the claimed username.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is invalid")
	}
	if claims.Username == "" {
		return "", errors.New("token has no username claim")
	}
	return claims.Username, nil
}
