package mockapi

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenMinter issues and verifies the HS256 access and refresh tokens the
// dev server hands out.
type TokenMinter struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenMinter(secret string, accessTTL, refreshTTL time.Duration) *TokenMinter {
	return &TokenMinter{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (m *TokenMinter) mint(userID, username, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role,
		"kind":     kind,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenMinter) MintAccess(userID, username, role string) (string, error) {
	return m.mint(userID, username, role, "access", m.accessTTL)
}

func (m *TokenMinter) MintRefresh(userID, username, role string) (string, error) {
	return m.mint(userID, username, role, "refresh", m.refreshTTL)
}

// Verify checks signature and expiry and returns the subject claim. kind
// distinguishes access tokens from refresh tokens.
func (m *TokenMinter) Verify(tokenStr, kind string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid claims")
	}
	if k, _ := claims["kind"].(string); k != kind {
		return "", errors.New("wrong token kind")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}
