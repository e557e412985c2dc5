package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
)

// Claims defines the structured data we store in the JWT
type Claims struct {
	UserID    int64       `json:"userId"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	ContactID string      `json:"contactId,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts token claims into the broadcast identity.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Role: c.Role, Name: c.Name, ContactID: c.ContactID}
}

type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secretKey: []byte(secret), ttl: ttl}
}

// GenerateToken creates a new JWT access token for the given identity.
func (tm *TokenManager) GenerateToken(identity domain.Identity) (string, error) {
	if err := identity.Validate(); err != nil {
		return "", err
	}

	claims := &Claims{
		UserID:    identity.UserID,
		Role:      identity.Role,
		Name:      identity.Name,
		ContactID: identity.ContactID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.ttl)),
			Subject:   strconv.FormatInt(identity.UserID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken parses and validates the token string
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// A token with a tampered or legacy role must never admit a connection.
	if err := claims.Identity().Validate(); err != nil {
		return nil, err
	}

	return claims, nil
}
