package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "context-api"

// AuthClaims are the JWT claims carried by callers of the prune API.
type AuthClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	UserID   string `json:"sub"`
	Role     string `json:"role"`
}

// AuthService signs and verifies HS256 tokens.
type AuthService struct {
	jwtSecret []byte
	expiry    time.Duration
}

// NewAuthService creates a new AuthService. Non-positive expiryHours
// default to 24.
func NewAuthService(jwtSecret string, expiryHours int) *AuthService {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		expiry:    time.Duration(expiryHours) * time.Hour,
	}
}

// SignToken creates a signed JWT for the given user.
func (s *AuthService) SignToken(userID, tenantID, role string) (string, error) {
	now := time.Now().UTC()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			Issuer:    tokenIssuer,
		},
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a JWT string, returning the claims.
func (s *AuthService) VerifyToken(tokenStr string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	switch {
	case claims.TenantID == "":
		return nil, errors.New("token missing tenant_id")
	case claims.UserID == "":
		return nil, errors.New("token missing sub (user_id)")
	case claims.Role == "":
		return nil, errors.New("token missing role")
	}
	return claims, nil
}
