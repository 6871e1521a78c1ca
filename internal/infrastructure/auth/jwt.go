// Package auth verifies operator bearer tokens.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thehub/backend/internal/infrastructure/config"
)

// TokenType represents the type of JWT token
type TokenType string

const TokenTypeAccess TokenType = "access"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingOperator  = errors.New("missing operator_id in claims")
)

// Claims identifies the operator (front-desk staff or admin) behind a request
type Claims struct {
	jwt.RegisteredClaims
	OperatorID string    `json:"operator_id"`
	Username   string    `json:"username"`
	Roles      []string  `json:"roles,omitempty"`
	TokenType  TokenType `json:"token_type"`
}

// OperatorUUID parses the operator id
func (c *Claims) OperatorUUID() (uuid.UUID, error) {
	return uuid.Parse(c.OperatorID)
}

// HasRole reports whether the claims carry role
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// JWTService verifies HS256 access tokens. Tokens are normally minted by the
// authentication service sharing the secret; Issue exists for tooling and tests.
type JWTService struct {
	secret    []byte
	issuer    string
	adminRole string
	now       func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		adminRole: cfg.AdminRole,
		now:       time.Now,
	}
}

// AdminRole returns the role that unlocks administrative endpoints
func (s *JWTService) AdminRole() string {
	return s.adminRole
}

// IsAdmin reports whether the claims carry the admin role
func (s *JWTService) IsAdmin(c *Claims) bool {
	return c != nil && c.HasRole(s.adminRole)
}

// IssueInput contains the identity to put in a token
type IssueInput struct {
	OperatorID uuid.UUID
	Username   string
	Roles      []string
	TTL        time.Duration
}

// Issue signs an access token for an operator
func (s *JWTService) Issue(input IssueInput) (string, time.Time, error) {
	now := s.now()
	ttl := input.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.OperatorID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: input.OperatorID.String(),
		Username:   input.Username,
		Roles:      input.Roles,
		TokenType:  TokenTypeAccess,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify validates an access token and returns its claims
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.OperatorID == "" {
		return nil, ErrMissingOperator
	}
	if _, err := uuid.Parse(claims.OperatorID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
