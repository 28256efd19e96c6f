// Package jwttoken verifies the HS256 access tokens front-desk staff, admins
// and kiosks present. Tokens are issued by the identity service; signing here
// exists for tests and local tooling.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "gymdesk/pkg/domain-errors"
)

// Staff roles carried in the token.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
	RoleKiosk = "kiosk"
)

// clockSkew tolerates small clock drift between the issuer and kiosks.
const clockSkew = 30 * time.Second

// Claims is the token payload.
type Claims struct {
	StaffID string `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	key      []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{
		key:      []byte(signingKey),
		issuer:   issuer,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(clockSkew),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken signs a token for staffID valid for ttl.
func (s *JWTService) GenerateAccessToken(staffID, role string, ttl time.Duration) (string, error) {
	issued := time.Now()
	claims := Claims{
		StaffID: staffID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   staffID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// ValidateToken checks signature, issuer, audience and expiry and returns the
// claims. Every failure is CodeUnauthorized.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	case err != nil:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	case claims.StaffID == "" || claims.Role == "":
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
