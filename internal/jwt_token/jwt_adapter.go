package jwttoken

import (
	"slices"

	dErrors "gymdesk/pkg/domain-errors"
	authmw "gymdesk/pkg/platform/middleware/auth"
)

// KnownRoles lists the roles a staff token may carry.
var KnownRoles = []string{RoleStaff, RoleAdmin, RoleKiosk}

// MiddlewareVerifier exposes JWTService as an auth.JWTValidator. Tokens with
// a role outside KnownRoles are rejected even when correctly signed.
type MiddlewareVerifier struct {
	service *JWTService
}

func NewMiddlewareVerifier(service *JWTService) *MiddlewareVerifier {
	return &MiddlewareVerifier{service: service}
}

func (v *MiddlewareVerifier) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(KnownRoles, claims.Role) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	return &authmw.JWTClaims{StaffID: claims.StaffID, Role: claims.Role}, nil
}
