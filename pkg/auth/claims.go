package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	FranchiseID *uuid.UUID
	Role        enums.UserRole
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	FranchiseID *uuid.UUID     `json:"franchise_id,omitempty"`
	Role        enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
