package models

import "github.com/golang-jwt/jwt/v5"

// Claims carries the opaque user identity minted by the upstream gateway.
// This service only decodes it, authorization policy lives upstream.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
