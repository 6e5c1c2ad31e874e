package utils

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"chatService/internal/models"
)

// DecodeIdentity extracts the opaque user id from a gateway-issued token.
// The gateway enforces authentication policy; this service only needs the
// verified identity the token carries.
func DecodeIdentity(tokenString string, secretKey []byte) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
