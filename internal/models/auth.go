package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Fresh  bool   `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful password login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
