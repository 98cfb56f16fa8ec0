package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims represents the claims in an admin session token
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// GateClaims represents the claims in a submitter passphrase-gate token
type GateClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}
