package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of a session token. The token only names a
// session; it carries no user identity because there are no user accounts.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
