package jwt

import "github.com/golang-jwt/jwt"

// Payload is the set of claims carried by a session token.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// SessionID identifies the server-side view owned by the token holder.
	SessionID string `json:"sid"`

	// Username is the display name of the signed-in player.
	Username string `json:"username"`
}
