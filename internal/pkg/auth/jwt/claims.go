package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for the plaza server.
// It includes standard claims required by the JWT specification and custom claims
// necessary for identifying registered users.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the registered account id of the token holder.
	ID string `json:"id"`

	// Nickname is the display nickname stored with the account.
	Nickname string `json:"nickname"`

	// UserType defines the role of the participant (e.g., "guest", "registered").
	UserType string `json:"user_type"`
}
