package auth

import "time"

// LoginRequest is the operator login body.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed access token. The same token is also
// returned in a header and an HTTP-only cookie.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
