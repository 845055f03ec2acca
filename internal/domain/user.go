package domain

// User is a registered account. Email is the login name and the token
// subject; it is unique and compared case-sensitively.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	IsActive       bool   `json:"is_active"`
}

// TokenTypeBearer is the only token type the service issues.
const TokenTypeBearer = "bearer"

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
