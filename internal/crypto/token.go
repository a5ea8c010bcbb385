package crypto

import "github.com/google/uuid"

// NewVerificationToken returns the token embedded in verification emails.
func NewVerificationToken() string {
	return uuid.NewString()
}
