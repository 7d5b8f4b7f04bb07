package user

import (
	"errors"
	"time"
	"unicode"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	ReferralCode string    `json:"referralCode"`
	Points       int       `json:"points"`
	ReferredBy   *int64    `json:"referredBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("user not found")

// duplicate email on registration
var ErrEmailTaken = errors.New("email already registered")

// ran out of referral-code generation attempts
var ErrCodeExhausted = errors.New("could not generate a unique referral code")

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referralCode"`
}

// Projection is the caller-safe subset of a User.
type Projection struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ReferralCode string `json:"referralCode"`
	Points       int    `json:"points"`
}

func (u User) Projection() Projection {
	return Projection{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ReferralCode: u.ReferralCode,
		Points:       u.Points,
	}
}

// ValidatePassword enforces the rules the binding tags cannot express:
// at least one letter and one digit. Length is covered by min=8.
func ValidatePassword(plain string) error {
	var hasLetter, hasDigit bool

	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}

	return nil
}
