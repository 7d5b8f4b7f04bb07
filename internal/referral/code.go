package referral

import "github.com/google/uuid"

// CodeLength is the length of a generated referral code.
const CodeLength = 8

// NewCode generates a short referral code: the first 8 hex characters of
// a random UUID. Collisions are possible but rare; the caller retries
// against the unique constraint.
func NewCode() string {
	return uuid.NewString()[:CodeLength]
}
