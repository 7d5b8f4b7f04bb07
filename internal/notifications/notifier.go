package notifications

import "context"

type SignupWelcomeInput struct {
	UserID       int64
	Name         string
	Email        string
	ReferralCode string
}

type ReferralCreditedInput struct {
	ReferrerID int64
	RefereeID  int64
}

// Notifier is where a mail/push provider would plug in. The service only
// depends on this interface.
type Notifier interface {
	SendSignupWelcome(ctx context.Context, input SignupWelcomeInput) error
	SendReferralCredited(ctx context.Context, input ReferralCreditedInput) error
}
