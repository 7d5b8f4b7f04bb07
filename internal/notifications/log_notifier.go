package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the operational log instead of a
// real provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendSignupWelcome(ctx context.Context, in SignupWelcomeInput) error {
	n.log.InfoContext(ctx, "notification.signup_welcome",
		"user_id", in.UserID,
		"email", in.Email,
		"referral_code", in.ReferralCode,
	)
	return nil
}

func (n *LogNotifier) SendReferralCredited(ctx context.Context, in ReferralCreditedInput) error {
	n.log.InfoContext(ctx, "notification.referral_credited",
		"referrer_id", in.ReferrerID,
		"referee_id", in.RefereeID,
	)
	return nil
}
