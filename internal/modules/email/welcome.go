package email

import (
	"context"
	"log/slog"
	"time"
)

// ProfileStore gates the welcome email per account.
type ProfileStore interface {
	// ClaimWelcome marks the welcome email as sent for the account and
	// reports whether this call made the claim.
	ClaimWelcome(ctx context.Context, accountID, addr, name string, at time.Time) (bool, error)
	ReleaseWelcome(ctx context.Context, accountID string) error
}

type WelcomeService struct {
	profiles   ProfileStore
	dispatcher *Dispatcher
	shopURL    string
	logger     *slog.Logger
	now        func() time.Time
}

func NewWelcomeService(profiles ProfileStore, dispatcher *Dispatcher, shopURL string, logger *slog.Logger) *WelcomeService {
	return &WelcomeService{profiles: profiles, dispatcher: dispatcher, shopURL: shopURL, logger: logger, now: time.Now}
}

type WelcomeResult struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// SendWelcome sends the welcome email at most once per account. Delivery
// problems are reported in the result, never as an error.
func (s *WelcomeService) SendWelcome(ctx context.Context, accountID, addr, name string) (WelcomeResult, error) {
	if !s.dispatcher.Configured() {
		return WelcomeResult{Reason: "email provider not configured"}, nil
	}

	claimed, err := s.profiles.ClaimWelcome(ctx, accountID, addr, name, s.now().UTC())
	if err != nil {
		return WelcomeResult{}, err
	}
	if !claimed {
		return WelcomeResult{Reason: "already sent"}, nil
	}

	r, err := RenderWelcome(Welcome{Name: name, ShopURL: s.shopURL})
	if err == nil {
		_, err = s.dispatcher.Send(ctx, Outgoing{To: []string{addr}, Subject: r.Subject, HTML: r.HTML, Type: TypeWelcome})
	}
	if err != nil {
		s.logger.WarnContext(ctx, "welcome email failed", "account_id", accountID, "err", err)
		if rerr := s.profiles.ReleaseWelcome(ctx, accountID); rerr != nil {
			s.logger.ErrorContext(ctx, "welcome claim release failed", "account_id", accountID, "err", rerr)
		}
		return WelcomeResult{Reason: "delivery failed"}, nil
	}
	return WelcomeResult{Sent: true}, nil
}
