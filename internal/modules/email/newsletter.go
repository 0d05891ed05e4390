package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

type SubscriberStore interface {
	Subscribe(ctx context.Context, addr, name string) error
	Unsubscribe(ctx context.Context, addr string) (bool, error)
	ActiveSubscribers(ctx context.Context) ([]string, error)
}

type NewsletterService struct {
	subs            SubscriberStore
	dispatcher      *Dispatcher
	unsubscribeBase string
	validate        *validator.Validate
	logger          *slog.Logger
}

func NewNewsletterService(subs SubscriberStore, dispatcher *Dispatcher, unsubscribeBase string, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{
		subs:            subs,
		dispatcher:      dispatcher,
		unsubscribeBase: unsubscribeBase,
		validate:        validator.New(),
		logger:          logger,
	}
}

func (s *NewsletterService) Subscribe(ctx context.Context, addr, name string) error {
	addr = strings.TrimSpace(addr)
	if err := s.validate.Var(addr, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return s.subs.Subscribe(ctx, addr, name)
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, addr string) (bool, error) {
	return s.subs.Unsubscribe(ctx, addr)
}

type NewsletterInput struct {
	Subject    string
	Headline   string
	Body       string
	CTAText    string
	CTAURL     string
	Recipients []string // empty means every active subscriber
}

// Send renders the newsletter per recipient (each gets its own unsubscribe
// link) and sends the batch sequentially.
func (s *NewsletterService) Send(ctx context.Context, in NewsletterInput) (BulkResult, error) {
	base := Newsletter{Subject: in.Subject, Headline: in.Headline, Body: in.Body, CTAText: in.CTAText, CTAURL: in.CTAURL}
	if _, err := RenderNewsletter(base); err != nil {
		return BulkResult{}, err
	}
	if !s.dispatcher.Configured() {
		return BulkResult{}, ErrNotConfigured
	}

	recipients := in.Recipients
	if len(recipients) == 0 {
		all, err := s.subs.ActiveSubscribers(ctx)
		if err != nil {
			return BulkResult{}, fmt.Errorf("load subscribers: %w", err)
		}
		recipients = all
	}

	res, err := s.dispatcher.SendBulk(ctx, recipients, func(to string) (Outgoing, error) {
		n := base
		if s.unsubscribeBase != "" {
			n.UnsubscribeURL = s.unsubscribeBase + "?email=" + url.QueryEscape(to)
		}
		r, err := RenderNewsletter(n)
		if err != nil {
			return Outgoing{}, err
		}
		return Outgoing{Subject: r.Subject, HTML: r.HTML, Type: TypeNewsletter}, nil
	})
	s.logger.InfoContext(ctx, "newsletter sent", "total", res.Total, "sent", res.Sent, "failed", res.Failed)
	return res, err
}
