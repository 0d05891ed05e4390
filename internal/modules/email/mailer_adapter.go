package email

import (
	"context"

	"stakdcards.com/app/internal/mailer"
)

// MailerAdapter sends through the SMTP mailer.
type MailerAdapter struct {
	mailer   mailer.Service
	fromAddr string
	fromName string
}

func NewMailerAdapter(m mailer.Service, fromAddr, fromName string) *MailerAdapter {
	return &MailerAdapter{
		mailer:   m,
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (a *MailerAdapter) Configured() bool {
	if a == nil || a.mailer == nil {
		return false
	}
	if c, ok := a.mailer.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (a *MailerAdapter) Send(ctx context.Context, m Message) (SendResult, error) {
	if !a.Configured() {
		return SendResult{}, ErrNotConfigured
	}
	err := a.mailer.Send(ctx, mailer.Email{
		From:     a.fromAddr,
		FromName: a.fromName,
		To:       m.To,
		Subject:  m.Subject,
		TextBody: m.Text,
		HTMLBody: m.HTML,
	})
	return SendResult{}, err
}
