package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/resend/resend-go/v2"
)

var ErrNotConfigured = errors.New("email provider not configured")

type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

type SendResult struct {
	MessageID string
}

// Sender is one email transport.
type Sender interface {
	Send(ctx context.Context, m Message) (SendResult, error)
	Configured() bool
}

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a sender that reports ErrNotConfigured when apiKey
// is blank. A nil httpClient falls back to the library default.
func NewResendSender(apiKey, fromAddr, fromName string, httpClient *http.Client) *ResendSender {
	s := &ResendSender{from: fromAddr}
	if fromName != "" {
		s.from = fmt.Sprintf("%s <%s>", fromName, fromAddr)
	}
	if strings.TrimSpace(apiKey) != "" {
		if httpClient == nil {
			s.client = resend.NewClient(apiKey)
		} else {
			s.client = resend.NewCustomClient(httpClient, apiKey)
		}
	}
	return s
}

func (s *ResendSender) Configured() bool { return s != nil && s.client != nil }

func (s *ResendSender) Send(ctx context.Context, m Message) (SendResult, error) {
	if !s.Configured() {
		return SendResult{}, ErrNotConfigured
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      m.To,
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("resend: %w", err)
	}
	return SendResult{MessageID: sent.Id}, nil
}
