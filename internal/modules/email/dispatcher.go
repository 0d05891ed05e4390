package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var ErrInvalidMessage = errors.New("invalid email message")

type LogStore interface {
	CreateLog(ctx context.Context, l *EmailLog) error
}

// Outgoing is a rendered email addressed to one or more recipients.
type Outgoing struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	Type    string
	OrderID *string
}

// Dispatcher sends email through one transport and writes the audit log.
type Dispatcher struct {
	sender  Sender
	logs    LogStore
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewDispatcher paces bulk sends to one message per bulkInterval; zero
// disables pacing.
func NewDispatcher(sender Sender, logs LogStore, bulkInterval time.Duration, logger *slog.Logger) *Dispatcher {
	lim := rate.NewLimiter(rate.Inf, 1)
	if bulkInterval > 0 {
		lim = rate.NewLimiter(rate.Every(bulkInterval), 1)
	}
	return &Dispatcher{sender: sender, logs: logs, limiter: lim, logger: logger, now: time.Now}
}

func (d *Dispatcher) Configured() bool {
	return d != nil && d.sender != nil && d.sender.Configured()
}

func normalize(out Outgoing) (Outgoing, error) {
	var to []string
	for _, r := range out.To {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	out.To = to
	out.Subject = strings.TrimSpace(out.Subject)
	if out.Type == "" {
		out.Type = TypeTransactional
	}

	switch {
	case len(out.To) == 0:
		return out, fmt.Errorf("%w: recipient required", ErrInvalidMessage)
	case out.Subject == "":
		return out, fmt.Errorf("%w: subject required", ErrInvalidMessage)
	case strings.TrimSpace(out.HTML) == "":
		return out, fmt.Errorf("%w: html body required", ErrInvalidMessage)
	}
	return out, nil
}

// Send makes one provider call for all recipients and logs the outcome.
// A failed log write is reported but never changes the send result.
func (d *Dispatcher) Send(ctx context.Context, out Outgoing) (SendResult, error) {
	out, err := normalize(out)
	if err != nil {
		return SendResult{}, err
	}
	if !d.Configured() {
		return SendResult{}, ErrNotConfigured
	}

	res, sendErr := d.sender.Send(ctx, Message{To: out.To, Subject: out.Subject, HTML: out.HTML, Text: out.Text})
	d.record(ctx, out, res, sendErr)

	if sendErr != nil {
		d.logger.WarnContext(ctx, "email send failed", "type", out.Type, "recipients", len(out.To), "err", sendErr)
		return SendResult{}, sendErr
	}
	d.logger.InfoContext(ctx, "email sent", "type", out.Type, "recipients", len(out.To), "message_id", res.MessageID)
	return res, nil
}

func (d *Dispatcher) record(ctx context.Context, out Outgoing, res SendResult, sendErr error) {
	if d.logs == nil {
		return
	}
	entry := &EmailLog{
		ID:         uuid.NewString(),
		Recipients: joinRecipients(out.To),
		Subject:    out.Subject,
		Type:       out.Type,
		OrderID:    out.OrderID,
		BodyHTML:   out.HTML,
		Status:     StatusSent,
		CreatedAt:  d.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = StatusFailed
		msg := truncate(sendErr.Error(), 500)
		entry.Error = &msg
	}
	if res.MessageID != "" {
		id := res.MessageID
		entry.ProviderMessageID = &id
	}
	if err := d.logs.CreateLog(ctx, entry); err != nil {
		d.logger.ErrorContext(ctx, "email log write failed", "type", out.Type, "status", entry.Status, "err", err)
	}
}

// Pace blocks until the bulk limiter admits the next send.
func (d *Dispatcher) Pace(ctx context.Context) error {
	return d.limiter.Wait(ctx)
}

type BulkFailure struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

type BulkResult struct {
	Total    int           `json:"total"`
	Sent     int           `json:"sent"`
	Failed   int           `json:"failed"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// SendBulk sends one message per recipient, sequentially and paced. A
// failed recipient is counted and the batch continues; only context
// cancellation stops it early.
func (d *Dispatcher) SendBulk(ctx context.Context, recipients []string, build func(to string) (Outgoing, error)) (BulkResult, error) {
	if !d.Configured() {
		return BulkResult{}, ErrNotConfigured
	}

	seen := map[string]bool{}
	var list []string
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, r)
	}

	res := BulkResult{Total: len(list)}
	for _, to := range list {
		if err := d.Pace(ctx); err != nil {
			return res, err
		}
		out, err := build(to)
		if err == nil {
			out.To = []string{to}
			_, err = d.Send(ctx, out)
		}
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, BulkFailure{Recipient: to, Error: err.Error()})
			continue
		}
		res.Sent++
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
