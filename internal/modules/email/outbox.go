package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	outboxBaseDelay = time.Minute
	outboxMaxDelay  = time.Hour
	outboxLease     = 5 * time.Minute
)

type OutboxStore interface {
	Enqueue(ctx context.Context, m *OutboxMessage) error
	// ClaimDue returns pending messages due at now and pushes their next
	// attempt past lease so concurrent workers skip them.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error
}

func NewOutboxMessage(out Outgoing, now time.Time) OutboxMessage {
	if out.Type == "" {
		out.Type = TypeTransactional
	}
	return OutboxMessage{
		ID:            uuid.NewString(),
		Recipients:    joinRecipients(out.To),
		Subject:       out.Subject,
		BodyHTML:      out.HTML,
		Type:          out.Type,
		OrderID:       out.OrderID,
		Status:        StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RetryDelay is the wait after the given number of failed attempts:
// 1m, 2m, 4m, ... capped at one hour.
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := outboxBaseDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= outboxMaxDelay {
			return outboxMaxDelay
		}
	}
	return d
}

// OutboxService queues email outside of an order transaction.
type OutboxService struct {
	store OutboxStore
	waker interface{ Wake() }
	now   func() time.Time
}

func NewOutboxService(store OutboxStore, waker interface{ Wake() }) *OutboxService {
	return &OutboxService{store: store, waker: waker, now: time.Now}
}

func (s *OutboxService) Enqueue(ctx context.Context, out Outgoing) error {
	out, err := normalize(out)
	if err != nil {
		return err
	}
	msg := NewOutboxMessage(out, s.now().UTC())
	if err := s.store.Enqueue(ctx, &msg); err != nil {
		return err
	}
	if s.waker != nil {
		s.waker.Wake()
	}
	return nil
}

type WorkerOptions struct {
	PollInterval time.Duration
	MaxAttempts  int
	BatchSize    int
}

type OutboxWorker struct {
	store      OutboxStore
	dispatcher *Dispatcher
	opts       WorkerOptions
	wake       chan struct{}
	logger     *slog.Logger
	now        func() time.Time
}

func NewOutboxWorker(store OutboxStore, dispatcher *Dispatcher, opts WorkerOptions, logger *slog.Logger) *OutboxWorker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	return &OutboxWorker{
		store:      store,
		dispatcher: dispatcher,
		opts:       opts,
		wake:       make(chan struct{}, 1),
		logger:     logger,
		now:        time.Now,
	}
}

// Wake schedules an immediate pass without blocking the caller.
func (w *OutboxWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes the outbox until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	t := time.NewTicker(w.opts.PollInterval)
	defer t.Stop()

	w.logger.Info("email outbox worker started", "poll_interval", w.opts.PollInterval.String())
	for {
		if _, err := w.ProcessDue(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("email outbox pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			w.logger.Info("email outbox worker stopped")
			return
		case <-t.C:
		case <-w.wake:
		}
	}
}

type ProcessResult struct {
	Sent    int
	Retried int
	Failed  int
}

// ProcessDue delivers every due message once. Nothing is claimed while the
// transport is unconfigured, so no attempts are spent.
func (w *OutboxWorker) ProcessDue(ctx context.Context) (ProcessResult, error) {
	var res ProcessResult
	if !w.dispatcher.Configured() {
		return res, nil
	}

	now := w.now().UTC()
	msgs, err := w.store.ClaimDue(ctx, now, outboxLease, w.opts.BatchSize)
	if err != nil {
		return res, err
	}

	for _, m := range msgs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, sendErr := w.dispatcher.Send(ctx, Outgoing{
			To:      m.RecipientList(),
			Subject: m.Subject,
			HTML:    m.BodyHTML,
			Type:    m.Type,
			OrderID: m.OrderID,
		})
		if sendErr == nil {
			if err := w.store.MarkSent(ctx, m.ID, w.now().UTC()); err != nil {
				w.logger.ErrorContext(ctx, "outbox mark sent failed", "outbox_id", m.ID, "err", err)
			}
			res.Sent++
			continue
		}

		attempts := m.Attempts + 1
		msg := truncate(sendErr.Error(), 500)
		if attempts >= w.opts.MaxAttempts || errors.Is(sendErr, ErrInvalidMessage) {
			if err := w.store.MarkFailed(ctx, m.ID, attempts, msg); err != nil {
				w.logger.ErrorContext(ctx, "outbox mark failed failed", "outbox_id", m.ID, "err", err)
			}
			w.logger.WarnContext(ctx, "outbox message abandoned", "outbox_id", m.ID, "type", m.Type, "attempts", attempts, "err", sendErr)
			res.Failed++
			continue
		}

		next := now.Add(RetryDelay(attempts))
		if err := w.store.MarkRetry(ctx, m.ID, attempts, next, msg); err != nil {
			w.logger.ErrorContext(ctx, "outbox mark retry failed", "outbox_id", m.ID, "err", err)
		}
		res.Retried++
	}
	return res, nil
}
