package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultNudgeDelay = 24 * time.Hour
	MinNudgeDelay     = time.Hour
	NudgeBatchSize    = 100
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrEmptyCart    = errors.New("cart is empty")
)

type ReminderStore interface {
	CreateReminder(ctx context.Context, r *AbandonedCartReminder) error
	DueReminders(ctx context.Context, cutoff time.Time, limit int) ([]AbandonedCartReminder, error)
	MarkNudged(ctx context.Context, id string, at time.Time) (bool, error)
}

// NudgeDelay turns the configured hours into the sweep delay: zero or
// negative means the default, anything under an hour is raised to one hour.
func NudgeDelay(hours int) time.Duration {
	if hours <= 0 {
		return DefaultNudgeDelay
	}
	d := time.Duration(hours) * time.Hour
	if d < MinNudgeDelay {
		return MinNudgeDelay
	}
	return d
}

type NudgeService struct {
	store      ReminderStore
	dispatcher *Dispatcher
	delay      time.Duration
	cartURL    string
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

func NewNudgeService(store ReminderStore, dispatcher *Dispatcher, delay time.Duration, cartURL string, logger *slog.Logger) *NudgeService {
	if delay < MinNudgeDelay {
		delay = MinNudgeDelay
	}
	return &NudgeService{
		store:      store,
		dispatcher: dispatcher,
		delay:      delay,
		cartURL:    cartURL,
		validate:   validator.New(),
		logger:     logger,
		now:        time.Now,
	}
}

type RecordInput struct {
	Email string
	Name  string
	Cart  []CartLine
}

// Record captures a cart for a later nudge and returns the reminder id.
func (s *NudgeService) Record(ctx context.Context, in RecordInput) (string, error) {
	addr := strings.TrimSpace(in.Email)
	if err := s.validate.Var(addr, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}

	var lines []CartLine
	for _, l := range in.Cart {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" && strings.TrimSpace(l.Name) == "" {
			continue
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	raw, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	rem := &AbandonedCartReminder{
		ID:        uuid.NewString(),
		Email:     addr,
		Name:      strings.TrimSpace(in.Name),
		CartJSON:  datatypes.JSON(raw),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateReminder(ctx, rem); err != nil {
		return "", err
	}
	return rem.ID, nil
}

type SweepResult struct {
	Due    int    `json:"due"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
	Reason string `json:"reason,omitempty"`
}

// Sweep nudges every due reminder once. A failed reminder stays un-nudged
// for the next sweep and never blocks the rows after it.
func (s *NudgeService) Sweep(ctx context.Context) (SweepResult, error) {
	if !s.dispatcher.Configured() {
		return SweepResult{Reason: "email provider not configured"}, nil
	}

	cutoff := s.now().UTC().Add(-s.delay)
	due, err := s.store.DueReminders(ctx, cutoff, NudgeBatchSize)
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{Due: len(due)}
	if len(due) == 0 {
		res.Reason = "no reminders due"
		return res, nil
	}

	for _, rem := range due {
		if err := s.dispatcher.Pace(ctx); err != nil {
			return res, err
		}
		if err := s.nudge(ctx, rem); err != nil {
			res.Failed++
			s.logger.WarnContext(ctx, "abandoned cart nudge failed", "reminder_id", rem.ID, "err", err)
			continue
		}
		res.Sent++
	}

	s.logger.InfoContext(ctx, "abandoned cart sweep finished", "due", res.Due, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (s *NudgeService) nudge(ctx context.Context, rem AbandonedCartReminder) error {
	var lines []CartLine
	if len(rem.CartJSON) > 0 {
		if err := json.Unmarshal(rem.CartJSON, &lines); err != nil {
			return fmt.Errorf("decode cart: %w", err)
		}
	}

	r, err := RenderNudge(Nudge{Name: rem.Name, Items: lines, CartURL: s.cartURL})
	if err != nil {
		return err
	}
	if _, err := s.dispatcher.Send(ctx, Outgoing{To: []string{rem.Email}, Subject: r.Subject, HTML: r.HTML, Type: TypeNudge}); err != nil {
		return err
	}

	if _, err := s.store.MarkNudged(ctx, rem.ID, s.now().UTC()); err != nil {
		// Sent but not stamped: the next sweep may nudge again.
		s.logger.ErrorContext(ctx, "abandoned cart mark failed", "reminder_id", rem.ID, "err", err)
	}
	return nil
}
