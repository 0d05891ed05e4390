package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence the fulfillment tracker needs.
type Store interface {
	Get(ctx context.Context, id string) (Order, error)
	// UpdateStatus moves the order from its stored status to the target and
	// records ev in one transaction. It fails with ErrStaleStatus when the
	// stored status no longer equals from.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time, ev OrderEvent) error
}

type AdminService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminService(store Store, logger *slog.Logger) *AdminService {
	return &AdminService{store: store, logger: logger, now: time.Now}
}

type TransitionInput struct {
	OrderID string
	Actor   string // admin identity (JWT subject or "admin-key")
	Status  string // desired status
	Note    string
}

type TransitionResult struct {
	OrderID string
	From    string // normalized
	To      string
	Changed bool
	Allowed []string // allowed set after the update
}

// Transition validates the requested status against the allowed set for the
// order's current status and persists it. Requesting the current status is a
// successful no-op.
func (s *AdminService) Transition(ctx context.Context, in TransitionInput) (TransitionResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" || in.Actor == "" {
		return TransitionResult{}, ErrNotActionable
	}
	target := strings.ToLower(strings.TrimSpace(in.Status))
	if !IsCanonical(target) {
		return TransitionResult{}, fmt.Errorf("%w: %q", ErrUnknownStatus, in.Status)
	}

	o, err := s.store.Get(ctx, in.OrderID)
	if err != nil {
		return TransitionResult{}, err
	}

	from := Normalize(o.Status)
	if !CanTransition(from, target) {
		return TransitionResult{
			OrderID: o.ID,
			From:    from,
			To:      target,
			Allowed: AllowedTransitions(from),
		}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}

	if from == target {
		return TransitionResult{OrderID: o.ID, From: from, To: target, Allowed: AllowedTransitions(from)}, nil
	}

	now := s.now().UTC()
	var notePtr *string
	if n := strings.TrimSpace(in.Note); n != "" {
		notePtr = &n
	}
	ev := OrderEvent{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		Actor:      in.Actor,
		FromStatus: from,
		ToStatus:   target,
		Note:       notePtr,
		CreatedAt:  now,
	}

	if err := s.store.UpdateStatus(ctx, o.ID, o.Status, target, now, ev); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return TransitionResult{}, err
		}
		s.logger.ErrorContext(ctx, "order status update failed", "order_id", o.ID, "from", from, "to", target, "err", err)
		return TransitionResult{}, fmt.Errorf("%w: %w", ErrStatusUpdateFailed, err)
	}

	s.logger.InfoContext(ctx, "order status updated", "order_id", o.ID, "from", from, "to", target, "actor", in.Actor)
	return TransitionResult{
		OrderID: o.ID,
		From:    from,
		To:      target,
		Changed: true,
		Allowed: AllowedTransitions(target),
	}, nil
}
