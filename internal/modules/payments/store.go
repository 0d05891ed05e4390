package payments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stakdcards.com/app/internal/database"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
)

// PersistInput is everything written for one completed checkout.
type PersistInput struct {
	Event  ProviderEvent
	Order  orders.Order
	Items  []orders.OrderItem
	Outbox *email.OutboxMessage
}

type PersistResult struct {
	OrderID   string
	Duplicate bool
}

// OrderStore writes a completed checkout atomically. A repeated event id or
// session id yields Duplicate with the existing order id and writes nothing.
type OrderStore interface {
	// ExistingOrder reports whether the event or its session was already
	// recorded, with the order id when an order exists.
	ExistingOrder(ctx context.Context, provider, eventID, sessionID string) (string, bool, error)
	PersistCheckout(ctx context.Context, in PersistInput) (PersistResult, error)
}

type GormStore struct {
	db       *gorm.DB
	attempts int
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db, attempts: 3} }

func (s *GormStore) ExistingOrder(ctx context.Context, provider, eventID, sessionID string) (string, bool, error) {
	db := s.db.WithContext(ctx)
	id, err := orderIDForSession(db, sessionID)
	if err != nil {
		return "", false, err
	}
	if id != "" {
		return id, true, nil
	}
	var n int64
	if err := db.Model(&ProviderEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Count(&n).Error; err != nil {
		return "", false, err
	}
	return "", n > 0, nil
}

func (s *GormStore) PersistCheckout(ctx context.Context, in PersistInput) (PersistResult, error) {
	var res PersistResult
	err := database.WithTxRetry(ctx, s.db, s.attempts, func(tx *gorm.DB) error {
		res = PersistResult{}

		// dedupe: unique(provider,event_id)
		ev := in.Event
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ev)
		if created.Error != nil {
			return &PersistError{Stage: StageEvent, Err: created.Error}
		}
		if created.RowsAffected == 0 {
			id, err := orderIDForSession(tx, in.Order.CheckoutSessionID)
			if err != nil {
				return &PersistError{Stage: StageEvent, Err: err}
			}
			res = PersistResult{OrderID: id, Duplicate: true}
			return nil
		}

		// dedupe: unique(checkout_session_id)
		o := in.Order
		created = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&o)
		if created.Error != nil {
			return &PersistError{Stage: StageOrder, Err: created.Error}
		}
		if created.RowsAffected == 0 {
			id, err := orderIDForSession(tx, o.CheckoutSessionID)
			if err != nil {
				return &PersistError{Stage: StageOrder, Err: err}
			}
			res = PersistResult{OrderID: id, Duplicate: true}
			return markProcessed(tx, ev.ID)
		}

		if len(in.Items) > 0 {
			items := in.Items
			if err := tx.CreateInBatches(&items, 100).Error; err != nil {
				return &PersistError{Stage: StageItems, Err: err}
			}
		}

		if in.Outbox != nil {
			msg := *in.Outbox
			if err := tx.Create(&msg).Error; err != nil {
				return &PersistError{Stage: StageOutbox, Err: err}
			}
		}

		res = PersistResult{OrderID: o.ID}
		return markProcessed(tx, ev.ID)
	})
	return res, err
}

func orderIDForSession(tx *gorm.DB, sessionID string) (string, error) {
	var o orders.Order
	err := tx.Select("id").Where("checkout_session_id = ?", sessionID).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return o.ID, err
}

func markProcessed(tx *gorm.DB, eventID string) error {
	now := time.Now().UTC()
	if err := tx.Model(&ProviderEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]any{"processed_at": &now, "process_error": nil}).Error; err != nil {
		return &PersistError{Stage: StageMark, Err: err}
	}
	return nil
}
