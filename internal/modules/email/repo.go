package email

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is the GORM store for every email table.
type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateLog(ctx context.Context, l *EmailLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Repo) Enqueue(ctx context.Context, m *OutboxMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]OutboxMessage, error) {
	var msgs []OutboxMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", StatusPending, now).
			Order("next_attempt_at ASC").
			Limit(limit).
			Find(&msgs).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		ids := make([]string, 0, len(msgs))
		for _, m := range msgs {
			ids = append(ids, m.ID)
		}
		return tx.Model(&OutboxMessage{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"next_attempt_at": now.Add(lease), "updated_at": now}).Error
	})
	return msgs, err
}

func (r *Repo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusSent, "sent_at": at, "last_error": nil, "updated_at": at}).Error
}

func (r *Repo) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     StatusFailed,
			"attempts":   attempts,
			"last_error": lastErr,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *Repo) CreateReminder(ctx context.Context, rem *AbandonedCartReminder) error {
	return r.db.WithContext(ctx).Create(rem).Error
}

// DueReminders returns un-nudged reminders created before cutoff, oldest first.
func (r *Repo) DueReminders(ctx context.Context, cutoff time.Time, limit int) ([]AbandonedCartReminder, error) {
	var out []AbandonedCartReminder
	err := r.db.WithContext(ctx).
		Where("nudge_sent_at IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkNudged stamps the reminder unless another sweep already did.
func (r *Repo) MarkNudged(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&AbandonedCartReminder{}).
		Where("id = ? AND nudge_sent_at IS NULL", id).
		Update("nudge_sent_at", at)
	return res.RowsAffected == 1, res.Error
}

// Subscribe adds the address or re-activates a previous subscription.
func (r *Repo) Subscribe(ctx context.Context, addr, name string) error {
	now := time.Now().UTC()
	sub := NewsletterSubscriber{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(addr)),
		Name:         strings.TrimSpace(name),
		SubscribedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{"unsubscribed_at": nil, "subscribed_at": now}),
		}).
		Create(&sub).Error
}

func (r *Repo) ActiveSubscribers(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&NewsletterSubscriber{}).
		Where("unsubscribed_at IS NULL").
		Order("subscribed_at ASC").
		Pluck("email", &emails).Error
	return emails, err
}

func (r *Repo) Unsubscribe(ctx context.Context, addr string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&NewsletterSubscriber{}).
		Where("email = ? AND unsubscribed_at IS NULL", strings.ToLower(strings.TrimSpace(addr))).
		Update("unsubscribed_at", time.Now().UTC())
	return res.RowsAffected == 1, res.Error
}
