package accounts

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ClaimWelcome creates the profile if needed, then stamps the welcome flag
// only when it is still empty. The conditional update makes concurrent
// callers race safely: exactly one sees a row affected.
func (r *Repo) ClaimWelcome(ctx context.Context, accountID, addr, name string, at time.Time) (bool, error) {
	var claimed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := Profile{ID: accountID, Email: addr, Name: name, CreatedAt: at, UpdatedAt: at}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
			return err
		}
		res := tx.Model(&Profile{}).
			Where("id = ? AND welcome_email_sent_at IS NULL", accountID).
			Updates(map[string]any{"welcome_email_sent_at": at, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		claimed = res.RowsAffected == 1
		return nil
	})
	return claimed, err
}

// ReleaseWelcome clears the flag after a failed send so a later call retries.
func (r *Repo) ReleaseWelcome(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", accountID).
		Updates(map[string]any{"welcome_email_sent_at": nil, "updated_at": time.Now().UTC()}).Error
}

func (r *Repo) Get(ctx context.Context, accountID string) (Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", accountID).Error
	return p, err
}
