package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot records the server-side prices a session was created with.
type Snapshot struct {
	ID             string          `gorm:"type:char(36);primaryKey"`
	SessionID      string          `gorm:"type:varchar(255);not null;uniqueIndex:ux_checkout_snapshots_session"`
	LinesJSON      datatypes.JSON  `gorm:"type:json;not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Tax            decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ShippingMethod string          `gorm:"type:varchar(32);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

func (Snapshot) TableName() string { return "checkout_snapshots" }

type SnapshotLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (s Snapshot) Lines() ([]SnapshotLine, error) {
	var out []SnapshotLine
	if len(s.LinesJSON) == 0 {
		return out, nil
	}
	err := json.Unmarshal(s.LinesJSON, &out)
	return out, err
}

func NewSnapshot(id, sessionID string, lines []Line, t Totals, now time.Time) (Snapshot, error) {
	sl := make([]SnapshotLine, 0, len(lines))
	for _, l := range lines {
		sl = append(sl, SnapshotLine{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	raw, err := json.Marshal(sl)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:             id,
		SessionID:      sessionID,
		LinesJSON:      datatypes.JSON(raw),
		Subtotal:       t.Subtotal,
		Tax:            t.Tax,
		ShippingCost:   t.ShippingCost,
		Total:          t.Total,
		ShippingMethod: t.ShippingMethod,
		CreatedAt:      now,
	}, nil
}

type SnapshotStore interface {
	Save(ctx context.Context, s Snapshot) error
	// FindBySession returns nil, nil when no snapshot exists.
	FindBySession(ctx context.Context, sessionID string) (*Snapshot, error)
}

type SnapshotRepo struct{ db *gorm.DB }

func NewSnapshotRepo(db *gorm.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) error {
	return r.db.WithContext(ctx).Create(&s).Error
}

func (r *SnapshotRepo) FindBySession(ctx context.Context, sessionID string) (*Snapshot, error) {
	var s Snapshot
	err := r.db.WithContext(ctx).First(&s, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
