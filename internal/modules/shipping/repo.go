package shipping

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stakdcards.com/app/internal/modules/orders"
)

// Shipment records one purchased label.
type Shipment struct {
	ID                 string          `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID            string          `gorm:"type:char(36);not null;index:ix_shipments_order" json:"order_id"`
	ProviderShipmentID string          `gorm:"type:varchar(64);not null" json:"provider_shipment_id"`
	RateID             string          `gorm:"type:varchar(64);not null" json:"rate_id"`
	Carrier            string          `gorm:"type:varchar(64);not null" json:"carrier"`
	Service            string          `gorm:"type:varchar(64);not null" json:"service"`
	Rate               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"rate"`
	TrackingNumber     string          `gorm:"type:varchar(128);not null" json:"tracking_number"`
	LabelURL           string          `gorm:"type:varchar(1024);not null" json:"label_url"`
	ArchivedLabelURL   *string         `gorm:"type:varchar(1024)" json:"archived_label_url,omitempty"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
}

func (Shipment) TableName() string { return "shipments" }

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListByOrder(ctx context.Context, orderID string) ([]Shipment, error) {
	orderID = strings.ToLower(strings.TrimSpace(orderID))

	var shipments []Shipment
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&shipments, "order_id = ?", orderID).Error
	return shipments, err
}

// RecordLabel writes the label onto the order and the shipment row in one
// transaction.
func (r *Repo) RecordLabel(ctx context.Context, orderID string, l orders.LabelUpdate, s *Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := orders.NewRepo(tx).SetLabel(ctx, orderID, l); err != nil {
			return err
		}
		return tx.Create(s).Error
	})
}

func (r *Repo) SetArchivedURL(ctx context.Context, shipmentID, url string) error {
	return r.db.WithContext(ctx).Model(&Shipment{}).
		Where("id = ?", shipmentID).
		Update("archived_label_url", url).Error
}
