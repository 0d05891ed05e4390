package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable card set. IDs are stable slugs ("vg-geralt") so the
// storefront and checkout metadata can refer to them directly.
type Product struct {
	ID        string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL  string          `gorm:"type:varchar(1024);not null;default:''" json:"image_url,omitempty"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"not null" json:"-"`
	UpdatedAt time.Time       `gorm:"not null" json:"-"`
}

func (Product) TableName() string { return "products" }
