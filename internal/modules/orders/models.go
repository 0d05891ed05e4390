package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                string `gorm:"type:char(36);primaryKey"`
	CheckoutSessionID string `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_checkout_session"`

	FirstName string  `gorm:"type:varchar(120);not null"`
	LastName  string  `gorm:"type:varchar(120);not null"`
	Email     string  `gorm:"type:varchar(255);not null;index:ix_orders_email"`
	Phone     *string `gorm:"type:varchar(64)"`

	ShipStreet  string `gorm:"type:varchar(255);not null"`
	ShipStreet2 string `gorm:"type:varchar(255);not null;default:''"`
	ShipCity    string `gorm:"type:varchar(120);not null"`
	ShipState   string `gorm:"type:varchar(64);not null"`
	ShipZip     string `gorm:"type:varchar(32);not null"`
	ShipCountry string `gorm:"type:varchar(2);not null"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Tax            decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	AmountCharged  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ShippingMethod string          `gorm:"type:varchar(32);not null"`

	Status string `gorm:"type:varchar(32);not null;index:ix_orders_status"`

	TrackingNumber  *string `gorm:"type:varchar(128)"`
	LabelURL        *string `gorm:"type:varchar(1024)"`
	Carrier         *string `gorm:"type:varchar(64)"`
	ShippingService *string `gorm:"type:varchar(64)"`
	LabelCreatedAt  *time.Time

	CreatedAt time.Time `gorm:"not null;index:ix_orders_created_at"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

func (o Order) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// AddressLines returns the non-empty shipping address lines for display.
func (o Order) AddressLines() []string {
	var out []string
	for _, s := range []string{o.ShipStreet, o.ShipStreet2} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(o.ShipCity, strings.TrimSpace(o.ShipState+" "+o.ShipZip)), ", "))
	if cityLine != "" {
		out = append(out, cityLine)
	}
	if o.ShipCountry != "" {
		out = append(out, o.ShipCountry)
	}
	return out
}

type OrderItem struct {
	ID          string          `gorm:"type:char(36);primaryKey"`
	OrderID     string          `gorm:"type:char(36);not null;index:ix_order_items_order"`
	ProductID   string          `gorm:"type:varchar(64);not null"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	PriceAtTime decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.PriceAtTime.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type OrderEvent struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	OrderID    string    `gorm:"type:char(36);not null;index:ix_order_events_order"`
	Actor      string    `gorm:"type:varchar(255);not null"`
	FromStatus string    `gorm:"type:varchar(32);not null"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	Note       *string   `gorm:"type:varchar(500)"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (OrderEvent) TableName() string { return "order_events" }

// LabelUpdate is written to the order after a label purchase.
type LabelUpdate struct {
	TrackingNumber string
	LabelURL       string
	Carrier        string
	Service        string
	CreatedAt      time.Time
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
