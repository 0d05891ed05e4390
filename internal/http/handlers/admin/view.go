package admin

import (
	"time"

	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/modules/shipping"
)

type orderSummary struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
	StoredAs    string          `json:"stored_status,omitempty"`
	Allowed     []string        `json:"allowed_statuses"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

type orderView struct {
	orderSummary
	CheckoutSessionID string          `json:"checkout_session_id"`
	Phone             string          `json:"phone,omitempty"`
	Address           []string        `json:"address"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	AmountCharged     decimal.Decimal `json:"amount_charged"`
	ShippingMethod    string          `json:"shipping_method"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	LabelURL          string          `json:"label_url,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	Service           string          `json:"service,omitempty"`
	LabelCreatedAt    *time.Time      `json:"label_created_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type itemView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type eventView struct {
	Actor string    `json:"actor"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	Note  string    `json:"note,omitempty"`
	At    time.Time `json:"at"`
}

type orderDetail struct {
	Order     orderView           `json:"order"`
	Items     []itemView          `json:"items"`
	Events    []eventView         `json:"events"`
	Shipments []shipping.Shipment `json:"shipments"`
}

func summarize(o orders.Order) orderSummary {
	status := orders.Normalize(o.Status)
	s := orderSummary{
		ID:          o.ID,
		Status:      status,
		StatusLabel: orders.Label(status),
		Allowed:     orders.AllowedTransitions(status),
		Name:        o.FullName(),
		Email:       o.Email,
		Total:       o.Total,
		CreatedAt:   o.CreatedAt,
	}
	if o.Status != status {
		s.StoredAs = o.Status
	}
	return s
}

func newOrderView(o orders.Order) orderView {
	return orderView{
		orderSummary:      summarize(o),
		CheckoutSessionID: o.CheckoutSessionID,
		Phone:             ptrStr(o.Phone),
		Address:           o.AddressLines(),
		Subtotal:          o.Subtotal,
		Tax:               o.Tax,
		ShippingCost:      o.ShippingCost,
		AmountCharged:     o.AmountCharged,
		ShippingMethod:    o.ShippingMethod,
		TrackingNumber:    ptrStr(o.TrackingNumber),
		LabelURL:          ptrStr(o.LabelURL),
		Carrier:           ptrStr(o.Carrier),
		Service:           ptrStr(o.ShippingService),
		LabelCreatedAt:    o.LabelCreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func pagesFromTotal(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	p := int((total + int64(size) - 1) / int64(size))
	if p < 1 {
		return 1
	}
	return p
}

func ptrStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
