package shipping

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured  = errors.New("shipping provider not configured")
	ErrNoRates        = errors.New("no shipping rates available for this address and parcel")
	ErrOrderCancelled = errors.New("order is cancelled")
	ErrLabelExists    = errors.New("order already has a shipping label")
)

type Address struct {
	Name    string
	Company string
	Street1 string
	Street2 string
	City    string
	State   string
	Zip     string
	Country string
	Phone   string
	Email   string
}

// Parcel dimensions are in inches, weight in ounces.
type Parcel struct {
	LengthIn float64
	WidthIn  float64
	HeightIn float64
	WeightOz float64
}

// DefaultParcel fits one boxed card stack.
var DefaultParcel = Parcel{LengthIn: 9, WidthIn: 7, HeightIn: 4, WeightOz: 12}

type Rate struct {
	ID       string
	Carrier  string
	Service  string
	Amount   decimal.Decimal
	Currency string
}

type Quote struct {
	ShipmentID string
	Rates      []Rate
}

type Purchase struct {
	ShipmentID     string
	TrackingNumber string
	LabelURL       string
	Carrier        string
	Service        string
	Amount         decimal.Decimal
}

// Provider is a carrier aggregator.
type Provider interface {
	Configured() bool
	Quote(ctx context.Context, from, to Address, p Parcel) (Quote, error)
	Buy(ctx context.Context, shipmentID string, rate Rate) (Purchase, error)
}

// ProviderError carries the aggregator's message for the caller.
type ProviderError struct {
	Op  string
	Msg string
	Err error
}

func (e *ProviderError) Error() string { return e.Op + ": " + e.Msg }
func (e *ProviderError) Unwrap() error { return e.Err }
