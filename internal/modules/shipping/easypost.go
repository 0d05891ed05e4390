package shipping

import (
	"context"
	"net/http"
	"strings"

	"github.com/EasyPost/easypost-go/v4"
	"github.com/shopspring/decimal"
)

type EasyPost struct {
	client *easypost.Client
}

// NewEasyPost returns an unconfigured provider when apiKey is blank.
func NewEasyPost(apiKey string, httpClient *http.Client) *EasyPost {
	if strings.TrimSpace(apiKey) == "" {
		return &EasyPost{}
	}
	c := easypost.New(apiKey)
	if httpClient != nil {
		c.Client = httpClient
	}
	return &EasyPost{client: c}
}

func (p *EasyPost) Configured() bool { return p != nil && p.client != nil }

func (p *EasyPost) Quote(ctx context.Context, from, to Address, parcel Parcel) (Quote, error) {
	if !p.Configured() {
		return Quote{}, ErrNotConfigured
	}
	shp, err := p.client.CreateShipmentWithContext(ctx, &easypost.Shipment{
		FromAddress: toEasyPostAddress(from),
		ToAddress:   toEasyPostAddress(to),
		Parcel: &easypost.Parcel{
			Length: parcel.LengthIn,
			Width:  parcel.WidthIn,
			Height: parcel.HeightIn,
			Weight: parcel.WeightOz,
		},
	})
	if err != nil {
		return Quote{}, &ProviderError{Op: "quote", Msg: err.Error(), Err: err}
	}

	q := Quote{ShipmentID: shp.ID}
	for _, r := range shp.Rates {
		if r == nil {
			continue
		}
		amt, err := decimal.NewFromString(r.Rate)
		if err != nil {
			continue
		}
		q.Rates = append(q.Rates, Rate{ID: r.ID, Carrier: r.Carrier, Service: r.Service, Amount: amt, Currency: r.Currency})
	}
	return q, nil
}

func (p *EasyPost) Buy(ctx context.Context, shipmentID string, rate Rate) (Purchase, error) {
	if !p.Configured() {
		return Purchase{}, ErrNotConfigured
	}
	shp, err := p.client.BuyShipmentWithContext(ctx, shipmentID, &easypost.Rate{ID: rate.ID}, "")
	if err != nil {
		return Purchase{}, &ProviderError{Op: "purchase", Msg: err.Error(), Err: err}
	}

	out := Purchase{
		ShipmentID:     shp.ID,
		TrackingNumber: shp.TrackingCode,
		Carrier:        rate.Carrier,
		Service:        rate.Service,
		Amount:         rate.Amount,
	}
	if shp.PostageLabel != nil {
		out.LabelURL = shp.PostageLabel.LabelURL
	}
	if sr := shp.SelectedRate; sr != nil {
		out.Carrier, out.Service = sr.Carrier, sr.Service
		if amt, err := decimal.NewFromString(sr.Rate); err == nil {
			out.Amount = amt
		}
	}
	return out, nil
}

func toEasyPostAddress(a Address) *easypost.Address {
	return &easypost.Address{
		Name:    a.Name,
		Company: a.Company,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}
