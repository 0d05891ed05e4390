package shipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
)

const quoteAttempts = 3

type OrderReader interface {
	Get(ctx context.Context, id string) (orders.Order, error)
}

type LabelStore interface {
	RecordLabel(ctx context.Context, orderID string, l orders.LabelUpdate, s *Shipment) error
	SetArchivedURL(ctx context.Context, shipmentID, url string) error
}

type Archiver interface {
	Archive(ctx context.Context, orderID, labelURL string) (string, error)
}

type Notifier interface {
	Enqueue(ctx context.Context, out email.Outgoing) error
}

type Service struct {
	orders   OrderReader
	labels   LabelStore
	provider Provider
	from     Address
	archiver Archiver
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	backoff  time.Duration
}

// NewService wires label procurement. archiver and notifier may be nil.
func NewService(ord OrderReader, labels LabelStore, provider Provider, from Address, archiver Archiver, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		orders:   ord,
		labels:   labels,
		provider: provider,
		from:     from,
		archiver: archiver,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		backoff:  200 * time.Millisecond,
	}
}

// LabelInput overrides are applied field by field over the defaults.
type LabelInput struct {
	OrderID        string
	From           Address
	LengthIn       *float64
	WidthIn        *float64
	HeightIn       *float64
	WeightOz       *float64
	NotifyCustomer bool
}

type LabelResult struct {
	OrderID          string          `json:"order_id"`
	ShipmentID       string          `json:"shipment_id"`
	LabelURL         string          `json:"label_url"`
	ArchivedLabelURL string          `json:"archived_label_url,omitempty"`
	TrackingNumber   string          `json:"tracking_number"`
	Carrier          string          `json:"carrier"`
	Service          string          `json:"service"`
	Rate             decimal.Decimal `json:"rate"`
}

// CreateLabel quotes, buys the cheapest rate and records it on the order.
// Nothing is written unless the purchase succeeds.
func (s *Service) CreateLabel(ctx context.Context, in LabelInput) (LabelResult, error) {
	if !s.provider.Configured() {
		return LabelResult{}, ErrNotConfigured
	}

	o, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return LabelResult{}, err
	}
	if orders.Normalize(o.Status) == orders.StatusCancelled {
		return LabelResult{}, ErrOrderCancelled
	}
	if o.TrackingNumber != nil && *o.TrackingNumber != "" {
		return LabelResult{}, ErrLabelExists
	}

	from := mergeAddress(s.from, in.From)
	to := Address{
		Name:    o.FullName(),
		Street1: o.ShipStreet,
		Street2: o.ShipStreet2,
		City:    o.ShipCity,
		State:   o.ShipState,
		Zip:     o.ShipZip,
		Country: o.ShipCountry,
		Email:   o.Email,
	}
	if o.Phone != nil {
		to.Phone = *o.Phone
	}

	q, err := s.quote(ctx, from, to, in.parcel())
	if err != nil {
		return LabelResult{}, err
	}
	rate, err := Cheapest(q.Rates)
	if err != nil {
		return LabelResult{}, err
	}

	p, err := s.provider.Buy(ctx, q.ShipmentID, rate)
	if err != nil {
		s.logger.ErrorContext(ctx, "label purchase failed", "order_id", o.ID, "shipment_id", q.ShipmentID, "rate_id", rate.ID, "err", err)
		return LabelResult{}, err
	}

	now := s.now().UTC()
	sh := &Shipment{
		ID:                 uuid.NewString(),
		OrderID:            o.ID,
		ProviderShipmentID: p.ShipmentID,
		RateID:             rate.ID,
		Carrier:            p.Carrier,
		Service:            p.Service,
		Rate:               p.Amount,
		TrackingNumber:     p.TrackingNumber,
		LabelURL:           p.LabelURL,
		CreatedAt:          now,
	}
	err = s.labels.RecordLabel(ctx, o.ID, orders.LabelUpdate{
		TrackingNumber: p.TrackingNumber,
		LabelURL:       p.LabelURL,
		Carrier:        p.Carrier,
		Service:        p.Service,
		CreatedAt:      now,
	}, sh)
	if err != nil {
		// The label is paid for; keep enough in the log to attach it by hand.
		s.logger.ErrorContext(ctx, "label purchased but not recorded",
			"order_id", o.ID, "tracking_number", p.TrackingNumber, "label_url", p.LabelURL, "err", err)
		return LabelResult{}, fmt.Errorf("record label: %w", err)
	}

	res := LabelResult{
		OrderID:        o.ID,
		ShipmentID:     sh.ID,
		LabelURL:       p.LabelURL,
		TrackingNumber: p.TrackingNumber,
		Carrier:        p.Carrier,
		Service:        p.Service,
		Rate:           p.Amount,
	}
	s.logger.InfoContext(ctx, "shipping label created", "order_id", o.ID, "carrier", p.Carrier, "service", p.Service, "rate", p.Amount.StringFixed(2))

	res.ArchivedLabelURL = s.archive(ctx, o.ID, sh.ID, p.LabelURL)
	if in.NotifyCustomer {
		s.notify(ctx, o, p)
	}
	return res, nil
}

func (s *Service) quote(ctx context.Context, from, to Address, parcel Parcel) (Quote, error) {
	var lastErr error
	for i := 0; i < quoteAttempts; i++ {
		q, err := s.provider.Quote(ctx, from, to, parcel)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if !isTransient(err) || i == quoteAttempts-1 {
			break
		}
		s.logger.WarnContext(ctx, "shipping quote retry", "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return Quote{}, ctx.Err()
		case <-time.After(s.backoff * time.Duration(i+1)):
		}
	}
	return Quote{}, lastErr
}

func (s *Service) archive(ctx context.Context, orderID, shipmentID, labelURL string) string {
	if s.archiver == nil || labelURL == "" {
		return ""
	}
	url, err := s.archiver.Archive(ctx, orderID, labelURL)
	if err != nil {
		s.logger.WarnContext(ctx, "label archive failed", "order_id", orderID, "err", err)
		return ""
	}
	if err := s.labels.SetArchivedURL(ctx, shipmentID, url); err != nil {
		s.logger.WarnContext(ctx, "label archive url not saved", "order_id", orderID, "err", err)
	}
	return url
}

func (s *Service) notify(ctx context.Context, o orders.Order, p Purchase) {
	if s.notifier == nil || o.Email == "" {
		return
	}
	r, err := email.RenderShipmentNotice(email.ShipmentNotice{
		OrderID:        o.ID,
		CustomerName:   o.FirstName,
		Carrier:        p.Carrier,
		Service:        p.Service,
		TrackingNumber: p.TrackingNumber,
	})
	if err == nil {
		orderID := o.ID
		err = s.notifier.Enqueue(ctx, email.Outgoing{
			To:      []string{o.Email},
			Subject: r.Subject,
			HTML:    r.HTML,
			Type:    email.TypeShipmentNotice,
			OrderID: &orderID,
		})
	}
	if err != nil {
		s.logger.WarnContext(ctx, "shipment notice not queued", "order_id", o.ID, "err", err)
	}
}

func (in LabelInput) parcel() Parcel {
	p := DefaultParcel
	for _, o := range []struct {
		src *float64
		dst *float64
	}{
		{in.LengthIn, &p.LengthIn},
		{in.WidthIn, &p.WidthIn},
		{in.HeightIn, &p.HeightIn},
		{in.WeightOz, &p.WeightOz},
	} {
		if o.src != nil && *o.src > 0 {
			*o.dst = *o.src
		}
	}
	return p
}

func mergeAddress(base, over Address) Address {
	pick := func(a, b string) string {
		if b = strings.TrimSpace(b); b != "" {
			return b
		}
		return a
	}
	return Address{
		Name:    pick(base.Name, over.Name),
		Company: pick(base.Company, over.Company),
		Street1: pick(base.Street1, over.Street1),
		Street2: pick(base.Street2, over.Street2),
		City:    pick(base.City, over.City),
		State:   pick(base.State, over.State),
		Zip:     pick(base.Zip, over.Zip),
		Country: pick(base.Country, over.Country),
		Phone:   pick(base.Phone, over.Phone),
		Email:   pick(base.Email, over.Email),
	}
}

func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
