package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/shared/money"
)

// OutboxWaker is poked after a commit that queued email.
type OutboxWaker interface {
	Wake()
}

type WebhookService struct {
	store         OrderStore
	snapshots     checkout.SnapshotStore
	catalog       checkout.Catalog
	pricer        checkout.Pricer
	waker         OutboxWaker
	publicBaseURL string
	shipCountry   string
	logger        *slog.Logger
	now           func() time.Time
}

type WebhookOptions struct {
	PublicBaseURL string
	ShipCountry   string
}

func NewWebhookService(store OrderStore, snapshots checkout.SnapshotStore, cat checkout.Catalog, pricer checkout.Pricer, waker OutboxWaker, opts WebhookOptions, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store:         store,
		snapshots:     snapshots,
		catalog:       cat,
		pricer:        pricer,
		waker:         waker,
		publicBaseURL: opts.PublicBaseURL,
		shipCountry:   opts.ShipCountry,
		logger:        logger,
		now:           time.Now,
	}
}

type HandleResult struct {
	OrderID   string
	Ignored   bool
	Duplicate bool
}

// Handle turns a verified checkout.session.completed event into an order.
// Other event types are acknowledged without side effects.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) (HandleResult, error) {
	if ev.Type != EventCheckoutCompleted {
		s.logger.InfoContext(ctx, "webhook event ignored", "provider", providerName, "event_id", ev.EventID, "type", ev.Type)
		return HandleResult{Ignored: true}, nil
	}

	sess, err := parseCompletedSession(ev.Object)
	if err != nil {
		return HandleResult{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	// Re-deliveries are answered before pricing so catalog changes since the
	// first delivery cannot turn them into errors.
	existing, seen, err := s.store.ExistingOrder(ctx, providerName, ev.EventID, sess.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook dedupe lookup failed", "event_id", ev.EventID, "session_id", sess.ID, "err", err)
	} else if seen {
		s.logger.InfoContext(ctx, "webhook event deduplicated", "provider", providerName, "event_id", ev.EventID, "session_id", sess.ID, "order_id", existing)
		return HandleResult{OrderID: existing, Duplicate: true}, nil
	}

	md, err := checkout.DecodeMetadata(sess.Metadata)
	if err != nil {
		return HandleResult{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	p, err := s.priceSession(ctx, sess.ID, md)
	if err != nil {
		return HandleResult{}, err
	}
	totals := s.pricer.TotalsWithShipping(p.lines, p.method, p.shipping)
	if p.tax != nil {
		totals.Tax = *p.tax
		totals.Total = totals.Subtotal.Add(totals.Tax).Add(totals.ShippingCost)
	}

	charged := totals.Total
	switch {
	case sess.AmountTotal != nil:
		charged = money.FromMinor(*sess.AmountTotal)
	case md.Subtotal != nil:
		charged = *md.Subtotal
	}
	if !charged.Equal(totals.Total) {
		s.logger.WarnContext(ctx, "charged amount differs from recomputed total",
			"session_id", sess.ID,
			"charged", money.Fixed(charged),
			"total", money.Fixed(totals.Total),
		)
	}

	now := s.now().UTC()
	order, items := s.buildOrder(sess, p.lines, totals, charged, now)
	outbox := s.confirmationMessage(ctx, order, items, now)

	res, err := s.store.PersistCheckout(ctx, PersistInput{
		Event: ProviderEvent{
			ID:          uuid.NewString(),
			Provider:    providerName,
			EventID:     ev.EventID,
			EventType:   ev.Type,
			Livemode:    ev.Livemode,
			PayloadJSON: datatypes.JSON(rawBody),
			ReceivedAt:  now,
		},
		Order:  order,
		Items:  items,
		Outbox: outbox,
	})
	if err != nil {
		attrs := []any{"provider", providerName, "event_id", ev.EventID, "session_id", sess.ID, "err", err}
		var pe *PersistError
		if errors.As(err, &pe) {
			attrs = append(attrs, "stage", pe.Stage)
		}
		s.logger.ErrorContext(ctx, "order persist failed", attrs...)
		return HandleResult{}, err
	}
	if res.Duplicate {
		s.logger.InfoContext(ctx, "webhook event deduplicated", "provider", providerName, "event_id", ev.EventID, "session_id", sess.ID, "order_id", res.OrderID)
		return HandleResult{OrderID: res.OrderID, Duplicate: true}, nil
	}

	if outbox != nil && s.waker != nil {
		s.waker.Wake()
	}
	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"session_id", sess.ID,
		"items", len(items),
		"total", money.Fixed(order.Total),
	)
	return HandleResult{OrderID: order.ID}, nil
}

type pricedSession struct {
	lines    []checkout.Line
	method   string
	shipping decimal.Decimal
	// tax is the amount charged at checkout, nil when no snapshot exists.
	tax *decimal.Decimal
}

// priceSession resolves unit prices for the metadata lines: the checkout
// snapshot first, the live catalog for anything the snapshot lacks.
func (s *WebhookService) priceSession(ctx context.Context, sessionID string, md checkout.Metadata) (pricedSession, error) {
	type priced struct {
		name  string
		price decimal.Decimal
	}
	known := map[string]priced{}

	var snap *checkout.Snapshot
	if s.snapshots != nil {
		var err error
		snap, err = s.snapshots.FindBySession(ctx, sessionID)
		if err != nil {
			s.logger.WarnContext(ctx, "checkout snapshot lookup failed", "session_id", sessionID, "err", err)
			snap = nil
		}
	}
	if snap != nil {
		snapLines, err := snap.Lines()
		if err != nil {
			s.logger.WarnContext(ctx, "checkout snapshot unreadable", "session_id", sessionID, "err", err)
		}
		for _, l := range snapLines {
			known[l.ProductID] = priced{name: l.Name, price: l.UnitPrice}
		}
	}

	var missing []string
	for _, it := range md.Items {
		if _, ok := known[it.ProductID]; !ok {
			missing = append(missing, it.ProductID)
		}
	}
	if len(missing) > 0 {
		products, err := s.catalog.GetMany(ctx, missing)
		if err != nil {
			return pricedSession{}, fmt.Errorf("catalog lookup: %w", err)
		}
		var unknown []string
		for _, id := range missing {
			p, ok := products[id]
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			known[id] = priced{name: p.Name, price: p.Price}
		}
		if len(unknown) > 0 {
			return pricedSession{}, fmt.Errorf("%w: %w", ErrInvalidSession, &checkout.UnknownProductError{IDs: unknown})
		}
	}

	lines := make([]checkout.Line, 0, len(md.Items))
	for _, it := range md.Items {
		p := known[it.ProductID]
		lines = append(lines, checkout.Line{
			ProductID: it.ProductID,
			Name:      p.name,
			Quantity:  it.Quantity,
			UnitPrice: p.price,
		})
	}

	if snap != nil {
		tax := snap.Tax
		return pricedSession{lines: lines, method: snap.ShippingMethod, shipping: snap.ShippingCost, tax: &tax}, nil
	}
	method, cost, err := s.pricer.ShippingCost(md.ShippingMethod)
	if err != nil {
		return pricedSession{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return pricedSession{lines: lines, method: method, shipping: cost}, nil
}

func (s *WebhookService) buildOrder(sess completedSession, lines []checkout.Line, t checkout.Totals, charged decimal.Decimal, now time.Time) (orders.Order, []orders.OrderItem) {
	c := sess.customer()
	country := strings.ToUpper(strings.TrimSpace(c.Address.Country))
	if country == "" {
		country = s.shipCountry
	}

	o := orders.Order{
		ID:                uuid.NewString(),
		CheckoutSessionID: sess.ID,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Email:             c.Email,
		ShipStreet:        strings.TrimSpace(c.Address.Line1),
		ShipStreet2:       strings.TrimSpace(c.Address.Line2),
		ShipCity:          strings.TrimSpace(c.Address.City),
		ShipState:         strings.TrimSpace(c.Address.State),
		ShipZip:           strings.TrimSpace(c.Address.PostalCode),
		ShipCountry:       country,
		Subtotal:          t.Subtotal,
		Tax:               t.Tax,
		ShippingCost:      t.ShippingCost,
		Total:             t.Total,
		AmountCharged:     charged,
		ShippingMethod:    t.ShippingMethod,
		Status:            orders.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p := strings.TrimSpace(c.Phone); p != "" {
		o.Phone = &p
	}

	items := make([]orders.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, orders.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ProductID:   l.ProductID,
			Name:        l.Name,
			Quantity:    l.Quantity,
			PriceAtTime: l.UnitPrice,
			CreatedAt:   now,
		})
	}
	return o, items
}

// confirmationMessage renders the order confirmation for the outbox. A
// missing address or template failure only skips the email.
func (s *WebhookService) confirmationMessage(ctx context.Context, o orders.Order, items []orders.OrderItem, now time.Time) *email.OutboxMessage {
	if o.Email == "" {
		s.logger.WarnContext(ctx, "order has no customer email; confirmation skipped", "order_id", o.ID)
		return nil
	}

	data := email.OrderConfirmation{
		OrderID:        o.ID,
		CustomerName:   o.FirstName,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		ShippingCost:   o.ShippingCost,
		Total:          o.Total,
		ShippingMethod: o.ShippingMethod,
		Address:        o.AddressLines(),
		ShopURL:        s.publicBaseURL,
	}
	for _, it := range items {
		data.Items = append(data.Items, email.LineItem{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.PriceAtTime})
	}

	r, err := email.RenderOrderConfirmation(data)
	if err != nil {
		s.logger.ErrorContext(ctx, "order confirmation render failed", "order_id", o.ID, "err", err)
		return nil
	}
	orderID := o.ID
	msg := email.NewOutboxMessage(email.Outgoing{
		To:      []string{o.Email},
		Subject: r.Subject,
		HTML:    r.HTML,
		Type:    email.TypeOrderConfirmation,
		OrderID: &orderID,
	}, now)
	return &msg
}
