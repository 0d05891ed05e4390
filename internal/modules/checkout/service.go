package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/modules/catalog"
	"stakdcards.com/app/internal/shared/money"
)

// Catalog resolves authoritative product data.
type Catalog interface {
	GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

// SessionLine is a provider line item in minor units.
type SessionLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	ImageURL   string
}

type SessionRequest struct {
	Lines            []SessionLine
	ShippingAmount   int64
	ShippingLabel    string
	Currency         string
	Metadata         map[string]string
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	CustomerEmail    string
}

type Session struct {
	ID  string
	URL string
}

// SessionProvider creates hosted payment sessions.
type SessionProvider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

type Options struct {
	Currency      string
	ShipCountry   string
	PublicBaseURL string
}

type Service struct {
	catalog   Catalog
	provider  SessionProvider
	snapshots SnapshotStore
	pricer    Pricer
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(cat Catalog, provider SessionProvider, snapshots SnapshotStore, pricer Pricer, opts Options, logger *slog.Logger) *Service {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.ShipCountry == "" {
		opts.ShipCountry = "US"
	}
	return &Service{
		catalog:   cat,
		provider:  provider,
		snapshots: snapshots,
		pricer:    pricer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// CartLineInput is a line as the storefront submits it. Name and Price are
// what the shopper saw and are only used to detect a stale cart.
type CartLineInput struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	ImageURL  string
}

type CreateSessionInput struct {
	Items          []CartLineInput
	SuccessURLBase string
	ShippingMethod string
	CustomerEmail  string

	// Client-computed figures, all optional.
	Subtotal     *decimal.Decimal
	Tax          *decimal.Decimal
	ShippingCost *decimal.Decimal
}

type CreateSessionResult struct {
	SessionID string
	URL       string
	Totals    Totals
}

func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (CreateSessionResult, error) {
	if len(in.Items) == 0 {
		return CreateSessionResult{}, ErrEmptyCart
	}
	if s.provider == nil {
		return CreateSessionResult{}, ErrProviderNotConfigured
	}

	lines, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return CreateSessionResult{}, err
	}
	totals, err := s.pricer.Totals(lines, in.ShippingMethod)
	if err != nil {
		return CreateSessionResult{}, err
	}
	if err := checkClientFigures(in, totals); err != nil {
		return CreateSessionResult{}, err
	}

	md, err := EncodeMetadata(lines, totals)
	if err != nil {
		return CreateSessionResult{}, err
	}

	base := strings.TrimRight(strings.TrimSpace(in.SuccessURLBase), "/")
	if base == "" {
		base = s.opts.PublicBaseURL
	}

	req := SessionRequest{
		Currency:         s.opts.Currency,
		Metadata:         md,
		SuccessURL:       base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        base + "/cart",
		AllowedCountries: []string{s.opts.ShipCountry},
		CustomerEmail:    strings.TrimSpace(in.CustomerEmail),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, SessionLine{
			Name:       l.Name,
			UnitAmount: money.ToMinor(l.UnitPrice),
			Quantity:   int64(l.Quantity),
			ImageURL:   l.ImageURL,
		})
	}
	if totals.Tax.IsPositive() {
		req.Lines = append(req.Lines, SessionLine{Name: "Sales tax", UnitAmount: money.ToMinor(totals.Tax), Quantity: 1})
	}
	if totals.ShippingCost.IsPositive() {
		req.ShippingAmount = money.ToMinor(totals.ShippingCost)
		req.ShippingLabel = shippingLabel(totals.ShippingMethod)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) || errors.Is(err, ErrProviderNotConfigured) {
			return CreateSessionResult{}, err
		}
		return CreateSessionResult{}, &ProviderError{Msg: err.Error(), Err: err}
	}

	s.saveSnapshot(ctx, sess.ID, lines, totals)

	s.logger.InfoContext(ctx, "checkout session created",
		"session_id", sess.ID,
		"lines", len(lines),
		"total", money.Fixed(totals.Total),
		"shipping_method", totals.ShippingMethod,
	)
	return CreateSessionResult{SessionID: sess.ID, URL: sess.URL, Totals: totals}, nil
}

// priceLines attaches catalog prices. Lines keep their cart order and stay
// distinct when a product repeats.
func (s *Service) priceLines(ctx context.Context, items []CartLineInput) ([]Line, error) {
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, &UnknownProductError{IDs: []string{"(missing id)"}}
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &UnknownProductError{IDs: missing}
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p := products[strings.TrimSpace(it.ProductID)]
		q := it.Quantity
		if q < 1 {
			q = 1
		}
		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  q,
			UnitPrice: p.Price,
			ImageURL:  p.ImageURL,
		})
	}
	return lines, nil
}

func (s *Service) saveSnapshot(ctx context.Context, sessionID string, lines []Line, t Totals) {
	if s.snapshots == nil {
		return
	}
	snap, err := NewSnapshot(uuid.NewString(), sessionID, lines, t, s.now().UTC())
	if err == nil {
		err = s.snapshots.Save(ctx, snap)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "checkout snapshot not saved", "session_id", sessionID, "err", err)
	}
}

func checkClientFigures(in CreateSessionInput, t Totals) error {
	check := func(name string, client *decimal.Decimal, server decimal.Decimal) error {
		if client != nil && !money.WithinCent(*client, server) {
			return fmt.Errorf("%w: %s %s != %s", ErrCartOutOfDate, name, money.Fixed(*client), money.Fixed(server))
		}
		return nil
	}
	if err := check("subtotal", in.Subtotal, t.Subtotal); err != nil {
		return err
	}
	if err := check("tax", in.Tax, t.Tax); err != nil {
		return err
	}
	return check("shipping_cost", in.ShippingCost, t.ShippingCost)
}

func shippingLabel(method string) string {
	switch method {
	case ShippingExpress:
		return "Express shipping"
	default:
		return "Standard shipping"
	}
}
