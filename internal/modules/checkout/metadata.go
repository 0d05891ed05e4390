package checkout

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/shared/money"
)

// Metadata keys attached to the payment session.
const (
	MetaCartItems      = "cart_items"
	MetaSubtotal       = "subtotal"
	MetaTax            = "tax"
	MetaShippingCost   = "shipping_cost"
	MetaShippingMethod = "shipping_method"
)

// MaxMetadataValueLen is the provider's limit for a single metadata value.
const MaxMetadataValueLen = 500

// MetaItem is one cart line as echoed back by the payment provider.
type MetaItem struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal // price shown at checkout, informational only
}

type encodedItem struct {
	ID string `json:"id"`
	Q  int    `json:"q"`
	P  string `json:"p"`
}

// decodedItem also accepts the long key names older sessions were created with.
type decodedItem struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Q         *int             `json:"q"`
	Quantity  *int             `json:"quantity"`
	P         *decimal.Decimal `json:"p"`
	Price     *decimal.Decimal `json:"price"`
}

// Metadata is the decoded session metadata.
type Metadata struct {
	Items          []MetaItem
	Subtotal       *decimal.Decimal
	Tax            *decimal.Decimal
	ShippingCost   *decimal.Decimal
	ShippingMethod string
}

// EncodeMetadata builds the string map stored on the payment session.
func EncodeMetadata(lines []Line, t Totals) (map[string]string, error) {
	items := make([]encodedItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, encodedItem{ID: l.ProductID, Q: l.Quantity, P: money.Fixed(l.UnitPrice)})
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart_items: %w", err)
	}
	if len(raw) > MaxMetadataValueLen {
		return nil, ErrMetadataTooLarge
	}
	return map[string]string{
		MetaCartItems:      string(raw),
		MetaSubtotal:       money.Fixed(t.Subtotal),
		MetaTax:            money.Fixed(t.Tax),
		MetaShippingCost:   money.Fixed(t.ShippingCost),
		MetaShippingMethod: t.ShippingMethod,
	}, nil
}

// DecodeCartItems parses the cart_items value. Quantities below one are
// coerced to one.
func DecodeCartItems(raw string) ([]MetaItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingCartItems
	}
	var decoded []decodedItem
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCartItems, err)
	}
	if len(decoded) == 0 {
		return nil, ErrEmptyCart
	}

	out := make([]MetaItem, 0, len(decoded))
	for i, d := range decoded {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			id = strings.TrimSpace(d.ProductID)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: item %d has no product id", ErrInvalidCartItems, i)
		}
		q := 1
		if d.Q != nil {
			q = *d.Q
		} else if d.Quantity != nil {
			q = *d.Quantity
		}
		if q < 1 {
			q = 1
		}
		it := MetaItem{ProductID: id, Quantity: q}
		if d.P != nil {
			it.Price = *d.P
		} else if d.Price != nil {
			it.Price = *d.Price
		}
		out = append(out, it)
	}
	return out, nil
}

// DecodeMetadata parses the session metadata map. Amounts that are absent or
// unparsable are left nil.
func DecodeMetadata(md map[string]string) (Metadata, error) {
	items, err := DecodeCartItems(md[MetaCartItems])
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Items:          items,
		Subtotal:       optionalAmount(md[MetaSubtotal]),
		Tax:            optionalAmount(md[MetaTax]),
		ShippingCost:   optionalAmount(md[MetaShippingCost]),
		ShippingMethod: strings.TrimSpace(md[MetaShippingMethod]),
	}, nil
}

func optionalAmount(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
