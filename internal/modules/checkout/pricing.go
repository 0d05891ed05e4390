package checkout

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

// Line is a priced cart line. UnitPrice always comes from the server side.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	ImageURL  string
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	ShippingMethod string
}

// Pricer computes order totals from authoritative prices.
type Pricer struct {
	TaxRate decimal.Decimal
	methods map[string]decimal.Decimal
}

func NewPricer(taxRate, expressCost decimal.Decimal) Pricer {
	return Pricer{
		TaxRate: taxRate,
		methods: map[string]decimal.Decimal{
			ShippingStandard: decimal.Zero,
			ShippingExpress:  expressCost.Round(2),
		},
	}
}

// Methods lists the known shipping methods with their cost.
func (p Pricer) Methods() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.methods))
	for k, v := range p.methods {
		out[k] = v
	}
	return out
}

func (p Pricer) MethodNames() []string {
	names := make([]string, 0, len(p.methods))
	for k := range p.methods {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ShippingCost returns the cost of a method; blank means standard.
func (p Pricer) ShippingCost(method string) (string, decimal.Decimal, error) {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" {
		m = ShippingStandard
	}
	cost, ok := p.methods[m]
	if !ok {
		return "", decimal.Zero, ErrUnknownShippingMethod
	}
	return m, cost, nil
}

func (p Pricer) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

// Totals prices lines with the shipping method's table cost.
func (p Pricer) Totals(lines []Line, method string) (Totals, error) {
	m, cost, err := p.ShippingCost(method)
	if err != nil {
		return Totals{}, err
	}
	return p.TotalsWithShipping(lines, m, cost), nil
}

// TotalsWithShipping prices lines with a shipping cost fixed elsewhere
// (a persisted checkout snapshot).
func (p Pricer) TotalsWithShipping(lines []Line, method string, shipping decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = subtotal.Round(2)
	tax := p.Tax(subtotal)
	shipping = shipping.Round(2)
	return Totals{
		Subtotal:       subtotal,
		Tax:            tax,
		ShippingCost:   shipping,
		Total:          subtotal.Add(tax).Add(shipping),
		ShippingMethod: method,
	}
}
