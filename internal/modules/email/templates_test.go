package email

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderConfirmation(t *testing.T) {
	r, err := RenderOrderConfirmation(OrderConfirmation{
		OrderID:      "3f2a9c1e-0000-4000-8000-000000000000",
		CustomerName: "Brock",
		Items: []LineItem{
			{Name: "Onix <holo>", Quantity: 2, UnitPrice: decimal.RequireFromString("30.00")},
		},
		Subtotal:       decimal.RequireFromString("60.00"),
		Tax:            decimal.RequireFromString("4.80"),
		ShippingCost:   decimal.Zero,
		Total:          decimal.RequireFromString("64.80"),
		ShippingMethod: "standard",
		Address:        []string{"1 Pewter Rd", "Pewter, KS 66002", "US"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Your STAKD Cards order #3F2A9C1E", r.Subject)
	assert.Contains(t, r.HTML, "$64.80")
	assert.Contains(t, r.HTML, "$60.00")
	assert.Contains(t, r.HTML, "Onix &lt;holo&gt;")
	assert.Contains(t, r.HTML, "1 Pewter Rd")
}

func TestRenderShipmentNotice(t *testing.T) {
	r, err := RenderShipmentNotice(ShipmentNotice{OrderID: "abcdef123456", Carrier: "UPS", Service: "Ground", TrackingNumber: "1Z999"})
	require.NoError(t, err)
	assert.Equal(t, "Order #ABCDEF12 has shipped", r.Subject)
	assert.Contains(t, r.HTML, "https://www.ups.com/track?tracknum=1Z999")
}

func TestTrackingURL(t *testing.T) {
	assert.Equal(t, "", TrackingURL("UPS", ""))
	assert.Equal(t, "", TrackingURL("Pony Express", "1"))
	assert.True(t, strings.HasPrefix(TrackingURL("usps", "9400"), "https://tools.usps.com/"))
}

func TestRenderNudge_CapsItems(t *testing.T) {
	var items []CartLine
	for i := 0; i < 7; i++ {
		items = append(items, CartLine{Name: "Card", Quantity: 1})
	}
	n := Nudge{Items: items}
	assert.Len(t, n.Shown(), 5)
	assert.Equal(t, 2, n.Hidden())

	r, err := RenderNudge(n)
	require.NoError(t, err)
	assert.Contains(t, r.HTML, "and 2 more")
	assert.Contains(t, r.HTML, "Hi there")
}

func TestNewsletterParagraphs(t *testing.T) {
	n := Newsletter{Body: "one\r\n\r\ntwo\n\n\n\nthree "}
	assert.Equal(t, []string{"one", "two", "three"}, n.Paragraphs())
}
