package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/shared/money"
)

const nudgeMaxItems = 5

type Rendered struct {
	Subject string
	HTML    string
}

type LineItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type OrderConfirmation struct {
	OrderID        string
	CustomerName   string
	Items          []LineItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	ShippingMethod string
	Address        []string
	ShopURL        string
}

type ShipmentNotice struct {
	OrderID        string
	CustomerName   string
	Carrier        string
	Service        string
	TrackingNumber string
}

func (n ShipmentNotice) TrackingURL() string { return TrackingURL(n.Carrier, n.TrackingNumber) }

type Welcome struct {
	Name    string
	ShopURL string
}

type Newsletter struct {
	Subject        string
	Headline       string
	Body           string
	CTAText        string
	CTAURL         string
	UnsubscribeURL string
}

func (n Newsletter) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(n.Body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Nudge struct {
	Name    string
	Items   []CartLine
	CartURL string
}

func (n Nudge) Shown() []CartLine {
	if len(n.Items) > nudgeMaxItems {
		return n.Items[:nudgeMaxItems]
	}
	return n.Items
}

func (n Nudge) Hidden() int {
	if len(n.Items) > nudgeMaxItems {
		return len(n.Items) - nudgeMaxItems
	}
	return 0
}

// TrackingURL links to the carrier's public tracking page; unknown carriers
// get an empty string.
func TrackingURL(carrier, code string) string {
	if code == "" {
		return ""
	}
	q := url.QueryEscape(code)
	switch strings.ToUpper(carrier) {
	case "UPS":
		return "https://www.ups.com/track?tracknum=" + q
	case "USPS":
		return "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + q
	case "FEDEX":
		return "https://www.fedex.com/fedextrack/?trknbr=" + q
	case "DHLEXPRESS", "DHL":
		return "https://www.dhl.com/us-en/home/tracking.html?tracking-id=" + q
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

var funcs = template.FuncMap{
	"money":   money.Format,
	"shortID": shortID,
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;color:#18181b;">
<div style="max-width:600px;margin:0 auto;padding:32px 24px;background:#ffffff;">
<h1 style="font-size:20px;letter-spacing:2px;margin:0 0 24px;">STAKD CARDS</h1>
{{template "content" .}}
<p style="margin-top:32px;font-size:12px;color:#71717a;">STAKD Cards &middot; Custom stacked trading cards</p>
</div>
</body>
</html>{{end}}`

var (
	confirmationTmpl = mustTemplate(`{{define "content"}}
<p>Hi {{if .CustomerName}}{{.CustomerName}}{{else}}there{{end}},</p>
<p>Thanks for your order! We received your payment and your cards are headed to production.</p>
<p><strong>Order #{{shortID .OrderID}}</strong></p>
<table style="width:100%;border-collapse:collapse;">
{{range .Items}}<tr>
<td style="padding:6px 0;">{{.Name}} &times; {{.Quantity}}</td>
<td style="padding:6px 0;text-align:right;">{{money .LineTotal}}</td>
</tr>
{{end}}<tr><td style="padding-top:12px;">Subtotal</td><td style="padding-top:12px;text-align:right;">{{money .Subtotal}}</td></tr>
<tr><td>Tax</td><td style="text-align:right;">{{money .Tax}}</td></tr>
<tr><td>Shipping{{if .ShippingMethod}} ({{.ShippingMethod}}){{end}}</td><td style="text-align:right;">{{money .ShippingCost}}</td></tr>
<tr><td><strong>Total</strong></td><td style="text-align:right;"><strong>{{money .Total}}</strong></td></tr>
</table>
{{if .Address}}<p style="margin-top:24px;"><strong>Shipping to</strong><br>{{range $i, $l := .Address}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>{{end}}
<p>We'll email you a tracking number as soon as your order ships.</p>
{{if .ShopURL}}<p><a href="{{.ShopURL}}">Visit STAKD Cards</a></p>{{end}}
{{end}}`)

	shipmentTmpl = mustTemplate(`{{define "content"}}
<p>Hi {{if .CustomerName}}{{.CustomerName}}{{else}}there{{end}},</p>
<p>Good news: order <strong>#{{shortID .OrderID}}</strong> is on its way.</p>
<p>Carrier: {{.Carrier}}{{if .Service}} ({{.Service}}){{end}}<br>Tracking number: <strong>{{.TrackingNumber}}</strong></p>
{{with .TrackingURL}}<p><a href="{{.}}">Track your package</a></p>{{end}}
{{end}}`)

	welcomeTmpl = mustTemplate(`{{define "content"}}
<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Welcome to STAKD Cards! Your account is ready.</p>
<p>Build a stack from your favorite characters and we'll print, cut and assemble it for you.</p>
{{if .ShopURL}}<p><a href="{{.ShopURL}}">Start browsing</a></p>{{end}}
{{end}}`)

	newsletterTmpl = mustTemplate(`{{define "content"}}
{{if .Headline}}<h2 style="font-size:18px;">{{.Headline}}</h2>{{end}}
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if and .CTAURL .CTAText}}<p><a href="{{.CTAURL}}" style="display:inline-block;padding:10px 18px;background:#18181b;color:#ffffff;text-decoration:none;">{{.CTAText}}</a></p>{{end}}
{{if .UnsubscribeURL}}<p style="font-size:12px;color:#71717a;"><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>{{end}}
{{end}}`)

	nudgeTmpl = mustTemplate(`{{define "content"}}
<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>You left some cards in your cart. They're still waiting for you:</p>
<ul>
{{range .Shown}}<li>{{.Name}} &times; {{.Quantity}}{{if .Price.IsPositive}} &middot; {{money .Price}}{{end}}</li>
{{end}}</ul>
{{if .Hidden}}<p>&hellip;and {{.Hidden}} more.</p>{{end}}
{{if .CartURL}}<p><a href="{{.CartURL}}">Return to your cart</a></p>{{end}}
{{end}}`)
)

func mustTemplate(content string) *template.Template {
	t := template.Must(template.New("email").Funcs(funcs).Parse(layoutHTML))
	return template.Must(t.Parse(content))
}

func render(t *template.Template, subject string, data any) (Rendered, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Rendered{}, fmt.Errorf("render %q: %w", subject, err)
	}
	return Rendered{Subject: subject, HTML: buf.String()}, nil
}

func RenderOrderConfirmation(d OrderConfirmation) (Rendered, error) {
	return render(confirmationTmpl, fmt.Sprintf("Your STAKD Cards order #%s", shortID(d.OrderID)), d)
}

func RenderShipmentNotice(d ShipmentNotice) (Rendered, error) {
	return render(shipmentTmpl, fmt.Sprintf("Order #%s has shipped", shortID(d.OrderID)), d)
}

func RenderWelcome(d Welcome) (Rendered, error) {
	return render(welcomeTmpl, "Welcome to STAKD Cards", d)
}

func RenderNewsletter(d Newsletter) (Rendered, error) {
	subject := strings.TrimSpace(d.Subject)
	if subject == "" {
		return Rendered{}, fmt.Errorf("%w: subject required", ErrInvalidMessage)
	}
	if len(d.Paragraphs()) == 0 {
		return Rendered{}, fmt.Errorf("%w: body required", ErrInvalidMessage)
	}
	return render(newsletterTmpl, subject, d)
}

func RenderNudge(d Nudge) (Rendered, error) {
	return render(nudgeTmpl, "You left something in your cart", d)
}
