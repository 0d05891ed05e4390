package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79/webhook"

	"stakdcards.com/app/internal/config"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/shared/money"
)

type sessionObject struct {
	ID              string            `json:"id"`
	Object          string            `json:"object"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer_details"`
	ShippingDetails struct {
		Name    string            `json:"name"`
		Address map[string]string `json:"address"`
	} `json:"shipping_details"`
}

type eventPayload struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	Type       string `json:"type"`
	APIVersion string `json:"api_version"`
	Created    int64  `json:"created"`
	Livemode   bool   `json:"livemode"`
	Data       struct {
		Object sessionObject `json:"object"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/webhooks/stripe", "Webhook URL")
	secret := flag.String("secret", "", "Signing secret (default: STRIPE_WEBHOOK_SECRET_TEST from config)")
	eventID := flag.String("event-id", "evt_"+shortID(), "Event ID")
	sessionID := flag.String("session-id", "cs_test_"+shortID(), "Checkout session ID")
	eventType := flag.String("type", "checkout.session.completed", "Event type")
	items := flag.String("items", "", "Cart lines as id:qty:price, comma separated (e.g. vg-geralt:2:64.00)")
	method := flag.String("shipping-method", checkout.ShippingStandard, "Shipping method (standard, express)")
	email := flag.String("email", "buyer@example.com", "Customer email")
	name := flag.String("name", "Test Buyer", "Customer name")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *secret == "" {
		if secrets := cfg.Stripe.WebhookSecrets(); len(secrets) > 0 {
			*secret = secrets[0]
		}
	}
	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and no Stripe webhook secret configured\n")
		os.Exit(1)
	}

	lines, err := parseItems(*items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pricer := checkout.NewPricer(cfg.Pricing.TaxRate, cfg.Pricing.ExpressShipping)
	totals, err := pricer.Totals(lines, *method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	md, err := checkout.EncodeMetadata(lines, totals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding metadata: %v\n", err)
		os.Exit(1)
	}

	payload := eventPayload{
		ID:         *eventID,
		Object:     "event",
		Type:       *eventType,
		APIVersion: "2024-06-20",
		Created:    time.Now().Unix(),
	}
	obj := &payload.Data.Object
	obj.ID = *sessionID
	obj.Object = "checkout.session"
	obj.AmountTotal = money.ToMinor(totals.Total)
	obj.Currency = cfg.Pricing.Currency
	obj.Metadata = md
	obj.CustomerDetails.Email = *email
	obj.CustomerDetails.Name = *name
	obj.ShippingDetails.Name = *name
	obj.ShippingDetails.Address = map[string]string{
		"line1":       "1 Test Street",
		"city":        "Austin",
		"state":       "TX",
		"postal_code": "78701",
		"country":     "US",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    *secret,
		Timestamp: time.Now(),
	})

	fmt.Printf("Stripe-Signature: %s\n", signed.Header)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(signed.Payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

// parseItems reads "id:qty:price" triples. An empty flag yields one default line.
func parseItems(raw string) ([]checkout.Line, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "vg-geralt:1:64.00"
	}
	var lines []checkout.Line
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 || fields[0] == "" {
			return nil, fmt.Errorf("invalid item %q, want id:qty:price", part)
		}
		qty, err := strconv.Atoi(fields[1])
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("invalid quantity in %q", part)
		}
		price, err := decimal.NewFromString(fields[2])
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid price in %q", part)
		}
		lines = append(lines, checkout.Line{
			ProductID: fields[0],
			Name:      fields[0],
			Quantity:  qty,
			UnitPrice: price,
		})
	}
	return lines, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
