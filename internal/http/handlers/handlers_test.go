package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/payments"
)

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func checkoutRouter(p checkout.SessionProvider) *CheckoutHandler {
	svc := checkout.NewService(testCatalog(), p, nil, testPricer(),
		checkout.Options{PublicBaseURL: "https://stakdcards.com"}, discardLogger())
	return NewCheckoutHandler(svc)
}

func TestCheckout_ReturnsURL(t *testing.T) {
	p := &fakeSessions{}
	r := newEngine()
	r.POST("/api/checkout/session", checkoutRouter(p).CreateSession)

	w := doJSON(r, http.MethodPost, "/api/checkout/session",
		`{"items":[{"id":"vg-geralt","name":"Geralt","price":64,"quantity":1}],"subtotal":64,"tax":5.12,"shipping_cost":0,"shipping_method":"standard"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://pay.example/cs_test_1", decode(t, w.Body.Bytes())["url"])
	assert.Equal(t, []string{"US"}, p.req.AllowedCountries)
	assert.Equal(t, "https://stakdcards.com/cart", p.req.CancelURL)
}

func TestCheckout_Rejections(t *testing.T) {
	r := newEngine()
	r.POST("/api/checkout/session", checkoutRouter(&fakeSessions{}).CreateSession)

	cases := []struct {
		name   string
		body   string
		status int
		field  string
		code   string
	}{
		{"no items", `{"items":[]}`, http.StatusBadRequest, "items", ""},
		{"missing id", `{"items":[{"name":"x","price":1,"quantity":1}]}`, http.StatusBadRequest, "items[0].product_id", ""},
		{"negative price", `{"items":[{"id":"vg-geralt","price":-1,"quantity":1}]}`, http.StatusBadRequest, "items[0].price", ""},
		{"unknown product", `{"items":[{"id":"nope","price":1,"quantity":1}]}`, http.StatusBadRequest, "", "unknown_product"},
		{"stale subtotal", `{"items":[{"id":"vg-geralt","price":60,"quantity":1}],"subtotal":60}`, http.StatusConflict, "", "cart_out_of_date"},
		{"bad method", `{"items":[{"id":"vg-geralt","price":64,"quantity":1}],"shipping_method":"drone"}`, http.StatusBadRequest, "", "unknown_shipping_method"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/checkout/session", tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			out := decode(t, w.Body.Bytes())
			if tc.field != "" {
				fields, ok := out["fields"].(map[string]any)
				require.True(t, ok, w.Body.String())
				assert.Contains(t, fields, tc.field)
			}
			if tc.code != "" {
				assert.Equal(t, tc.code, out["code"])
			}
		})
	}
}

func TestCheckout_ProviderFailures(t *testing.T) {
	r := newEngine()
	r.POST("/a", checkoutRouter(&fakeSessions{err: checkout.ErrProviderNotConfigured}).CreateSession)
	r.POST("/b", checkoutRouter(&fakeSessions{err: &checkout.ProviderError{Msg: "Invalid API Key provided"}}).CreateSession)
	body := `{"items":[{"id":"vg-geralt","price":64,"quantity":1}]}`

	w := doJSON(r, http.MethodPost, "/a", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server_misconfigured", decode(t, w.Body.Bytes())["code"])

	w = doJSON(r, http.MethodPost, "/b", body)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Invalid API Key provided", decode(t, w.Body.Bytes())["error"])
}

func completedEvent(t *testing.T, eventID string) payments.WebhookEvent {
	t.Helper()
	pricer := testPricer()
	lines := []checkout.Line{{ProductID: "vg-geralt", Name: "Geralt Stack", Quantity: 1, UnitPrice: decimal.RequireFromString("64.00")}}
	totals, err := pricer.Totals(lines, "standard")
	require.NoError(t, err)
	md, err := checkout.EncodeMetadata(lines, totals)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]any{
		"id":           "cs_test_1",
		"amount_total": 6912,
		"metadata":     md,
		"customer_details": map[string]any{
			"email": "ada@example.com",
			"name":  "Ada Lovelace",
			"address": map[string]any{
				"line1": "1 Main St", "city": "Austin", "state": "TX", "postal_code": "78701", "country": "US",
			},
		},
	})
	require.NoError(t, err)
	return payments.WebhookEvent{EventID: eventID, Type: payments.EventCheckoutCompleted, Object: raw}
}

func webhookRouter(p *fakeProvider, store *memOrderStore) *WebhookHandler {
	svc := payments.NewWebhookService(store, nil, testCatalog(), testPricer(), nil,
		payments.WebhookOptions{PublicBaseURL: "https://stakdcards.com", ShipCountry: "US"}, discardLogger())
	return NewWebhookHandler(discardLogger(), p, svc)
}

func postWebhook(h *WebhookHandler, sig string) map[string]any {
	r := newEngine()
	r.POST("/api/webhooks/stripe", h.Handle)
	req := httptestRequest("/api/webhooks/stripe", `{"id":"evt"}`)
	req.Header.Set("Stripe-Signature", sig)
	w := serve(r, req)
	out := map[string]any{"_status": float64(w.Code)}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestWebhook_CreatesOrderOnce(t *testing.T) {
	store := &memOrderStore{sessions: map[string]string{}}
	h := webhookRouter(&fakeProvider{event: completedEvent(t, "evt_1")}, store)

	first := postWebhook(h, "good")
	assert.Equal(t, float64(http.StatusOK), first["_status"])
	assert.Equal(t, true, first["received"])
	require.NotEmpty(t, first["order_id"])

	again := postWebhook(h, "good")
	assert.Equal(t, float64(http.StatusOK), again["_status"])
	assert.Equal(t, first["order_id"], again["order_id"])
	assert.Equal(t, true, again["duplicate"])
	assert.Len(t, store.sessions, 1)
}

func TestWebhook_Failures(t *testing.T) {
	ok := completedEvent(t, "evt_1")

	out := postWebhook(webhookRouter(&fakeProvider{event: ok}, &memOrderStore{sessions: map[string]string{}}), "forged")
	assert.Equal(t, float64(http.StatusBadRequest), out["_status"])
	assert.Equal(t, "invalid signature", out["error"])

	out = postWebhook(webhookRouter(&fakeProvider{noKey: true}, &memOrderStore{sessions: map[string]string{}}), "good")
	assert.Equal(t, float64(http.StatusInternalServerError), out["_status"])
	assert.Equal(t, "server_misconfigured", out["code"])

	ignored := payments.WebhookEvent{EventID: "evt_2", Type: "payment_intent.created"}
	out = postWebhook(webhookRouter(&fakeProvider{event: ignored}, &memOrderStore{sessions: map[string]string{}}), "good")
	assert.Equal(t, float64(http.StatusOK), out["_status"])
	assert.Equal(t, true, out["received"])
	assert.NotContains(t, out, "order_id")

	noCart := payments.WebhookEvent{EventID: "evt_3", Type: payments.EventCheckoutCompleted, Object: json.RawMessage(`{"id":"cs_x","metadata":{}}`)}
	out = postWebhook(webhookRouter(&fakeProvider{event: noCart}, &memOrderStore{sessions: map[string]string{}}), "good")
	assert.Equal(t, float64(http.StatusBadRequest), out["_status"])
	assert.Equal(t, "invalid_session", out["code"])

	failing := &memOrderStore{sessions: map[string]string{}, err: &payments.PersistError{Stage: payments.StageItems, Err: errors.New("fk violation")}}
	out = postWebhook(webhookRouter(&fakeProvider{event: ok}, failing), "good")
	assert.Equal(t, float64(http.StatusInternalServerError), out["_status"])
	assert.Equal(t, "items_insert_failed", out["code"])
}

func TestSendEmail(t *testing.T) {
	sender := &stubSender{configured: true}
	h := NewEmailHandler(email.NewDispatcher(sender, nopLogs{}, 0, discardLogger()))
	r := newEngine()
	r.POST("/api/emails/send", h.Send)

	w := doJSON(r, http.MethodPost, "/api/emails/send", `{"to":"a@example.com, b@example.com","subject":"Hi","bodyHtml":"<p>x</p>","type":"custom","orderId":"o-1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w.Body.Bytes())["sent"])
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.sent[0].To)

	w = doJSON(r, http.MethodPost, "/api/emails/send", `{"to":["a@example.com"],"bodyHtml":"<p>x</p>"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w.Body.Bytes())["fields"], "subject")

	sender.err = errors.New("rate limited")
	w = doJSON(r, http.MethodPost, "/api/emails/send", `{"to":"a@example.com","subject":"Hi","bodyHtml":"<p>x</p>"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "email_send_failed", decode(t, w.Body.Bytes())["code"])
}

func TestSendEmail_NotConfigured(t *testing.T) {
	h := NewEmailHandler(email.NewDispatcher(&stubSender{}, nopLogs{}, 0, discardLogger()))
	r := newEngine()
	r.POST("/api/emails/send", h.Send)

	w := doJSON(r, http.MethodPost, "/api/emails/send", `{"to":"a@example.com","subject":"Hi","bodyHtml":"<p>x</p>"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server_misconfigured", decode(t, w.Body.Bytes())["code"])
}

func TestAbandonedCart(t *testing.T) {
	store := &memReminders{}
	d := email.NewDispatcher(&stubSender{}, nopLogs{}, 0, discardLogger())
	h := NewAbandonedCartHandler(email.NewNudgeService(store, d, email.DefaultNudgeDelay, "https://stakdcards.com/cart", discardLogger()))
	r := newEngine()
	r.POST("/api/abandoned-cart", h.Record)
	r.GET("/api/cron/abandoned-cart", h.Sweep)

	w := doJSON(r, http.MethodPost, "/api/abandoned-cart", `{"email":"ada@example.com","cart":[{"id":"vg-geralt","name":"Geralt","quantity":1,"price":64}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w.Body.Bytes())["recorded"])
	require.Len(t, store.created, 1)
	assert.Contains(t, string(store.created[0].CartJSON), `"product_id":"vg-geralt"`)

	w = doJSON(r, http.MethodPost, "/api/abandoned-cart", `{"email":"not-an-email","cart":[{"id":"x","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w.Body.Bytes())["fields"], "email")

	w = doJSON(r, http.MethodGet, "/api/cron/abandoned-cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w.Body.Bytes())
	assert.Equal(t, float64(0), out["sent"])
	assert.Equal(t, "email provider not configured", out["reason"])
}

func TestProductsAndSpec(t *testing.T) {
	r := newEngine()
	r.GET("/api/products", NewProductsHandler(testCatalog(), testPricer()).List)
	r.GET("/api/production/spec", ProductionSpec)

	w := doJSON(r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w.Body.Bytes())
	assert.Len(t, out["products"], 1)
	assert.Len(t, out["shipping_methods"], 2)

	w = doJSON(r, http.MethodGet, "/api/production/spec", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(300), decode(t, w.Body.Bytes())["dpi"])
}
