package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/modules/catalog"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/payments"
)

func init() { gin.SetMode(gin.TestMode) }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(discardLogger()), middleware.Recovery(discardLogger()))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(r, req)
}

func httptestRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeCatalog map[string]catalog.Product

func (c fakeCatalog) GetMany(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c fakeCatalog) ListActive(context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}
	return out, nil
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"vg-geralt": {ID: "vg-geralt", Name: "Geralt Stack", Price: decimal.RequireFromString("64.00"), Active: true},
	}
}

func testPricer() checkout.Pricer {
	return checkout.NewPricer(decimal.RequireFromString("0.08"), decimal.RequireFromString("12.00"))
}

type fakeSessions struct {
	err error
	req checkout.SessionRequest
}

func (f *fakeSessions) CreateCheckoutSession(_ context.Context, req checkout.SessionRequest) (checkout.Session, error) {
	f.req = req
	if f.err != nil {
		return checkout.Session{}, f.err
	}
	return checkout.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

// fakeProvider verifies a signature by comparing it to a fixed value.
type fakeProvider struct {
	event payments.WebhookEvent
	noKey bool
}

func (p *fakeProvider) Name() string { return "stripe" }

func (p *fakeProvider) CreateCheckoutSession(context.Context, checkout.SessionRequest) (checkout.Session, error) {
	return checkout.Session{}, checkout.ErrProviderNotConfigured
}

func (p *fakeProvider) VerifyWebhook(_ []byte, sig string) (payments.WebhookEvent, error) {
	if p.noKey {
		return payments.WebhookEvent{}, payments.ErrNoWebhookSecret
	}
	if sig != "good" {
		return payments.WebhookEvent{}, fmt.Errorf("%w: no matching secret", payments.ErrInvalidSignature)
	}
	return p.event, nil
}

type memOrderStore struct {
	sessions map[string]string
	err      error
}

func (m *memOrderStore) ExistingOrder(_ context.Context, _, _, sessionID string) (string, bool, error) {
	id, ok := m.sessions[sessionID]
	return id, ok, nil
}

func (m *memOrderStore) PersistCheckout(_ context.Context, in payments.PersistInput) (payments.PersistResult, error) {
	if m.err != nil {
		return payments.PersistResult{}, m.err
	}
	if id, ok := m.sessions[in.Order.CheckoutSessionID]; ok {
		return payments.PersistResult{OrderID: id, Duplicate: true}, nil
	}
	m.sessions[in.Order.CheckoutSessionID] = in.Order.ID
	return payments.PersistResult{OrderID: in.Order.ID}, nil
}

type stubSender struct {
	configured bool
	err        error
	sent       []email.Message
}

func (s *stubSender) Configured() bool { return s.configured }

func (s *stubSender) Send(_ context.Context, m email.Message) (email.SendResult, error) {
	if s.err != nil {
		return email.SendResult{}, s.err
	}
	s.sent = append(s.sent, m)
	return email.SendResult{MessageID: "msg-1"}, nil
}

type nopLogs struct{}

func (nopLogs) CreateLog(context.Context, *email.EmailLog) error { return nil }

type memReminders struct {
	created []*email.AbandonedCartReminder
}

func (m *memReminders) CreateReminder(_ context.Context, r *email.AbandonedCartReminder) error {
	m.created = append(m.created, r)
	return nil
}

func (m *memReminders) DueReminders(context.Context, time.Time, int) ([]email.AbandonedCartReminder, error) {
	return nil, nil
}

func (m *memReminders) MarkNudged(context.Context, string, time.Time) (bool, error) {
	return true, nil
}
