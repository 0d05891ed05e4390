package payments

import (
	"context"
	"encoding/json"

	"stakdcards.com/app/internal/modules/checkout"
)

const EventCheckoutCompleted = "checkout.session.completed"

type WebhookEvent struct {
	EventID  string
	Type     string
	Livemode bool
	Object   json.RawMessage // data.object of the event
}

type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)

	// Webhook: verify signature + parse event
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}
