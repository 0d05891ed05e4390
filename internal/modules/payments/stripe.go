package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"stakdcards.com/app/internal/config"
	"stakdcards.com/app/internal/modules/checkout"
)

type StripeProvider struct {
	api            *client.API
	webhookSecrets []string
	logger         *slog.Logger
}

// NewStripeProvider builds the adapter. A blank secret key leaves session
// creation unconfigured; webhook verification only needs the signing secrets.
func NewStripeProvider(cfg config.StripeConfig, httpClient *http.Client, logger *slog.Logger) *StripeProvider {
	p := &StripeProvider{webhookSecrets: cfg.WebhookSecrets(), logger: logger}
	if cfg.SecretKey != "" {
		var backends *stripe.Backends
		if httpClient != nil {
			backends = stripe.NewBackends(httpClient)
		}
		p.api = client.New(cfg.SecretKey, backends)
	}
	return p
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error) {
	if p.api == nil {
		return checkout.Session{}, checkout.ErrProviderNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		},
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{l.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	if req.ShippingAmount > 0 {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				DisplayName: stripe.String(req.ShippingLabel),
				Type:        stripe.String("fixed_amount"),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(req.ShippingAmount),
					Currency: stripe.String(req.Currency),
				},
			},
		}}
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		msg := err.Error()
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			msg = se.Msg
		}
		p.logger.ErrorContext(ctx, "stripe checkout session failed", "err", err)
		return checkout.Session{}, &checkout.ProviderError{Msg: msg, Err: err}
	}
	return checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook tries each signing secret in turn (test, then live); the
// first one that verifies wins.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if len(p.webhookSecrets) == 0 {
		return WebhookEvent{}, ErrNoWebhookSecret
	}

	var lastErr error
	for _, secret := range p.webhookSecrets {
		ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			lastErr = err
			continue
		}
		out := WebhookEvent{
			EventID:  ev.ID,
			Type:     string(ev.Type),
			Livemode: ev.Livemode,
		}
		if ev.Data != nil {
			out.Object = ev.Data.Raw
		}
		return out, nil
	}
	return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, lastErr)
}
