package render

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/modules/payments"
	"stakdcards.com/app/internal/modules/shipping"
	"stakdcards.com/app/internal/shared/apperr"
)

// Error maps err to an AppError and hands it to the error handler.
func Error(c *gin.Context, err error) {
	middleware.Fail(c, AppError(err))
}

// AppError translates domain errors into HTTP-facing errors. Order matters:
// wrapped sentinels are checked before the broader categories.
func AppError(err error) *apperr.AppError {
	if ae, ok := apperr.As(err); ok {
		return ae
	}

	var (
		persistErr *payments.PersistError
		unknownErr *checkout.UnknownProductError
		payErr     *checkout.ProviderError
		shipErr    *shipping.ProviderError
	)

	switch {
	// configuration
	case errors.Is(err, checkout.ErrProviderNotConfigured),
		errors.Is(err, payments.ErrNoWebhookSecret):
		return apperr.ConfigErr("Payment provider is not configured.").WithErr(err)
	case errors.Is(err, email.ErrNotConfigured):
		return apperr.ConfigErr("Email provider is not configured.").WithErr(err)
	case errors.Is(err, shipping.ErrNotConfigured):
		return apperr.ConfigErr("Shipping provider is not configured.").WithErr(err)

	// webhook
	case errors.Is(err, payments.ErrInvalidSignature):
		return apperr.InvalidErr("Invalid webhook signature.", nil).WithCode("invalid_signature").WithErr(err)
	case errors.Is(err, payments.ErrInvalidSession):
		return apperr.InvalidErr("Checkout session payload is invalid.", nil).WithCode("invalid_session").WithErr(err)
	case errors.As(err, &persistErr):
		return apperr.Wrap(err).WithCode(persistErr.Code())

	// checkout
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, email.ErrEmptyCart):
		return apperr.InvalidErr("Cart is empty.", nil).WithCode("empty_cart").WithErr(err)
	case errors.Is(err, checkout.ErrCartOutOfDate):
		return apperr.ConflictErr("Prices have changed. Please review your cart.").WithCode("cart_out_of_date").WithErr(err)
	case errors.Is(err, checkout.ErrUnknownShippingMethod):
		return apperr.InvalidErr("Unknown shipping method.", map[string]string{"shipping_method": "Must be standard or express."}).WithCode("unknown_shipping_method").WithErr(err)
	case errors.Is(err, checkout.ErrMetadataTooLarge):
		return apperr.InvalidErr("Cart has too many items for one checkout.", nil).WithCode("cart_too_large").WithErr(err)
	case errors.As(err, &unknownErr):
		return apperr.InvalidErr("Some products are no longer available.", nil).WithCode("unknown_product").WithErr(err)
	case errors.As(err, &payErr):
		return apperr.UpstreamErr(payErr.Msg, err).WithCode("payment_provider_error")

	// orders
	case errors.Is(err, orders.ErrNotFound):
		return apperr.NotFoundErr("Order not found.").WithErr(err)
	case errors.Is(err, orders.ErrUnknownStatus):
		return apperr.InvalidErr("Unknown order status.", nil).WithCode("unknown_status").WithErr(err)
	case errors.Is(err, orders.ErrInvalidTransition):
		return apperr.ConflictErr("That status change is not allowed.").WithCode("invalid_transition").WithErr(err)
	case errors.Is(err, orders.ErrStaleStatus):
		return apperr.ConflictErr("Order was updated by someone else. Reload and try again.").WithCode("stale_status").WithErr(err)
	case errors.Is(err, orders.ErrStatusUpdateFailed):
		return apperr.Wrap(err).WithCode("status_update_failed")
	case errors.Is(err, orders.ErrNotActionable):
		return apperr.InvalidErr("Order id is required.", nil).WithErr(err)

	// email
	case errors.Is(err, email.ErrInvalidMessage):
		return apperr.InvalidErr("Email needs a recipient, subject and body.", nil).WithCode("invalid_message").WithErr(err)
	case errors.Is(err, email.ErrInvalidEmail):
		return apperr.InvalidErr("Invalid email address.", map[string]string{"email": "Must be a valid email address."}).WithErr(err)

	// shipping
	case errors.Is(err, shipping.ErrOrderCancelled):
		return apperr.ConflictErr("Cancelled orders cannot be shipped.").WithCode("order_cancelled").WithErr(err)
	case errors.Is(err, shipping.ErrLabelExists):
		return apperr.ConflictErr("This order already has a shipping label.").WithCode("label_exists").WithErr(err)
	case errors.Is(err, shipping.ErrNoRates):
		return apperr.UnprocessableErr("No shipping rates available for this address and parcel.").WithCode("no_rates").WithErr(err)
	case errors.As(err, &shipErr):
		return apperr.UpstreamErr(shipErr.Msg, err).WithCode("shipping_provider_error")

	case errors.Is(err, context.DeadlineExceeded):
		return apperr.UpstreamErr("An upstream service timed out.", err).WithCode("upstream_timeout")
	}
	return apperr.Wrap(err)
}
