package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrCartOutOfDate         = errors.New("cart is out of date")
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrMetadataTooLarge      = errors.New("cart too large for checkout metadata")
	ErrProviderNotConfigured = errors.New("payment provider not configured")

	ErrMissingCartItems = errors.New("cart_items metadata missing")
	ErrInvalidCartItems = errors.New("cart_items metadata invalid")
)

type UnknownProductError struct {
	IDs []string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown or inactive products: %s", strings.Join(e.IDs, ", "))
}

// ProviderError carries the payment provider's message.
type ProviderError struct {
	Msg string
	Err error
}

func (e *ProviderError) Error() string { return "payment provider: " + e.Msg }
func (e *ProviderError) Unwrap() error { return e.Err }
