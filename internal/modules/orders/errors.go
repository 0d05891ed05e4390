package orders

import "errors"

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrUnknownStatus      = errors.New("unknown order status")
	ErrStaleStatus        = errors.New("order status changed concurrently")
	ErrStatusUpdateFailed = errors.New("order status update failed")
	ErrNotActionable      = errors.New("order not actionable")
)
