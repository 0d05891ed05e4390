package payments

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoWebhookSecret  = errors.New("no webhook signing secret configured")
	ErrInvalidSession   = errors.New("invalid checkout session payload")
)

const (
	StageEvent  = "event_insert"
	StageOrder  = "order_insert"
	StageItems  = "items_insert"
	StageOutbox = "outbox_insert"
	StageMark   = "event_mark"
)

// PersistError tells which write of the order transaction failed.
type PersistError struct {
	Stage string
	Err   error
}

func (e *PersistError) Error() string { return e.Stage + " failed: " + e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }

// Code is the machine-readable code reported to the caller.
func (e *PersistError) Code() string { return e.Stage + "_failed" }
