package apperr

type Kind string

type AppError struct {
	Kind      Kind
	Code      string            // machine-readable code (order_insert_failed, invalid_transition, ...)
	PublicMsg string            // safe to show to the caller
	Fields    map[string]string // request field errors (optional)
	Err       error             // internal error, logged only
}
