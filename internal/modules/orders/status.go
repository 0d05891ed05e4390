package orders

import "strings"

const (
	StatusPending        = "pending"
	StatusAccepted       = "accepted"
	StatusFilesGenerated = "files_generated"
	StatusPrintedCut     = "printed_cut"
	StatusAssembled      = "assembled"
	StatusPacked         = "packed"
	StatusShipped        = "shipped"
	StatusCancelled      = "cancelled"
)

// progression is the forward path; cancelled sits outside it.
var progression = []string{
	StatusPending,
	StatusAccepted,
	StatusFilesGenerated,
	StatusPrintedCut,
	StatusAssembled,
	StatusPacked,
	StatusShipped,
}

var legacyStatus = map[string]string{
	"processing":    StatusAccepted,
	"paid":          StatusAccepted,
	"confirmed":     StatusAccepted,
	"in_production": StatusFilesGenerated,
	"delivered":     StatusShipped,
	"fulfilled":     StatusShipped,
	"completed":     StatusShipped,
	"canceled":      StatusCancelled,
	"refunded":      StatusCancelled,
}

var statusLabels = map[string]string{
	StatusPending:        "Pending",
	StatusAccepted:       "Accepted",
	StatusFilesGenerated: "Files generated",
	StatusPrintedCut:     "Printed & cut",
	StatusAssembled:      "Assembled",
	StatusPacked:         "Packed",
	StatusShipped:        "Shipped",
	StatusCancelled:      "Cancelled",
}

// Statuses returns every canonical status in display order.
func Statuses() []string {
	out := make([]string, 0, len(progression)+1)
	out = append(out, progression...)
	return append(out, StatusCancelled)
}

func IsCanonical(s string) bool {
	_, ok := statusLabels[s]
	return ok
}

func Label(s string) string {
	if l, ok := statusLabels[Normalize(s)]; ok {
		return l
	}
	return s
}

// Normalize maps any stored value, including legacy ones, onto a canonical
// status. Unknown values become pending.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if IsCanonical(s) {
		return s
	}
	if c, ok := legacyStatus[s]; ok {
		return c
	}
	return StatusPending
}

// Next returns the following status on the forward path.
func Next(s string) (string, bool) {
	s = Normalize(s)
	for i, st := range progression {
		if st == s && i+1 < len(progression) {
			return progression[i+1], true
		}
	}
	return "", false
}

// AllowedTransitions returns the statuses an order may be moved to from
// current, including current itself.
func AllowedTransitions(current string) []string {
	s := Normalize(current)
	switch s {
	case StatusCancelled:
		return []string{StatusCancelled}
	case StatusShipped:
		return []string{StatusShipped, StatusCancelled}
	}
	out := []string{s}
	if n, ok := Next(s); ok {
		out = append(out, n)
	}
	return append(out, StatusCancelled)
}

func CanTransition(from, to string) bool {
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// RawValues returns the stored values that normalize to status, used for
// filtering rows written before the canonical set existed.
func RawValues(status string) []string {
	status = Normalize(status)
	out := []string{status}
	for legacy, c := range legacyStatus {
		if c == status {
			out = append(out, legacy)
		}
	}
	return out
}
