package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"pending":         StatusPending,
		" Accepted ":      StatusAccepted,
		"FILES_GENERATED": StatusFilesGenerated,
		"processing":      StatusAccepted,
		"paid":            StatusAccepted,
		"confirmed":       StatusAccepted,
		"in_production":   StatusFilesGenerated,
		"delivered":       StatusShipped,
		"fulfilled":       StatusShipped,
		"completed":       StatusShipped,
		"canceled":        StatusCancelled,
		"refunded":        StatusCancelled,
		"":                StatusPending,
		"on_hold":         StatusPending,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from string
		want []string
	}{
		{StatusPending, []string{StatusPending, StatusAccepted, StatusCancelled}},
		{StatusAccepted, []string{StatusAccepted, StatusFilesGenerated, StatusCancelled}},
		{StatusFilesGenerated, []string{StatusFilesGenerated, StatusPrintedCut, StatusCancelled}},
		{StatusPrintedCut, []string{StatusPrintedCut, StatusAssembled, StatusCancelled}},
		{StatusAssembled, []string{StatusAssembled, StatusPacked, StatusCancelled}},
		{StatusPacked, []string{StatusPacked, StatusShipped, StatusCancelled}},
		{StatusShipped, []string{StatusShipped, StatusCancelled}},
		{StatusCancelled, []string{StatusCancelled}},
		{"processing", []string{StatusAccepted, StatusFilesGenerated, StatusCancelled}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AllowedTransitions(tc.from), "from %s", tc.from)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusAccepted))
	assert.True(t, CanTransition(StatusPacked, StatusCancelled))
	assert.False(t, CanTransition(StatusPending, StatusShipped))
	assert.False(t, CanTransition(StatusAccepted, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.False(t, CanTransition(StatusShipped, StatusPacked))
}

func TestNext(t *testing.T) {
	n, ok := Next(StatusAssembled)
	assert.True(t, ok)
	assert.Equal(t, StatusPacked, n)

	_, ok = Next(StatusShipped)
	assert.False(t, ok)
	_, ok = Next(StatusCancelled)
	assert.False(t, ok)
}

func TestRawValues(t *testing.T) {
	assert.ElementsMatch(t, []string{StatusShipped, "delivered", "fulfilled", "completed"}, RawValues(StatusShipped))
	assert.Equal(t, []string{StatusPacked}, RawValues(StatusPacked))
}
