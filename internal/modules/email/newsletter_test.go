package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletterSend_AllSubscribers(t *testing.T) {
	s := newFakeSender()
	s.failFor["b@example.com"] = errBounce
	subs := newMemSubs("a@example.com", "b@example.com", "c@example.com")
	svc := NewNewsletterService(subs, NewDispatcher(s, &memLogs{}, 0, discardLogger()), "https://shop/api/newsletter/unsubscribe", discardLogger())

	res, err := svc.Send(context.Background(), NewsletterInput{Subject: "New drop", Body: "Fresh packs.\n\nSee you soon."})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)

	for _, m := range s.sent {
		assert.Equal(t, "New drop", m.Subject)
		assert.Contains(t, m.HTML, "unsubscribe?email=")
		assert.Contains(t, m.HTML, "Fresh packs.")
	}
}

func TestNewsletterSend_ExplicitRecipients(t *testing.T) {
	s := newFakeSender()
	svc := NewNewsletterService(newMemSubs("a@example.com"), NewDispatcher(s, &memLogs{}, 0, discardLogger()), "", discardLogger())

	res, err := svc.Send(context.Background(), NewsletterInput{
		Subject:    "Hi",
		Body:       "Body",
		Recipients: []string{"x@example.com", "X@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"x@example.com"}, s.sent[0].To)
}

func TestNewsletterSend_Validation(t *testing.T) {
	svc := NewNewsletterService(newMemSubs(), NewDispatcher(newFakeSender(), &memLogs{}, 0, discardLogger()), "", discardLogger())

	_, err := svc.Send(context.Background(), NewsletterInput{Body: "x"})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, err = svc.Send(context.Background(), NewsletterInput{Subject: "x", Body: "  "})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestNewsletterSubscribe(t *testing.T) {
	subs := newMemSubs()
	svc := NewNewsletterService(subs, NewDispatcher(newFakeSender(), &memLogs{}, 0, discardLogger()), "", discardLogger())

	assert.ErrorIs(t, svc.Subscribe(context.Background(), "nope", ""), ErrInvalidEmail)
	require.NoError(t, svc.Subscribe(context.Background(), "fan@example.com", "Fan"))
	assert.Len(t, subs.active, 1)

	ok, err := svc.Unsubscribe(context.Background(), "FAN@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, subs.active)
}
