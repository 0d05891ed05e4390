package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcome_SentOnce(t *testing.T) {
	s := newFakeSender()
	profiles := newMemProfiles()
	svc := NewWelcomeService(profiles, NewDispatcher(s, &memLogs{}, 0, discardLogger()), "https://shop", discardLogger())

	res, err := svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "Misty")
	require.NoError(t, err)
	assert.True(t, res.Sent)

	res, err = svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "Misty")
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, "already sent", res.Reason)

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Welcome to STAKD Cards", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].HTML, "Misty")
}

func TestWelcome_FailureReleasesClaim(t *testing.T) {
	s := newFakeSender()
	s.err = errBounce
	profiles := newMemProfiles()
	svc := NewWelcomeService(profiles, NewDispatcher(s, &memLogs{}, 0, discardLogger()), "", discardLogger())

	res, err := svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "")
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, 1, profiles.released)
	assert.False(t, profiles.claimed["acct-1"])

	s.err = nil
	res, err = svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, res.Sent)
}

func TestWelcome_NotConfiguredDoesNotClaim(t *testing.T) {
	s := newFakeSender()
	s.configured = false
	profiles := newMemProfiles()
	svc := NewWelcomeService(profiles, NewDispatcher(s, &memLogs{}, 0, discardLogger()), "", discardLogger())

	res, err := svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "")
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Empty(t, profiles.claimed)
}

func TestWelcome_StoreError(t *testing.T) {
	profiles := newMemProfiles()
	profiles.err = errors.New("db down")
	svc := NewWelcomeService(profiles, NewDispatcher(newFakeSender(), &memLogs{}, 0, discardLogger()), "", discardLogger())

	_, err := svc.SendWelcome(context.Background(), "acct-1", "a@example.com", "")
	assert.Error(t, err)
}
