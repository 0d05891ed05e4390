package email

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNudgeDelay(t *testing.T) {
	assert.Equal(t, DefaultNudgeDelay, NudgeDelay(0))
	assert.Equal(t, DefaultNudgeDelay, NudgeDelay(-3))
	assert.Equal(t, time.Hour, NudgeDelay(1))
	assert.Equal(t, 48*time.Hour, NudgeDelay(48))
}

func TestNudgeRecord(t *testing.T) {
	store := &memReminders{}
	svc := NewNudgeService(store, NewDispatcher(newFakeSender(), &memLogs{}, 0, discardLogger()), time.Hour, "https://shop/cart", discardLogger())

	_, err := svc.Record(context.Background(), RecordInput{Email: "not-an-email", Cart: []CartLine{{ProductID: "p1"}}})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Record(context.Background(), RecordInput{Email: "a@example.com", Cart: []CartLine{{}}})
	assert.ErrorIs(t, err, ErrEmptyCart)

	id, err := svc.Record(context.Background(), RecordInput{
		Email: " a@example.com ",
		Name:  "Ash",
		Cart:  []CartLine{{ProductID: "p1", Name: "Charizard", Quantity: 0, Price: decimal.RequireFromString("32.00")}},
	})
	require.NoError(t, err)
	require.Len(t, store.rems, 1)
	assert.Equal(t, id, store.rems[0].ID)
	assert.Equal(t, "a@example.com", store.rems[0].Email)

	var lines []CartLine
	require.NoError(t, json.Unmarshal(store.rems[0].CartJSON, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func reminder(id, addr string, created time.Time) AbandonedCartReminder {
	raw, _ := json.Marshal([]CartLine{{ProductID: "p1", Name: "Pikachu", Quantity: 2, Price: decimal.RequireFromString("4.50")}})
	return AbandonedCartReminder{ID: id, Email: addr, CartJSON: datatypes.JSON(raw), CreatedAt: created}
}

func TestNudgeSweep_MarksOnlySuccesses(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * time.Hour)
	store := &memReminders{rems: []AbandonedCartReminder{
		reminder("r1", "a@example.com", old),
		reminder("r2", "b@example.com", old),
		reminder("r3", "c@example.com", old),
		reminder("fresh", "d@example.com", now.Add(-time.Hour)),
	}}
	s := newFakeSender()
	s.failFor["b@example.com"] = errBounce

	svc := NewNudgeService(store, NewDispatcher(s, &memLogs{}, 0, discardLogger()), 24*time.Hour, "https://shop/cart", discardLogger())
	svc.now = func() time.Time { return now }

	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Due: 3, Sent: 2, Failed: 1}, res)

	assert.True(t, store.nudged("r1"))
	assert.False(t, store.nudged("r2"))
	assert.True(t, store.nudged("r3"))
	assert.False(t, store.nudged("fresh"))
	require.Len(t, s.sent, 2)
	assert.Contains(t, s.sent[0].HTML, "Pikachu")

	// the failed reminder is picked up again on the next sweep
	s.failFor = map[string]error{}
	res, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.True(t, store.nudged("r2"))
}

func TestNudgeSweep_NotConfigured(t *testing.T) {
	s := newFakeSender()
	s.configured = false
	store := &memReminders{rems: []AbandonedCartReminder{reminder("r1", "a@example.com", time.Now().Add(-48*time.Hour))}}

	svc := NewNudgeService(store, NewDispatcher(s, &memLogs{}, 0, discardLogger()), 24*time.Hour, "", discardLogger())
	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Due)
	assert.NotEmpty(t, res.Reason)
	assert.False(t, store.nudged("r1"))
}

func TestNudgeSweep_NothingDue(t *testing.T) {
	svc := NewNudgeService(&memReminders{}, NewDispatcher(newFakeSender(), &memLogs{}, 0, discardLogger()), 24*time.Hour, "", discardLogger())
	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "no reminders due", res.Reason)
}
