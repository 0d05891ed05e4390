package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	sent       []Message
	failFor    map[string]error // keyed by first recipient
	err        error
}

func newFakeSender() *fakeSender { return &fakeSender{configured: true, failFor: map[string]error{}} }

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(_ context.Context, m Message) (SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return SendResult{}, f.err
	}
	if len(m.To) > 0 {
		if err, ok := f.failFor[strings.ToLower(m.To[0])]; ok {
			return SendResult{}, err
		}
	}
	f.sent = append(f.sent, m)
	return SendResult{MessageID: "msg_" + m.To[0]}, nil
}

type memLogs struct {
	mu   sync.Mutex
	logs []EmailLog
	err  error
}

func (m *memLogs) CreateLog(_ context.Context, l *EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *l)
	return nil
}

type memOutbox struct {
	msgs map[string]*OutboxMessage
}

func newMemOutbox(msgs ...OutboxMessage) *memOutbox {
	m := &memOutbox{msgs: map[string]*OutboxMessage{}}
	for i := range msgs {
		msg := msgs[i]
		m.msgs[msg.ID] = &msg
	}
	return m
}

func (m *memOutbox) Enqueue(_ context.Context, msg *OutboxMessage) error {
	c := *msg
	m.msgs[c.ID] = &c
	return nil
}

func (m *memOutbox) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]OutboxMessage, error) {
	var out []OutboxMessage
	for _, msg := range m.msgs {
		if len(out) >= limit {
			break
		}
		if msg.Status != StatusPending || msg.NextAttemptAt.After(now) {
			continue
		}
		msg.NextAttemptAt = now.Add(lease)
		out = append(out, *msg)
	}
	return out, nil
}

func (m *memOutbox) MarkSent(_ context.Context, id string, at time.Time) error {
	m.msgs[id].Status = StatusSent
	m.msgs[id].SentAt = &at
	return nil
}

func (m *memOutbox) MarkRetry(_ context.Context, id string, attempts int, next time.Time, lastErr string) error {
	m.msgs[id].Attempts = attempts
	m.msgs[id].NextAttemptAt = next
	m.msgs[id].LastError = &lastErr
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id string, attempts int, lastErr string) error {
	m.msgs[id].Status = StatusFailed
	m.msgs[id].Attempts = attempts
	m.msgs[id].LastError = &lastErr
	return nil
}

type memReminders struct {
	rems    []AbandonedCartReminder
	markErr error
}

func (m *memReminders) CreateReminder(_ context.Context, r *AbandonedCartReminder) error {
	m.rems = append(m.rems, *r)
	return nil
}

func (m *memReminders) DueReminders(_ context.Context, cutoff time.Time, limit int) ([]AbandonedCartReminder, error) {
	var out []AbandonedCartReminder
	for _, r := range m.rems {
		if r.NudgeSentAt == nil && !r.CreatedAt.After(cutoff) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReminders) MarkNudged(_ context.Context, id string, at time.Time) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	for i := range m.rems {
		if m.rems[i].ID == id && m.rems[i].NudgeSentAt == nil {
			m.rems[i].NudgeSentAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *memReminders) nudged(id string) bool {
	for _, r := range m.rems {
		if r.ID == id {
			return r.NudgeSentAt != nil
		}
	}
	return false
}

type memProfiles struct {
	claimed  map[string]bool
	released int
	err      error
}

func newMemProfiles() *memProfiles { return &memProfiles{claimed: map[string]bool{}} }

func (m *memProfiles) ClaimWelcome(_ context.Context, accountID, _, _ string, _ time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[accountID] {
		return false, nil
	}
	m.claimed[accountID] = true
	return true, nil
}

func (m *memProfiles) ReleaseWelcome(_ context.Context, accountID string) error {
	delete(m.claimed, accountID)
	m.released++
	return nil
}

type memSubs struct {
	active map[string]string
	err    error
}

func newMemSubs(addrs ...string) *memSubs {
	m := &memSubs{active: map[string]string{}}
	for _, a := range addrs {
		m.active[strings.ToLower(a)] = a
	}
	return m
}

func (m *memSubs) Subscribe(_ context.Context, addr, _ string) error {
	m.active[strings.ToLower(addr)] = addr
	return nil
}

func (m *memSubs) Unsubscribe(_ context.Context, addr string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(addr))
	_, ok := m.active[key]
	delete(m.active, key)
	return ok, nil
}

func (m *memSubs) ActiveSubscribers(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, a := range m.active {
		out = append(out, a)
	}
	return out, nil
}

var errBounce = errors.New("mailbox unavailable")
