package notify

import (
	"context"
	"sync"

	derrors "aircrew/pkg/domain-errors"
)

// Sent is one recorded delivery.
type Sent struct {
	ChatID int64
	Text   string
}

// Memory records sends for tests and can simulate per-recipient failures
// (a recipient who blocked the bot).
type Memory struct {
	mu      sync.Mutex
	sent    []Sent
	blocked map[int64]bool
}

func NewMemory() *Memory {
	return &Memory{blocked: make(map[int64]bool)}
}

// Block makes every future send to chatID fail.
func (m *Memory) Block(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[chatID] = true
}

func (m *Memory) Send(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blocked[chatID] {
		return derrors.Newf(derrors.CodeInternal, "forbidden: bot was blocked by chat %d", chatID)
	}
	m.sent = append(m.sent, Sent{ChatID: chatID, Text: text})
	return nil
}

// Sent returns a snapshot of recorded deliveries.
func (m *Memory) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the deliveries addressed to chatID.
func (m *Memory) SentTo(chatID int64) []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sent
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Reset clears recorded deliveries but keeps blocks.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
