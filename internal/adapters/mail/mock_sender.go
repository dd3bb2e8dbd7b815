package mail

import (
	"sync"

	"cafe-pickup-service/internal/ports"
)

// MockSender records outbound messages for tests. Setting Err makes every
// Send fail with it, simulating a transport outage.
type MockSender struct {
	mu   sync.Mutex
	sent []ports.Message

	Err error
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(msg ports.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockSender) Sent() []ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ports.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
