package mocks

import (
	"context"
	"sync"

	"github.com/kumar-mithlesh/headless-api/internal/mail"
)

// MockMailer records dispatched messages. It satisfies both the dispatcher
// seam used by handlers and mail.Sender.
type MockMailer struct {
	DispatchFn func(ctx context.Context, msg mail.Message) error
	Err        error

	mu       sync.Mutex
	Messages []mail.Message
}

var _ mail.Sender = (*MockMailer)(nil)

func (m *MockMailer) Dispatch(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.Messages = append(m.Messages, msg)
	m.mu.Unlock()
	if m.DispatchFn != nil {
		return m.DispatchFn(ctx, msg)
	}
	return m.Err
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Dispatch(ctx, msg)
}

// Sent returns a copy of the recorded messages.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.Messages...)
}
