package mail

import (
	"context"
	"sync"

	"typeit/internal/domain/service"
)

// MemorySender keeps sent messages in memory. It can be told to fail every send.
type MemorySender struct {
	mu       sync.Mutex
	messages []service.MailMessage
	err      error
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// FailWith makes subsequent sends return err. A nil err restores delivery.
func (s *MemorySender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

func (s *MemorySender) Send(_ context.Context, msg service.MailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)

	return nil
}

// Messages returns a copy of everything delivered so far.
func (s *MemorySender) Messages() []service.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]service.MailMessage, len(s.messages))
	copy(out, s.messages)

	return out
}
