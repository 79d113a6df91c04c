package dummymail

import (
	"sync"

	"github.com/napthedev/edura/core"
)

// SentMessages records every message handed to the dummy service,
// in the order received. Tests read it back after exercising code
// that sends email.
var (
	mu           sync.Mutex
	SentMessages = make([]core.EmailMessage, 0)
)

type service struct{}

var _ core.EmailService = (*service)(nil)

func NewService() *service { return &service{} }

func (svc service) SendMessages(messages ...*core.EmailMessage) {
	mu.Lock()
	defer mu.Unlock()
	for _, msg := range messages {
		_ = msg.Render()
		SentMessages = append(SentMessages, *msg)
	}
}

// Clear resets the recorded messages between tests.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	SentMessages = SentMessages[:0]
}
