package reminder

import (
	"context"
	"sync"
)

type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// StubNotifier records messages instead of delivering them.
type StubNotifier struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (n *StubNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.messages = append(n.messages, Message{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (n *StubNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}
