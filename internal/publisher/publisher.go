// Package publisher delivers run results to downstream consumers.
// Publishing is fire-and-forget: the cores never block or fail on a
// publisher error.
package publisher

import "context"

// Envelope is the wire format for one published message.
type Envelope struct {
	FromAgent string      `json:"from_agent"`
	ToAgent   string      `json:"to_agent"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	SentAtMs  int64       `json:"sent_at"`
}

// Publisher sends a message to a named consumer.
type Publisher interface {
	Publish(ctx context.Context, fromAgent, toAgent, msgType string, payload interface{}) error
}

// Noop discards every message. Used when no downstream consumer is
// configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, string, string, interface{}) error { return nil }

var _ Publisher = Noop{}
