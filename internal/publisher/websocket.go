package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket publisher behavior.
type WSConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSPublisher pushes result envelopes over a WebSocket connection. The
// connection is dialed lazily on first publish and redialed after a write
// failure.
type WSPublisher struct {
	endpoint string
	config   WSConfig

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewWSPublisher creates a publisher for the given ws:// endpoint.
func NewWSPublisher(endpoint string, config *WSConfig) *WSPublisher {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	return &WSPublisher{endpoint: endpoint, config: cfg}
}

// Publish implements Publisher. A dead connection is dropped so the next
// publish redials.
func (p *WSPublisher) Publish(ctx context.Context, fromAgent, toAgent, msgType string, payload interface{}) error {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	if p.conn == nil {
		if err := p.dial(ctx); err != nil {
			return err
		}
	}

	env := Envelope{
		FromAgent: fromAgent,
		ToAgent:   toAgent,
		Type:      msgType,
		Payload:   payload,
		SentAtMs:  time.Now().UnixMilli(),
	}

	if err := p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteTimeout)); err != nil {
		p.drop()
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := p.conn.WriteJSON(env); err != nil {
		p.drop()
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close shuts down the connection if one is open.
func (p *WSPublisher) Close() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *WSPublisher) dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: p.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	p.conn = conn
	return nil
}

func (p *WSPublisher) drop() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

var _ Publisher = (*WSPublisher)(nil)
