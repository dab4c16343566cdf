// Package push implements the websocket push-channel client.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// DefaultReconnectAttempts bounds automatic reconnection; beyond it the
	// channel stays closed and polling is the sole delivery path.
	DefaultReconnectAttempts = 5
	// DefaultReconnectDelay is the fixed delay between attempts.
	DefaultReconnectDelay = time.Second
)

// ErrNotConnected is returned by Send while the channel is down.
var ErrNotConnected = errors.New("push: channel not connected")

// Frame is the wire format of the push channel. Exactly one payload field is
// set depending on Type.
type Frame struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
	Contact *domain.Contact `json:"contact,omitempty"`
}

// Frame types.
const (
	FrameJoin                  = "join"
	FrameJoined                = "joined"
	FrameSendMessage           = "sendMessage"
	FrameReceiveMessage        = "receiveMessage"
	FrameFriendRequestAccepted = "friendRequestAccepted"
)

// Client is a reconnecting websocket client joined to the user's private
// room. Outbound writes go through a buffered channel drained by a write
// loop; a ping ticker keeps the connection alive.
type Client struct {
	url      string
	token    string
	attempts int
	delay    time.Duration
	dialer   *websocket.Dialer
	logger   zerolog.Logger

	onMessage port.MessageHandler
	onContact port.ContactHandler

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	conn      *websocket.Conn
	userID    string
	connected bool
}

// Option configures the client.
type Option func(*Client)

// WithToken attaches the bearer token to the websocket handshake.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithReconnect overrides the reconnection policy.
func WithReconnect(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given websocket URL (ws:// or wss://).
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		attempts: DefaultReconnectAttempts,
		delay:    DefaultReconnectDelay,
		dialer:   websocket.DefaultDialer,
		logger:   zerolog.Nop(),
		send:     make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure interface compliance at compile time
var _ port.Push = (*Client)(nil)

// OnMessage registers the delivery handler. Must be called before Connect.
func (c *Client) OnMessage(h port.MessageHandler) {
	c.onMessage = h
}

// OnContactAccepted registers the contact handler. Must be called before
// Connect.
func (c *Client) OnContactAccepted(h port.ContactHandler) {
	c.onContact = h
}

// Connect dials the channel and joins the room for userID. On later read or
// write failures the client reconnects up to the configured attempt bound.
func (c *Client) Connect(ctx context.Context, userID string) error {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("push: dial: %w", err)
	}
	c.startSession(ctx, conn)
	return nil
}

// Connected reports whether the channel is currently usable for sends.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send emits a sendMessage frame. The server-assigned record comes back as
// a receiveMessage delivery.
func (c *Client) Send(senderID, recipientID, content string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	frame := Frame{
		Type: FrameSendMessage,
		Message: &domain.Message{
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     content,
		},
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("push: encode frame: %w", err)
	}
	select {
	case <-c.closed:
		return ErrNotConnected
	case c.send <- payload:
		return nil
	default:
		return errors.New("push: send buffer full")
	}
}

// Close tears the channel down and stops reconnection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.connected = false
		c.mu.Unlock()
		if conn != nil {
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), deadline)
			_ = conn.Close()
		}
	})
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	url := c.url
	if c.token != "" {
		url += "?token=" + c.token
	}
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	join := Frame{Type: FrameJoin, UserID: userID}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(join); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join: %w", err)
	}
	return conn, nil
}

func (c *Client) startSession(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	stop := make(chan struct{})
	go c.writeLoop(conn, stop)
	go c.readLoop(ctx, conn, stop)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, stop chan struct{}) {
	defer close(stop)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			c.mu.Lock()
			c.connected = false
			c.conn = nil
			c.mu.Unlock()

			if c.isClosed() || ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Msg("push channel lost")
			c.reconnect(ctx)
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warn().Err(err).Msg("bad push frame dropped")
		return
	}
	switch frame.Type {
	case FrameReceiveMessage:
		if c.onMessage != nil && frame.Message != nil {
			c.onMessage(*frame.Message)
		}
	case FrameFriendRequestAccepted:
		if c.onContact != nil && frame.Contact != nil {
			c.onContact(*frame.Contact)
		}
	default:
		// joined acks and unknown frames are ignored
	}
}

func (c *Client) writeLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.closed:
			return
		case payload := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				// readLoop notices the dead connection and reconnects.
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// reconnect attempts a bounded number of re-dials with a fixed delay. On
// exhaustion the channel stays down: degraded mode, not an error.
func (c *Client) reconnect(ctx context.Context) {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-c.closed:
			return
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Int("max", c.attempts).Msg("push reconnect failed")
			continue
		}
		c.logger.Info().Int("attempt", attempt).Msg("push channel reconnected")
		c.startSession(ctx, conn)
		return
	}
	c.logger.Warn().Int("attempts", c.attempts).Msg("push reconnect exhausted, polling is the sole delivery path")
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
