package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/watchsync/internal/adapter/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	DefaultBufferSize = 100
)

// ClientConfig tunes a Client. Zero values fall back to defaults.
type ClientConfig struct {
	BufferSize int
	Clock      clockwork.Clock
	Metrics    *metrics.WebSocketMetrics
}

// Client is the outbound handle of one connection. It is registered in a Registry
// by pointer identity and never reused once stopped.
type Client struct {
	id         uuid.UUID
	videoID    int64
	connection *websocket.Conn
	clock      clockwork.Clock
	metrics    *metrics.WebSocketMetrics

	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewClient starts the writer goroutine for connection. The caller owns the read side.
func NewClient(connection *websocket.Conn, videoID int64, cfg ClientConfig) *Client {
	c := newClient(videoID, cfg)
	c.connection = connection
	c.configurePongHandler()
	c.wg.Add(1)
	go c.run()
	return c
}

func newClient(videoID int64, cfg ClientConfig) *Client {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Client{
		id:          uuid.New(),
		videoID:     videoID,
		clock:       cfg.Clock,
		metrics:     cfg.Metrics,
		sendChannel: make(chan []byte, cfg.BufferSize),
		doneChannel: make(chan struct{}),
	}
}

func (c *Client) ID() uuid.UUID { return c.id }

func (c *Client) VideoID() int64 { return c.videoID }

// Enqueue offers msg to the outbound queue without blocking. It reports false
// when the queue is full or the client is stopped; the message is then dropped.
func (c *Client) Enqueue(msg []byte) bool {
	select {
	case <-c.doneChannel:
		return false
	default:
	}

	select {
	case c.sendChannel <- msg:
		return true
	default:
		return false
	}
}

// Done is closed once the client has been stopped.
func (c *Client) Done() <-chan struct{} {
	return c.doneChannel
}

func (c *Client) run() {
	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.wg.Done()

	for {
		select {
		case msg := <-c.sendChannel:
			start := c.clock.Now()
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Unblocks the reader so the session tears down.
				_ = c.connection.Close()
				return
			}
			if c.metrics != nil {
				c.metrics.SendDuration.Observe(c.clock.Since(start).Seconds())
			}
		case <-ticker.Chan():
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.connection.Close()
				return
			}
		case <-c.doneChannel:
			return
		}
	}
}

// Stop ends the writer and closes the connection. Safe to call more than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.doneChannel)
		if c.connection != nil {
			_ = c.connection.Close()
		}
	})
	c.wg.Wait()
}

// StopGraceful sends a close frame with reason before closing the connection.
func (c *Client) StopGraceful(reason string) {
	c.stopOnce.Do(func() {
		close(c.doneChannel)

		// The writer must be gone before the close frame is written.
		c.wg.Wait()

		if c.connection == nil {
			return
		}
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		c.updateWriteDeadline()
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.connection.Close()
	})
	c.wg.Wait()
}

// ExtendReadDeadline pushes the read deadline out by the pong window. Called on
// any sign of life from the peer.
func (c *Client) ExtendReadDeadline() {
	_ = c.connection.SetReadDeadline(c.clock.Now().Add(pongDeadline))
}

func (c *Client) configurePongHandler() {
	c.ExtendReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.ExtendReadDeadline()
		return nil
	})
}

func (c *Client) updateWriteDeadline() {
	_ = c.connection.SetWriteDeadline(c.clock.Now().Add(writeDeadline))
}
