package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/watchsync/internal/adapter/metrics"
	"github.com/pscheid92/watchsync/internal/broadcast"
	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/pscheid92/watchsync/internal/platform/correlation"
)

const (
	maxFrameSize          = 64 * 1024
	controlWriteDeadline  = 5 * time.Second
	defaultConnectTimeout = 3 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// State is the position of a Session in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateUnauthenticated
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "closed"
	}
}

// SessionConfig is shared by every session of one endpoint.
// A nil Verifier means sessions never authenticate; a nil Relay keeps delivery local.
type SessionConfig struct {
	Endpoint       string
	Registry       *broadcast.Registry
	Broadcaster    *broadcast.Broadcaster
	Verifier       domain.TokenVerifier
	Relay          domain.Relay
	Client         broadcast.ClientConfig
	Clock          clockwork.Clock
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	Metrics        *metrics.WebSocketMetrics
}

func (c *SessionConfig) withDefaults() {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Client.Clock == nil {
		c.Client.Clock = c.Clock
	}
	if c.Client.Metrics == nil {
		c.Client.Metrics = c.Metrics
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}
	if c.Broadcaster == nil {
		c.Broadcaster = broadcast.NewBroadcaster(c.Registry, c.Metrics)
	}
}

// Session drives one viewer connection. All inbound handling happens on the
// goroutine that calls Run.
type Session struct {
	cfg     *SessionConfig
	conn    *websocket.Conn
	videoID int64
	client  *broadcast.Client
	state   atomic.Int32
	userID  atomic.Int64
}

func newSession(conn *websocket.Conn, videoID int64, cfg *SessionConfig) *Session {
	return &Session{cfg: cfg, conn: conn, videoID: videoID}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// UserID returns the authenticated user, 0 before authentication.
func (s *Session) UserID() int64 {
	return s.userID.Load()
}

// Run registers the session, reads until the connection ends or ctx is done, then cleans up.
func (s *Session) Run(ctx context.Context) {
	s.state.Store(int32(StateConnecting))
	s.client = broadcast.NewClient(s.conn, s.videoID, s.cfg.Client)

	ctx = correlation.WithAttrs(ctx,
		slog.String("connection_id", s.client.ID().String()),
		slog.Int64("video_id", s.videoID),
		slog.String("endpoint", s.cfg.Endpoint),
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.gauge(1)
	s.cfg.Registry.Register(s.videoID, s.client)
	slog.InfoContext(ctx, "WebSocket connected", "remote_addr", s.conn.RemoteAddr().String())

	var wg sync.WaitGroup
	sub := s.subscribe(ctx)
	if sub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.forward(sub)
		}()
	}

	readDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			s.client.StopGraceful("server shutting down")
		case <-readDone:
		}
	}()

	s.state.Store(int32(StateUnauthenticated))
	s.readLoop(ctx)

	close(readDone)
	s.state.Store(int32(StateClosed))
	s.cfg.Registry.Deregister(s.videoID, s.client)
	if sub != nil {
		_ = sub.Close()
	}
	wg.Wait()
	s.client.Stop()
	s.gauge(-1)
	slog.InfoContext(ctx, "WebSocket disconnected", "user_id", s.UserID())
}

func (s *Session) subscribe(ctx context.Context) domain.RelaySubscription {
	if s.cfg.Relay == nil {
		return nil
	}

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	sub, err := s.cfg.Relay.Subscribe(subCtx, s.videoID)
	if err != nil {
		slog.WarnContext(ctx, "Relay subscription failed, continuing with local delivery only", "error", err)
		return nil
	}
	return sub
}

// forward copies relay messages from other instances into this connection's queue.
func (s *Session) forward(sub domain.RelaySubscription) {
	for payload := range sub.Messages() {
		s.cfg.Broadcaster.SendTo(s.client, payload, broadcast.SourceRelay)
	}
}

func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetPingHandler(s.handlePing)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(ctx, err)
			return
		}
		s.client.ExtendReadDeadline()

		if msgType != websocket.TextMessage {
			continue
		}
		s.handleText(ctx, data)
	}
}

func (s *Session) handlePing(data string) error {
	s.client.ExtendReadDeadline()
	err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWriteDeadline))
	if err == nil || errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil
	}
	return err
}

func (s *Session) logReadError(ctx context.Context, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		slog.DebugContext(ctx, "WebSocket read ended", "error", err)
		return
	}
	slog.InfoContext(ctx, "WebSocket read failed", "error", err)
}

func (s *Session) handleText(ctx context.Context, data []byte) {
	in := DecodeInbound(data)
	state := s.State()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.FramesReceived.WithLabelValues(in.Kind.String(), state.String()).Inc()
	}

	switch state {
	case StateUnauthenticated:
		if in.Kind == KindAuth {
			s.authenticate(ctx, in.Auth.Token)
			return
		}
		slog.DebugContext(ctx, "Ignoring frame from unauthenticated connection", "kind", in.Kind.String())

	case StateAuthenticated:
		switch in.Kind {
		case KindAuth:
			s.authenticate(ctx, in.Auth.Token)
		case KindControl:
			s.handleControl(ctx, in.Control)
		default:
			s.cfg.Broadcaster.SendTo(s.client, in.Raw, broadcast.SourceEcho)
		}
	}
}

// authenticate never reports failure to the peer.
func (s *Session) authenticate(ctx context.Context, token string) {
	if s.cfg.Verifier == nil {
		return
	}

	userID, err := s.cfg.Verifier.Verify(token)
	if err != nil {
		s.countAuth("rejected")
		slog.InfoContext(ctx, "Authentication rejected", "error", err)
		return
	}

	s.userID.Store(userID)
	s.state.Store(int32(StateAuthenticated))
	s.countAuth("ok")
	slog.InfoContext(ctx, "WebSocket authenticated", "user_id", userID)
}

// handleControl echoes the tagged message to the sender, delivers it to the other local
// viewers and then publishes it for other instances. A relay failure never affects the
// local path or the connection.
func (s *Session) handleControl(ctx context.Context, control domain.ControlMessage) {
	msg := domain.NewEnrichedControlMessage(control, s.UserID(), s.videoID, s.cfg.Clock.Now())
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode control message", "error", err)
		return
	}

	s.cfg.Broadcaster.SendTo(s.client, payload, broadcast.SourceEcho)
	delivered := s.cfg.Broadcaster.Broadcast(s.videoID, payload, s.client)

	slog.DebugContext(ctx, "Control message broadcast",
		"action", msg.Action, "source_id", msg.SourceID, "delivered", delivered)

	if s.cfg.Relay == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()
	if err := s.cfg.Relay.Publish(pubCtx, msg); err != nil {
		slog.WarnContext(ctx, "Relay publish failed", "source_id", msg.SourceID, "error", err)
	}
}

func (s *Session) gauge(delta float64) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActiveConnections.WithLabelValues(s.cfg.Endpoint).Add(delta)
	}
}

func (s *Session) countAuth(result string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Authentications.WithLabelValues(result).Inc()
	}
}
