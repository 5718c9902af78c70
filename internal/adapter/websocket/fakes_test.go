package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/pscheid92/watchsync/internal/broadcast"
	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/stretchr/testify/require"
)

var testTokens = fakeVerifier{"token-10": 10, "token-11": 11, "token-12": 12}

type fakeVerifier map[string]int64

func (f fakeVerifier) Verify(token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, domain.ErrInvalidToken
}

// memoryBus stands in for the broker: it fans published messages out to the
// subscriptions of every instance except the publisher's.
type memoryBus struct {
	mu   sync.Mutex
	subs map[int64]map[*memorySub]struct{}
}

func newMemoryBus() *memoryBus {
	return &memoryBus{subs: make(map[int64]map[*memorySub]struct{})}
}

func (b *memoryBus) count(videoID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[videoID])
}

type memorySub struct {
	bus      *memoryBus
	videoID  int64
	instance string
	ch       chan []byte
	once     sync.Once
}

func (s *memorySub) Messages() <-chan []byte { return s.ch }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.videoID], s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
	return nil
}

type memoryRelay struct {
	bus           *memoryBus
	instance      string
	failPublish   bool
	failSubscribe bool
	published     atomic.Int32
}

func (r *memoryRelay) Publish(_ context.Context, msg domain.EnrichedControlMessage) error {
	r.published.Add(1)
	if r.failPublish {
		return errors.New("broker unavailable")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	for s := range r.bus.subs[msg.VideoID] {
		if s.instance == r.instance {
			continue
		}
		select {
		case s.ch <- payload:
		default:
		}
	}
	return nil
}

func (r *memoryRelay) Subscribe(_ context.Context, videoID int64) (domain.RelaySubscription, error) {
	if r.failSubscribe {
		return nil, errors.New("broker unavailable")
	}
	s := &memorySub{bus: r.bus, videoID: videoID, instance: r.instance, ch: make(chan []byte, 16)}

	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	if r.bus.subs[videoID] == nil {
		r.bus.subs[videoID] = make(map[*memorySub]struct{})
	}
	r.bus.subs[videoID][s] = struct{}{}
	return s, nil
}

// instance is one server process hosting a single endpoint.
type instance struct {
	registry *broadcast.Registry
	server   *httptest.Server
}

func newInstance(t *testing.T, ctx context.Context, cfg SessionConfig) *instance {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = broadcast.NewRegistry()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = EndpointWatchParty
	}
	ep := NewEndpoint(cfg, func(*http.Request) bool { return true })

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		videoID, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/"), 10, 64)
		if err != nil {
			http.Error(w, "bad video id", http.StatusBadRequest)
			return
		}
		ep.Serve(w, r, videoID)
	}))
	srv.Config.BaseContext = func(net.Listener) context.Context { return ctx }
	srv.Start()
	t.Cleanup(srv.Close)

	return &instance{registry: cfg.Registry, server: srv}
}

func newWatchPartyInstance(t *testing.T, relay domain.Relay) *instance {
	t.Helper()
	return newInstance(t, context.Background(), SessionConfig{Verifier: testTokens, Relay: relay})
}

// dial connects to videoID and waits until the session is registered.
func (i *instance) dial(t *testing.T, videoID int64) *ws.Conn {
	t.Helper()
	before := i.registry.Count(videoID)

	url := "ws" + strings.TrimPrefix(i.server.URL, "http") + "/" + strconv.FormatInt(videoID, 10)
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return i.registry.Count(videoID) == before+1 },
		2*time.Second, 5*time.Millisecond, "session was not registered")
	return conn
}

func send(t *testing.T, conn *ws.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(frame)))
}

func readText(t *testing.T, conn *ws.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, ws.TextMessage, msgType)
	return string(data)
}

func readControl(t *testing.T, conn *ws.Conn) domain.EnrichedControlMessage {
	t.Helper()
	var msg domain.EnrichedControlMessage
	require.NoError(t, json.Unmarshal([]byte(readText(t, conn)), &msg))
	return msg
}

// expectSilence leaves conn unusable for further reads.
func expectSilence(t *testing.T, conn *ws.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpected frame: %s", data)
	}
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout(), "expected read timeout, got %v", err)
}
