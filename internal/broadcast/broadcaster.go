package broadcast

import (
	"log/slog"

	"github.com/pscheid92/watchsync/internal/adapter/metrics"
)

// Delivery sources, used as the metrics label.
const (
	SourceLocal   = "local"
	SourceEcho    = "echo"
	SourceRelay   = "relay"
	SourceComment = "comment"
)

// Broadcaster delivers messages to the clients of a Registry.
type Broadcaster struct {
	registry *Registry
	metrics  *metrics.WebSocketMetrics
}

func NewBroadcaster(registry *Registry, m *metrics.WebSocketMetrics) *Broadcaster {
	return &Broadcaster{registry: registry, metrics: m}
}

// Broadcast offers payload to every client of videoID except origin (which may be nil).
// It never blocks; clients whose queue is full miss the message. Returns the number of
// clients that accepted it.
func (b *Broadcaster) Broadcast(videoID int64, payload []byte, origin *Client) int {
	delivered := 0
	for _, c := range b.registry.Snapshot(videoID) {
		if c == origin {
			continue
		}
		if b.SendTo(c, payload, SourceLocal) {
			delivered++
		}
	}
	return delivered
}

// SendTo offers payload to a single client and records the outcome under source.
func (b *Broadcaster) SendTo(c *Client, payload []byte, source string) bool {
	ok := c.Enqueue(payload)
	if !ok {
		slog.Debug("Dropped message for slow client",
			"video_id", c.VideoID(), "connection_id", c.ID(), "source", source)
	}
	if b.metrics != nil {
		result := "delivered"
		if !ok {
			result = "dropped"
		}
		b.metrics.Deliveries.WithLabelValues(source, result).Inc()
	}
	return ok
}
