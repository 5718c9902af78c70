package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/pscheid92/watchsync/internal/adapter/metrics"
	"github.com/pscheid92/watchsync/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	channelPrefix          = "watchparty:video:"
	subscriptionBufferSize = 16
)

// Channel returns the broker channel of a video.
func Channel(videoID int64) string {
	return channelPrefix + strconv.FormatInt(videoID, 10)
}

// envelope is the broker wire format.
type envelope struct {
	InstanceID string          `json:"instance_id"`
	Message    json.RawMessage `json:"message"`
}

// Relay publishes and subscribes control messages over Redis Pub/Sub.
type Relay struct {
	rdb        *goredis.Client
	instanceID string
	metrics    *metrics.RelayMetrics
}

var _ domain.Relay = (*Relay)(nil)

// NewRelay creates a relay identified on the broker by instanceID.
func NewRelay(client *Client, instanceID string, m *metrics.RelayMetrics) *Relay {
	return &Relay{rdb: client.rdb, instanceID: instanceID, metrics: m}
}

// Publish sends msg to every other instance subscribed to its video.
func (r *Relay) Publish(ctx context.Context, msg domain.EnrichedControlMessage) error {
	data, err := r.encode(msg)
	if err != nil {
		return err
	}

	if err := r.rdb.Publish(ctx, Channel(msg.VideoID), data).Err(); err != nil {
		r.metrics.Published.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish to %s: %w", Channel(msg.VideoID), err)
	}
	r.metrics.Published.WithLabelValues("ok").Inc()
	return nil
}

// Subscribe opens a subscription to videoID. ctx bounds only the subscribe
// handshake; the subscription lives until Close.
func (r *Relay) Subscribe(ctx context.Context, videoID int64) (domain.RelaySubscription, error) {
	channel := Channel(videoID)
	sub := r.rdb.Subscribe(ctx, channel)

	// Receive blocks until the broker confirms, so the caller knows the subscription is live.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		r.metrics.SubscribeErrors.Inc()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	s := &Subscription{
		sub: sub,
		ch:  make(chan []byte, subscriptionBufferSize),
	}
	r.metrics.ActiveSubscriptions.Inc()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.ch)
		defer r.metrics.ActiveSubscriptions.Dec()

		for msg := range sub.Channel() {
			payload, ok := r.accept(msg.Payload)
			if !ok {
				continue
			}
			select {
			case s.ch <- payload:
				r.metrics.Received.WithLabelValues("forwarded").Inc()
			default:
				r.metrics.Received.WithLabelValues("dropped").Inc()
			}
		}
	}()

	return s, nil
}

func (r *Relay) encode(msg domain.EnrichedControlMessage) ([]byte, error) {
	inner, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal control message: %w", err)
	}
	data, err := json.Marshal(envelope{InstanceID: r.instanceID, Message: inner})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// accept unwraps a broker payload, rejecting malformed envelopes and our own publishes.
func (r *Relay) accept(payload string) ([]byte, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || len(env.Message) == 0 {
		slog.Warn("Dropping malformed relay message", "error", err)
		r.metrics.Received.WithLabelValues("malformed").Inc()
		return nil, false
	}
	if env.InstanceID == r.instanceID {
		r.metrics.Received.WithLabelValues("own").Inc()
		return nil, false
	}
	return env.Message, true
}

// Subscription is one session's view of a video channel.
type Subscription struct {
	sub       *goredis.PubSub
	ch        chan []byte
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ domain.RelaySubscription = (*Subscription)(nil)

// Messages yields serialized EnrichedControlMessages from other instances.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

// Close unsubscribes and waits for the reader goroutine to finish.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.sub.Close()
	})
	s.wg.Wait()
	return err
}
