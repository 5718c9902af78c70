package domain

import "context"

// Relay carries control messages between server instances hosting viewers of the same video.
type Relay interface {
	Publish(ctx context.Context, msg EnrichedControlMessage) error
	Subscribe(ctx context.Context, videoID int64) (RelaySubscription, error)
}

// RelaySubscription delivers serialized EnrichedControlMessages published by other instances.
// Messages is closed after Close or when the underlying subscription ends.
type RelaySubscription interface {
	Messages() <-chan []byte
	Close() error
}
