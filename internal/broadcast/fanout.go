package broadcast

import (
	"encoding/json"
	"log/slog"

	"github.com/pscheid92/watchsync/internal/domain"
)

// CommentFanout pushes persisted comments to every comment-stream viewer of a video.
type CommentFanout struct {
	registry    *Registry
	broadcaster *Broadcaster
}

var _ domain.CommentNotifier = (*CommentFanout)(nil)

func NewCommentFanout(registry *Registry, broadcaster *Broadcaster) *CommentFanout {
	return &CommentFanout{registry: registry, broadcaster: broadcaster}
}

// Notify serializes comment once and queues it for every current viewer of videoID.
// Viewers that connect afterwards do not receive it.
func (f *CommentFanout) Notify(videoID int64, comment domain.Comment) int {
	payload, err := json.Marshal(comment)
	if err != nil {
		slog.Error("Failed to encode comment", "video_id", videoID, "comment_id", comment.ID, "error", err)
		return 0
	}

	delivered := 0
	for _, c := range f.registry.Snapshot(videoID) {
		if f.broadcaster.SendTo(c, payload, SourceComment) {
			delivered++
		}
	}

	slog.Debug("Comment fanned out", "video_id", videoID, "comment_id", comment.ID, "delivered", delivered)
	return delivered
}
