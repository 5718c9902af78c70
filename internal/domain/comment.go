package domain

import (
	"context"
	"time"
)

// Comment is a persisted, time-anchored remark on a video. Immutable once stored.
type Comment struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"video_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	VideoTime int       `json:"video_time"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment carries the fields a client supplies when posting.
type NewComment struct {
	VideoID   int64
	UserID    int64
	Content   string
	VideoTime int
}

// CommentRepository persists comments.
type CommentRepository interface {
	Create(ctx context.Context, c NewComment) (*Comment, error)
	ListByVideo(ctx context.Context, videoID int64) ([]Comment, error)
}

// CommentNotifier pushes a persisted comment to live viewers of its video.
// Returns the number of viewers the comment was queued for.
type CommentNotifier interface {
	Notify(videoID int64, comment Comment) int
}

// CommentService is the use case behind the comment HTTP endpoints.
type CommentService interface {
	PostComment(ctx context.Context, c NewComment) (*Comment, error)
	ListComments(ctx context.Context, videoID int64) ([]Comment, error)
}
