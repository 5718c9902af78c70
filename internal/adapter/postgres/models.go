package postgres

import (
	"time"

	"github.com/pscheid92/watchsync/internal/domain"
)

type commentRow struct {
	ID        int64
	VideoID   int64
	UserID    int64
	Content   string
	VideoTime int32
	CreatedAt time.Time
}

func (r commentRow) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:        r.ID,
		VideoID:   r.VideoID,
		UserID:    r.UserID,
		Content:   r.Content,
		VideoTime: int(r.VideoTime),
		CreatedAt: r.CreatedAt.UTC(),
	}
}
