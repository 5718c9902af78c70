package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/watchsync/internal/domain"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CommentRepository = (*CommentRepo)(nil)

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

const insertComment = `
INSERT INTO comments (video_id, user_id, content, video_time)
VALUES ($1, $2, $3, $4)
RETURNING id, video_id, user_id, content, video_time, created_at`

const listCommentsByVideo = `
SELECT id, video_id, user_id, content, video_time, created_at
FROM comments
WHERE video_id = $1
ORDER BY video_time, id`

func (r *CommentRepo) Create(ctx context.Context, c domain.NewComment) (*domain.Comment, error) {
	rows, err := r.pool.Query(ctx, insertComment, c.VideoID, c.UserID, c.Content, c.VideoTime)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	comment, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[commentRow])
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return comment.toDomain(), nil
}

func (r *CommentRepo) ListByVideo(ctx context.Context, videoID int64) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, listCommentsByVideo, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[commentRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(list))
	for _, row := range list {
		comments = append(comments, *row.toDomain())
	}
	return comments, nil
}
