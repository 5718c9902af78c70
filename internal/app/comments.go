package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/pscheid92/watchsync/internal/domain"
)

const maxCommentLength = 2000

type Comments struct {
	repo     domain.CommentRepository
	notifier domain.CommentNotifier
}

var _ domain.CommentService = (*Comments)(nil)

func NewComments(repo domain.CommentRepository, notifier domain.CommentNotifier) *Comments {
	return &Comments{repo: repo, notifier: notifier}
}

// PostComment persists c and queues it for the video's live viewers. It returns as soon
// as the comment is stored; delivery to viewers is best-effort and never awaited.
func (s *Comments) PostComment(ctx context.Context, c domain.NewComment) (*domain.Comment, error) {
	if c.VideoID <= 0 {
		return nil, domain.ErrInvalidVideoID
	}
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return nil, domain.ErrEmptyComment
	}
	if len(c.Content) > maxCommentLength {
		return nil, domain.ErrCommentTooLong
	}
	if c.VideoTime < 0 {
		c.VideoTime = 0
	}

	comment, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	s.notifier.Notify(comment.VideoID, *comment)
	return comment, nil
}

func (s *Comments) ListComments(ctx context.Context, videoID int64) ([]domain.Comment, error) {
	if videoID <= 0 {
		return nil, domain.ErrInvalidVideoID
	}
	comments, err := s.repo.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
