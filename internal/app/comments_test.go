package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock CommentRepository ---

type mockCommentRepo struct {
	createFn      func(ctx context.Context, c domain.NewComment) (*domain.Comment, error)
	listByVideoFn func(ctx context.Context, videoID int64) ([]domain.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, c domain.NewComment) (*domain.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return &domain.Comment{
		ID:        1,
		VideoID:   c.VideoID,
		UserID:    c.UserID,
		Content:   c.Content,
		VideoTime: c.VideoTime,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockCommentRepo) ListByVideo(ctx context.Context, videoID int64) ([]domain.Comment, error) {
	if m.listByVideoFn != nil {
		return m.listByVideoFn(ctx, videoID)
	}
	return []domain.Comment{}, nil
}

// --- Mock CommentNotifier ---

type mockNotifier struct {
	calls []domain.Comment
}

func (m *mockNotifier) Notify(videoID int64, comment domain.Comment) int {
	m.calls = append(m.calls, comment)
	return 1
}

func TestPostComment_PersistsThenNotifies(t *testing.T) {
	notifier := &mockNotifier{}
	svc := NewComments(&mockCommentRepo{}, notifier)

	c, err := svc.PostComment(context.Background(), domain.NewComment{VideoID: 7, UserID: 3, Content: "  nice  ", VideoTime: 12})
	require.NoError(t, err)

	assert.Equal(t, "nice", c.Content)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, *c, notifier.calls[0])
}

func TestPostComment_RepoErrorSkipsNotify(t *testing.T) {
	notifier := &mockNotifier{}
	repo := &mockCommentRepo{createFn: func(context.Context, domain.NewComment) (*domain.Comment, error) {
		return nil, errors.New("db down")
	}}
	svc := NewComments(repo, notifier)

	_, err := svc.PostComment(context.Background(), domain.NewComment{VideoID: 7, UserID: 3, Content: "x"})
	require.Error(t, err)
	assert.Empty(t, notifier.calls)
}

func TestPostComment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.NewComment
		wantErr error
	}{
		{"empty text", domain.NewComment{VideoID: 7, Content: "   "}, domain.ErrEmptyComment},
		{"bad video", domain.NewComment{VideoID: 0, Content: "x"}, domain.ErrInvalidVideoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			_, err := NewComments(&mockCommentRepo{}, notifier).PostComment(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, notifier.calls)
		})
	}
}

func TestPostComment_TooLong(t *testing.T) {
	svc := NewComments(&mockCommentRepo{}, &mockNotifier{})
	_, err := svc.PostComment(context.Background(), domain.NewComment{VideoID: 7, Content: strings.Repeat("a", maxCommentLength+1)})
	assert.ErrorIs(t, err, domain.ErrCommentTooLong)
}

func TestPostComment_NegativeVideoTimeClamped(t *testing.T) {
	svc := NewComments(&mockCommentRepo{}, &mockNotifier{})
	c, err := svc.PostComment(context.Background(), domain.NewComment{VideoID: 7, Content: "x", VideoTime: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, c.VideoTime)
}

func TestListComments(t *testing.T) {
	repo := &mockCommentRepo{listByVideoFn: func(_ context.Context, videoID int64) ([]domain.Comment, error) {
		return []domain.Comment{{ID: 1, VideoID: videoID}}, nil
	}}
	svc := NewComments(repo, &mockNotifier{})

	comments, err := svc.ListComments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(7), comments[0].VideoID)

	_, err = svc.ListComments(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidVideoID)
}
