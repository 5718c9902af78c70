package httpserver

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/pscheid92/watchsync/internal/platform/config"
)

// --- Mock implementations ---

type mockCommentService struct {
	postCommentFn  func(ctx context.Context, c domain.NewComment) (*domain.Comment, error)
	listCommentsFn func(ctx context.Context, videoID int64) ([]domain.Comment, error)
}

func (m *mockCommentService) PostComment(ctx context.Context, c domain.NewComment) (*domain.Comment, error) {
	if m.postCommentFn != nil {
		return m.postCommentFn(ctx, c)
	}
	return &domain.Comment{
		ID:        1,
		VideoID:   c.VideoID,
		UserID:    c.UserID,
		Content:   c.Content,
		VideoTime: c.VideoTime,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockCommentService) ListComments(ctx context.Context, videoID int64) ([]domain.Comment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, videoID)
	}
	return []domain.Comment{}, nil
}

// mockVerifier accepts "token-<n>" for user ids 1..9.
type mockVerifier struct{}

func (mockVerifier) Verify(token string) (int64, error) {
	if len(token) == len("token-1") && token[:6] == "token-" && token[6] >= '1' && token[6] <= '9' {
		return int64(token[6] - '0'), nil
	}
	return 0, domain.ErrInvalidToken
}

type mockEndpoint struct {
	mu    sync.Mutex
	calls []int64
}

func (m *mockEndpoint) Serve(w http.ResponseWriter, _ *http.Request, videoID int64) {
	m.mu.Lock()
	m.calls = append(m.calls, videoID)
	m.mu.Unlock()
	w.WriteHeader(http.StatusSwitchingProtocols)
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		CORSAllowedOrigins: "http://localhost:3000",
		InstanceID:         "instance-test",
		CommentRateLimit:   100,
		CommentRateBurst:   100,
	}
}

func newTestServer(t *testing.T, deps Deps, opts ...func(*config.Config)) *Server {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if deps.Verifier == nil {
		deps.Verifier = mockVerifier{}
	}

	return NewServer(context.Background(), cfg, deps)
}
