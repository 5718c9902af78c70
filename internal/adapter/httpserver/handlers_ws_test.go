package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebSocketRoutesPassVideoID(t *testing.T) {
	watchParty := &mockEndpoint{}
	commentFeed := &mockEndpoint{}
	srv := newTestServer(t, Deps{WatchParty: watchParty, CommentFeed: commentFeed})

	for _, path := range []string{"/api/ws/watchparty/7", "/api/ws/comments/8"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSwitchingProtocols, rec.Code, path)
	}

	assert.Equal(t, []int64{7}, watchParty.calls)
	assert.Equal(t, []int64{8}, commentFeed.calls)
}

func TestWebSocketRoutesRejectInvalidVideoID(t *testing.T) {
	tests := []string{"/api/ws/watchparty/abc", "/api/ws/watchparty/0", "/api/ws/comments/-3"}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			watchParty := &mockEndpoint{}
			srv := newTestServer(t, Deps{WatchParty: watchParty, CommentFeed: watchParty})

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, watchParty.calls)
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t, Deps{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("watchsync_up 1\n"))
	})})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "watchsync_up")
}
