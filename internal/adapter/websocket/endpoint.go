package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	EndpointWatchParty = "watchparty"
	EndpointComments   = "comments"
)

// Endpoint upgrades HTTP requests into sessions sharing one SessionConfig.
type Endpoint struct {
	upgrader websocket.Upgrader
	cfg      SessionConfig
}

func NewEndpoint(cfg SessionConfig, checkOrigin func(r *http.Request) bool) *Endpoint {
	cfg.withDefaults()
	return &Endpoint{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		cfg: cfg,
	}
}

// Serve upgrades the request and blocks until the session ends. The session stops
// when the request context is cancelled.
func (e *Endpoint) Serve(w http.ResponseWriter, r *http.Request, videoID int64) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.WarnContext(r.Context(), "WebSocket upgrade failed", "endpoint", e.cfg.Endpoint, "error", err)
		return
	}

	newSession(conn, videoID, &e.cfg).Run(r.Context())
}
