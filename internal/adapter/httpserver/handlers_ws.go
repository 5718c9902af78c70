package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/watchsync/internal/platform/errors"
)

func (s *Server) registerWebSocketRoutes() {
	var mw []echo.MiddlewareFunc
	if s.connLimits != nil {
		mw = append(mw, s.connLimits.Middleware())
	}
	if s.commentFeed != nil {
		s.echo.GET("/api/ws/comments/:video_id", s.serveSession(s.commentFeed), mw...)
	}
	if s.watchParty != nil {
		s.echo.GET("/api/ws/watchparty/:video_id", s.serveSession(s.watchParty), mw...)
	}
}

func (s *Server) serveSession(endpoint sessionEndpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := parseVideoID(c)
		if err != nil {
			return err
		}
		endpoint.Serve(c.Response(), c.Request(), videoID)
		return nil
	}
}

func parseVideoID(c echo.Context) (int64, error) {
	raw := c.Param("video_id")
	videoID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || videoID <= 0 {
		return 0, apperrors.ValidationError("invalid video id").WithField("video_id", raw)
	}
	return videoID, nil
}
