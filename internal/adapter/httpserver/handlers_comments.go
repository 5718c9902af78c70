package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/watchsync/internal/domain"
	apperrors "github.com/pscheid92/watchsync/internal/platform/errors"
)

type postCommentRequest struct {
	Text      string `json:"text"`
	VideoTime int    `json:"videoTime"`
}

func (s *Server) registerCommentRoutes() {
	if s.comments == nil {
		return
	}
	limiter := newRateLimiter(s.config.CommentRateLimit, s.config.CommentRateBurst)
	s.echo.GET("/api/comments/:video_id", s.handleListComments)
	s.echo.POST("/api/comments/:video_id", s.handlePostComment, s.requireBearer, limiter)
}

// requireBearer verifies the Authorization header and stores the user id under "userID".
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return apperrors.UnauthorizedError("missing bearer token", nil)
		}

		userID, err := s.verifier.Verify(token)
		if err != nil {
			return apperrors.UnauthorizedError("invalid token", err)
		}

		c.Set("userID", userID)
		return next(c)
	}
}

func (s *Server) handlePostComment(c echo.Context) error {
	ctx := c.Request().Context()

	videoID, err := parseVideoID(c)
	if err != nil {
		return err
	}

	userID, ok := c.Get("userID").(int64)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	var req postCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	comment, err := s.comments.PostComment(ctx, domain.NewComment{
		VideoID:   videoID,
		UserID:    userID,
		Content:   req.Text,
		VideoTime: req.VideoTime,
	})
	if errors.Is(err, domain.ErrEmptyComment) || errors.Is(err, domain.ErrCommentTooLong) || errors.Is(err, domain.ErrInvalidVideoID) {
		return apperrors.ValidationError(err.Error()).WithField("video_id", videoID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to post comment", "error", err, "video_id", videoID, "user_id", userID)
		return apperrors.InternalError("failed to post comment", err).WithField("video_id", videoID)
	}

	if err := c.JSON(http.StatusOK, comment); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListComments(c echo.Context) error {
	ctx := c.Request().Context()

	videoID, err := parseVideoID(c)
	if err != nil {
		return err
	}

	comments, err := s.comments.ListComments(ctx, videoID)
	if err != nil {
		return apperrors.InternalError("failed to list comments", err).WithField("video_id", videoID)
	}

	if err := c.JSON(http.StatusOK, comments); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
