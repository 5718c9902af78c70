package httpserver

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/watchsync/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits per authenticated user, falling back to the client IP
// when no user id was stored on the context.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if userID, ok := c.Get("userID").(int64); ok {
				return fmt.Sprintf("user:%d", userID), nil
			}
			return "ip:" + c.RealIP(), nil
		},
		Store: store,
		// echo hands a DenyHandler's error to c.Error rather than back up the chain,
		// so the response is rendered here.
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			limited := apperrors.RateLimitedError("rate limit exceeded").WithField("identifier", identifier)
			logError(c, limited)
			if err := c.JSON(limited.HTTPStatus(), limited.ToResponse()); err != nil {
				return fmt.Errorf("failed to write rate limit response: %w", err)
			}
			return nil
		},
	})
}
