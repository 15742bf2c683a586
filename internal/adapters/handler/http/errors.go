package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

const dateLayout = "2006-01-02"

func abortWithError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// handleError maps a service error to its HTTP status by error kind.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrValidation):
		abortWithError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		slog.Error("store unavailable", "component", "http", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable")
	default:
		_ = c.Error(err)
		slog.Error("request failed", "component", "http", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func badRequest(c *gin.Context, msg string) {
	abortWithError(c, http.StatusBadRequest, "validation_error", msg)
}

func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return "", false
	}
	return userID, true
}

// resolveDay reads the optional tz and date query parameters. The date is a
// calendar day in that zone and defaults to the current day there.
func resolveDay(c *gin.Context, fallback *time.Location, now time.Time) (time.Time, *time.Location, bool) {
	loc := fallback
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			badRequest(c, "invalid tz, expected an IANA zone name")
			return time.Time{}, nil, false
		}
		loc = l
	}

	today := now.In(loc)
	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			badRequest(c, "invalid date format, expected YYYY-MM-DD")
			return time.Time{}, nil, false
		}
		today = d.Add(12 * time.Hour)
	}
	return today, loc, true
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
