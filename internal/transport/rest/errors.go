package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/domain"
	"mentorweb/backend/internal/service/editing"
	"mentorweb/backend/internal/service/schedules"
	"mentorweb/backend/internal/store"
)

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(c *gin.Context, err error) {
	var vErr *schedules.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrUnknownDay),
		errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrInvalidEdit),
		errors.Is(err, domain.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		s.log.Info("not found", slog.String("route", c.FullPath()), slog.String("owner_id", ownerID(c)))
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, editing.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, store.ErrConflict):
		s.log.Info("conflict", slog.String("route", c.FullPath()), slog.String("owner_id", ownerID(c)))
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting change, reload and try again"})
	case errors.Is(err, editing.ErrNoSubject), errors.Is(err, editing.ErrNotLoaded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, calendar.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "calendar not authorized"})
	case errors.Is(err, calendar.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "calendar access denied", "redirect": s.UnauthorizedURL})
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn("request timed out", slog.String("route", c.FullPath()))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		s.log.Error("request failed", slog.String("route", c.FullPath()), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
