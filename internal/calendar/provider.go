package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mentorweb/backend/internal/domain"
)

var (
	// ErrUnauthenticated means the provider has not been authorized yet.
	ErrUnauthenticated = errors.New("calendar provider: not authorized")
	// ErrForbidden means the provider refused access outright.
	ErrForbidden = errors.New("calendar provider: access denied")
)

// Window bounds a fetch. Zero values leave that side open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Provider fetches raw events from one third-party calendar.
type Provider interface {
	Events(ctx context.Context, w Window) ([]domain.RawEvent, error)
}

// statusError maps provider HTTP statuses onto the authorization errors;
// any other status yields nil.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return nil
	}
}
