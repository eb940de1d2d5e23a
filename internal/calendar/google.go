package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"mentorweb/backend/internal/domain"
)

const googleMaxResults = 250

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CalendarID   string
}

// Google holds the OAuth2 client configuration for Google Calendar.
type Google struct {
	oauth      *oauth2.Config
	calendarID string
	endpoint   string
}

// NewGoogle returns nil when the OAuth2 client is not configured.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil
	}
	calendarID := strings.TrimSpace(cfg.CalendarID)
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gcal.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		calendarID: calendarID,
	}
}

func (g *Google) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *Google) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// ForToken returns a provider that reads the user's calendar with tok.
func (g *Google) ForToken(ctx context.Context, tok *oauth2.Token) Provider {
	return &googleProvider{g: g, client: g.oauth.Client(ctx, tok)}
}

type googleProvider struct {
	g      *Google
	client *http.Client
}

func (p *googleProvider) Events(ctx context.Context, w Window) ([]domain.RawEvent, error) {
	opts := []option.ClientOption{option.WithHTTPClient(p.client)}
	if p.g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.g.endpoint))
	}
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	call := srv.Events.List(p.g.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(googleMaxResults)
	if !w.Start.IsZero() {
		call = call.TimeMin(w.Start.Format(time.RFC3339))
	}
	if !w.End.IsZero() {
		call = call.TimeMax(w.End.Format(time.RFC3339))
	}

	var out []domain.RawEvent
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			out = append(out, fromGoogleEvent(item))
		}
		return nil
	})
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			if authErr := statusError(gErr.Code); authErr != nil {
				return nil, fmt.Errorf("%w: %s", authErr, gErr.Message)
			}
		}
		return nil, fmt.Errorf("list google events: %w", err)
	}
	return out, nil
}

func fromGoogleEvent(item *gcal.Event) domain.RawEvent {
	raw := domain.RawEvent{
		ID:      item.Id,
		Summary: item.Summary,
		Start:   fromGoogleTime(item.Start),
		End:     fromGoogleTime(item.End),
	}
	if item.ExtendedProperties != nil && len(item.ExtendedProperties.Private) > 0 {
		raw.Private = make(map[string]string, len(item.ExtendedProperties.Private))
		for k, v := range item.ExtendedProperties.Private {
			raw.Private[k] = v
		}
	}
	return raw
}

func fromGoogleTime(t *gcal.EventDateTime) *domain.EventTime {
	if t == nil {
		return nil
	}
	return &domain.EventTime{Date: t.Date, DateTime: t.DateTime, TimeZone: t.TimeZone}
}
