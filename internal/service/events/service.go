package events

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/domain"
)

// Feed is a named provider, such as a published iCalendar URL.
type Feed struct {
	Name     string
	Provider calendar.Provider
}

type Service struct {
	normalizer *calendar.Normalizer
	log        *slog.Logger
}

func NewService(normalizer *calendar.Normalizer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{normalizer: normalizer, log: log.With("component", "events")}
}

// List fetches and normalizes one provider's events, ordered by start.
// Provider errors are returned unchanged so callers can tell
// calendar.ErrUnauthenticated and calendar.ErrForbidden apart.
func (s *Service) List(ctx context.Context, p calendar.Provider, w calendar.Window) ([]domain.CalendarEvent, error) {
	raws, err := p.Events(ctx, w)
	if err != nil {
		return nil, err
	}
	out, _ := s.normalizer.NormalizeAll(raws)
	sortByStart(out)
	return out, nil
}

// ListFeeds merges several feeds. A feed that fails is logged and left out;
// the others are still returned. Events outside w are dropped.
func (s *Service) ListFeeds(ctx context.Context, feeds []Feed, w calendar.Window) []domain.CalendarEvent {
	results := make([][]domain.CalendarEvent, len(feeds))

	var wg sync.WaitGroup
	for i, f := range feeds {
		wg.Add(1)
		go func(i int, f Feed) {
			defer wg.Done()
			evs, err := s.List(ctx, f.Provider, w)
			if err != nil {
				s.log.Warn("calendar feed skipped", "feed", f.Name, "error", err)
				return
			}
			results[i] = evs
		}(i, f)
	}
	wg.Wait()

	var out []domain.CalendarEvent
	for _, evs := range results {
		for _, ev := range evs {
			if inWindow(ev, w) {
				out = append(out, ev)
			}
		}
	}
	sortByStart(out)
	return out
}

func inWindow(ev domain.CalendarEvent, w calendar.Window) bool {
	if !w.End.IsZero() && !ev.Start.Before(w.End) {
		return false
	}
	if !w.Start.IsZero() && ev.End.Before(w.Start) {
		return false
	}
	return true
}

func sortByStart(evs []domain.CalendarEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Start.Before(evs[j].Start)
	})
}
