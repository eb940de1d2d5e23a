package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/domain"
)

type fakeProvider struct {
	eventsFn func(ctx context.Context, w calendar.Window) ([]domain.RawEvent, error)
}

func (f *fakeProvider) Events(ctx context.Context, w calendar.Window) ([]domain.RawEvent, error) {
	if f.eventsFn == nil {
		panic("Events not configured")
	}
	return f.eventsFn(ctx, w)
}

func returning(raws ...domain.RawEvent) *fakeProvider {
	return &fakeProvider{eventsFn: func(ctx context.Context, w calendar.Window) ([]domain.RawEvent, error) {
		return raws, nil
	}}
}

func failing(err error) *fakeProvider {
	return &fakeProvider{eventsFn: func(ctx context.Context, w calendar.Window) ([]domain.RawEvent, error) {
		return nil, err
	}}
}

func timed(id, start, end string) domain.RawEvent {
	return domain.RawEvent{ID: id, Start: &domain.EventTime{DateTime: start}, End: &domain.EventTime{DateTime: end}}
}

func newTestService() *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(calendar.NewNormalizer(time.UTC, log), log)
}

func TestServiceList_SortsAndSkipsMalformed(t *testing.T) {
	svc := newTestService()
	p := returning(
		timed("late", "2024-06-10T15:00:00Z", "2024-06-10T16:00:00Z"),
		domain.RawEvent{ID: "broken"},
		timed("early", "2024-06-10T08:00:00Z", "2024-06-10T09:00:00Z"),
	)

	evs, err := svc.List(context.Background(), p, calendar.Window{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("len(evs) = %d, want 2", len(evs))
	}
	if evs[0].ID != "early" || evs[1].ID != "late" {
		t.Fatalf("order = %s, %s", evs[0].ID, evs[1].ID)
	}
}

func TestServiceList_PropagatesAuthorizationErrors(t *testing.T) {
	svc := newTestService()
	for _, want := range []error{calendar.ErrUnauthenticated, calendar.ErrForbidden} {
		_, err := svc.List(context.Background(), failing(want), calendar.Window{})
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, want %v", err, want)
		}
	}
}

func TestServiceListFeeds_SkipsFailingFeeds(t *testing.T) {
	svc := newTestService()
	feeds := []Feed{
		{Name: "dept", Provider: returning(timed("a", "2024-06-11T10:00:00Z", "2024-06-11T11:00:00Z"))},
		{Name: "down", Provider: failing(errors.New("connection refused"))},
		{Name: "club", Provider: returning(
			timed("b", "2024-06-10T10:00:00Z", "2024-06-10T11:00:00Z"),
			timed("outside", "2024-07-10T10:00:00Z", "2024-07-10T11:00:00Z"),
		)},
	}

	w := calendar.Window{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	evs := svc.ListFeeds(context.Background(), feeds, w)
	if len(evs) != 2 {
		t.Fatalf("len(evs) = %d, want 2", len(evs))
	}
	if evs[0].ID != "b" || evs[1].ID != "a" {
		t.Fatalf("order = %s, %s", evs[0].ID, evs[1].ID)
	}
	for _, ev := range evs {
		if ev.Origin != domain.OriginThirdParty {
			t.Fatalf("origin = %s, want %s", ev.Origin, domain.OriginThirdParty)
		}
	}
}
