// Package calendar turns third-party calendar entries into the uniform
// event shape used for display, and fetches those entries from providers.
package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentorweb/backend/internal/domain"
)

// OriginFlag is the private extended property that marks events this
// system created. The provider stores it as text, so the comparison is
// against the literal string, never a parsed boolean.
const (
	OriginFlag     = "isGoogleEvent"
	OriginFlagTrue = "true"
)

const dateLayout = "2006-01-02"

var ErrMalformedEvent = errors.New("malformed calendar event")

// Normalizer converts raw provider events. All-day dates are placed at
// midnight in a single reference location; no per-event timezone lookup
// is done. It holds no state between calls.
type Normalizer struct {
	loc *time.Location
	log *slog.Logger
}

func NewNormalizer(loc *time.Location, log *slog.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		loc: loc,
		log: log.With(slog.String("component", "calendar.normalizer")),
	}
}

// Normalize converts one raw event.
//
// All-day entries carry date-only bounds with an exclusive end. The start
// is shifted forward one day (so a grid expecting inclusive dates does not
// draw it a day early) and the end is used as-is, both at midnight in the
// reference location. Timed entries are parsed without adjustment.
func (n *Normalizer) Normalize(raw domain.RawEvent) (domain.CalendarEvent, error) {
	ev := domain.CalendarEvent{
		ID:     raw.ID,
		Title:  raw.Summary,
		Origin: originOf(raw.Private),
	}

	switch {
	case raw.Start != nil && raw.Start.Date != "":
		start, err := time.ParseInLocation(dateLayout, raw.Start.Date, n.loc)
		if err != nil {
			return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q start date: %v", ErrMalformedEvent, raw.ID, err)
		}
		end := start.AddDate(0, 0, 1)
		if raw.End != nil && raw.End.Date != "" {
			end, err = time.ParseInLocation(dateLayout, raw.End.Date, n.loc)
			if err != nil {
				return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q end date: %v", ErrMalformedEvent, raw.ID, err)
			}
		}
		ev.Start = start.AddDate(0, 0, 1)
		ev.End = end
		ev.AllDay = true

	case raw.Start != nil && raw.Start.DateTime != "":
		if raw.End == nil || raw.End.DateTime == "" {
			return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q timed event without end", ErrMalformedEvent, raw.ID)
		}
		start, err := time.Parse(time.RFC3339, raw.Start.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q start: %v", ErrMalformedEvent, raw.ID, err)
		}
		end, err := time.Parse(time.RFC3339, raw.End.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q end: %v", ErrMalformedEvent, raw.ID, err)
		}
		ev.Start = start
		ev.End = end

	default:
		return domain.CalendarEvent{}, fmt.Errorf("%w: id=%q has neither date nor dateTime", ErrMalformedEvent, raw.ID)
	}

	return ev, nil
}

// NormalizeAll converts a batch. A malformed entry is skipped and logged;
// the rest of the batch is still returned. The returned errors describe
// the skipped entries.
func (n *Normalizer) NormalizeAll(raws []domain.RawEvent) ([]domain.CalendarEvent, []error) {
	out := make([]domain.CalendarEvent, 0, len(raws))
	var skipped []error
	for _, raw := range raws {
		ev, err := n.Normalize(raw)
		if err != nil {
			n.log.Warn("calendar event skipped", slog.String("event_id", raw.ID), slog.Any("err", err))
			skipped = append(skipped, err)
			continue
		}
		out = append(out, ev)
	}
	return out, skipped
}

func originOf(private map[string]string) domain.Origin {
	if private[OriginFlag] == OriginFlagTrue {
		return domain.OriginFirstParty
	}
	return domain.OriginThirdParty
}
