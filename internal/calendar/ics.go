package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"mentorweb/backend/internal/domain"
)

// ICSFeed reads events from a published iCalendar feed. Feed entries never
// carry the origin flag, so they always normalize as third-party.
type ICSFeed struct {
	Name   string
	URL    string
	client *http.Client
}

func NewICSFeed(name, url string, client *http.Client) *ICSFeed {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ICSFeed{Name: name, URL: url, client: client}
}

func (f *ICSFeed) Events(ctx context.Context, w Window) ([]domain.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build ics request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics feed %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if authErr := statusError(resp.StatusCode); authErr != nil {
		return nil, fmt.Errorf("%w: ics feed %s", authErr, f.Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics feed %s returned status %d", f.Name, resp.StatusCode)
	}

	cal, err := ical.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse ics feed %s: %w", f.Name, err)
	}

	events := cal.Events()
	out := make([]domain.RawEvent, 0, len(events))
	for _, ve := range events {
		out = append(out, fromVEvent(ve))
	}
	return out, nil
}

// fromVEvent keeps date-only DTSTART/DTEND values as dates so the
// normalizer applies the all-day rule. A value it cannot read is left
// empty and the normalizer rejects the entry.
func fromVEvent(ve *ical.VEvent) domain.RawEvent {
	raw := domain.RawEvent{}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		raw.ID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		raw.Summary = p.Value
	}
	raw.Start = icsTime(ve.GetProperty(ical.ComponentPropertyDtStart), func() (time.Time, error) { return ve.GetStartAt() })
	raw.End = icsTime(ve.GetProperty(ical.ComponentPropertyDtEnd), func() (time.Time, error) { return ve.GetEndAt() })
	return raw
}

func icsTime(p *ical.IANAProperty, at func() (time.Time, error)) *domain.EventTime {
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return nil
	}
	if isDateValue(p) {
		d, err := time.Parse("20060102", strings.TrimSpace(p.Value))
		if err != nil {
			return &domain.EventTime{}
		}
		return &domain.EventTime{Date: d.Format(dateLayout)}
	}
	t, err := at()
	if err != nil {
		return &domain.EventTime{}
	}
	return &domain.EventTime{DateTime: t.Format(time.RFC3339)}
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}
