package domain

import "time"

// Origin tells whether a displayed event was created by this system or
// imported from a third-party calendar.
type Origin string

const (
	OriginFirstParty Origin = "first_party"
	OriginThirdParty Origin = "third_party"
)

// CalendarEvent is the uniform display shape every provider entry is
// normalized into. Values are built fresh on each fetch and never stored.
type CalendarEvent struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"allDay"`
	Origin Origin    `json:"origin"`
}

// EventTime mirrors the provider's start/end object: Date is set for
// all-day entries ("2006-01-02"), DateTime for timed ones (RFC 3339).
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// RawEvent is a third-party calendar entry as received. Start and End may
// be missing; Private holds the provider's private extended properties.
type RawEvent struct {
	ID      string            `json:"id"`
	Summary string            `json:"summary"`
	Start   *EventTime        `json:"start,omitempty"`
	End     *EventTime        `json:"end,omitempty"`
	Private map[string]string `json:"private,omitempty"`
}
