package domain

import (
	"testing"
	"time"
)

func TestWeekOccurrences_ProjectsOntoWindow(t *testing.T) {
	var s BlockSet
	mustUpsert(t, &s, CategoryClassMeeting, Monday, "09:00", "10:00")
	mustUpsert(t, &s, CategoryOfficeHours, Wednesday, "14:00", "15:00")

	// Monday 2026-01-05 through Monday 2026-01-19 (exclusive)
	windowStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)

	occs, err := WeekOccurrences(42, &s, windowStart, windowEnd, time.UTC)
	if err != nil {
		t.Fatalf("WeekOccurrences error: %v", err)
	}
	if len(occs) != 4 {
		t.Fatalf("len(occs) = %d, want 4", len(occs))
	}
	for i := 1; i < len(occs); i++ {
		if !occs[i-1].StartTime.Before(occs[i].StartTime) {
			t.Fatalf("occurrences not sorted: %v then %v", occs[i-1].StartTime, occs[i].StartTime)
		}
	}
	first := occs[0]
	if !first.StartTime.Equal(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("first start = %v", first.StartTime)
	}
	if first.SubjectID != 42 || first.Category != CategoryClassMeeting {
		t.Fatalf("first occurrence = %+v", first)
	}
}

func TestWeekOccurrences_KeepsLocalWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	var s BlockSet
	mustUpsert(t, &s, CategoryOfficeHours, Sunday, "10:00", "11:00")

	// DST starts 2026-03-08 in New York.
	windowStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	windowEnd := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)

	occs, err := WeekOccurrences(1, &s, windowStart, windowEnd, loc)
	if err != nil {
		t.Fatalf("WeekOccurrences error: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("len(occs) = %d, want 2", len(occs))
	}
	for _, o := range occs {
		if o.StartTime.In(loc).Hour() != 10 {
			t.Fatalf("local start hour = %d, want 10", o.StartTime.In(loc).Hour())
		}
	}
	if occs[0].StartTime.UTC().Hour() == occs[1].StartTime.UTC().Hour() {
		t.Fatalf("expected UTC hour to shift across DST")
	}
}

func TestWeekOccurrences_PartialOverlapAndEmpty(t *testing.T) {
	var s BlockSet
	mustUpsert(t, &s, CategoryClassMeeting, Monday, "09:00", "11:00")

	windowStart := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	occs, err := WeekOccurrences(1, &s, windowStart, windowEnd, time.UTC)
	if err != nil {
		t.Fatalf("WeekOccurrences error: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}

	occs, err = WeekOccurrences(1, &BlockSet{}, windowStart, windowEnd, time.UTC)
	if err != nil || len(occs) != 0 {
		t.Fatalf("empty set = %v, %v; want no occurrences", occs, err)
	}

	if _, err := WeekOccurrences(1, &s, windowEnd, windowStart, time.UTC); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}
