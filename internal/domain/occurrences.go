package domain

import (
	"errors"
	"sort"
	"strconv"
	"time"
)

// Occurrence is one weekly block placed on a concrete date.
type Occurrence struct {
	ID        string    `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Category  Category  `json:"type"`
	Day       DayOfWeek `json:"day"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
}

// WeekOccurrences lays the block set onto every week that touches
// [windowStart, windowEnd) in loc and keeps the occurrences overlapping the
// window. Wall-clock times are interpreted in loc, so a block keeps its
// local time across DST changes. Output is sorted by start time.
func WeekOccurrences(subjectID int64, set *BlockSet, windowStart, windowEnd time.Time, loc *time.Location) ([]Occurrence, error) {
	if loc == nil {
		return nil, errors.New("location is required")
	}
	if !windowEnd.After(windowStart) {
		return nil, errors.New("window_end must be after window_start")
	}
	if set.Len() == 0 {
		return nil, nil
	}

	records := set.FlatView()
	firstMonday := mondayDate(windowStart.In(loc))
	lastMonday := mondayDate(windowEnd.In(loc))

	out := make([]Occurrence, 0, len(records))
	for week := firstMonday; !week.After(lastMonday); week = week.AddDate(0, 0, 7) {
		for _, r := range records {
			date := week.AddDate(0, 0, weekdayOffsetFromMonday(r.Day))
			start := r.Start.On(date, loc)
			end := r.End.On(date, loc)
			if !start.Before(windowEnd) || !end.After(windowStart) {
				continue
			}
			out = append(out, Occurrence{
				ID:        string(r.Category) + ":" + strconv.FormatInt(start.UTC().Unix(), 10),
				SubjectID: subjectID,
				Category:  r.Category,
				Day:       r.Day,
				StartTime: start,
				EndTime:   end,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// mondayDate returns midnight of the Monday starting t's week, as a plain
// calendar date in UTC.
func mondayDate(t time.Time) time.Time {
	offset := weekdayOffsetFromMonday(DayFromWeekday(t.Weekday()))
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -offset)
}

func weekdayOffsetFromMonday(d DayOfWeek) int {
	return int(d) - 1
}
