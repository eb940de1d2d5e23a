package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidInterval = errors.New("start must be before end")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownDay      = errors.New("unknown day of week")
	ErrInvalidTime     = errors.New("invalid time of day")
)

// Category names which of a subject's two weekly schedules an interval
// belongs to. The string values are the ones stored and sent on the wire.
type Category string

const (
	CategoryClassMeeting Category = "class_times"
	CategoryOfficeHours  Category = "office_hours"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{CategoryClassMeeting, CategoryOfficeHours}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryClassMeeting, CategoryOfficeHours:
		return true
	default:
		return false
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "class", "class_meeting", "class_time":
		c = CategoryClassMeeting
	case "office", "office_hour":
		c = CategoryOfficeHours
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// DayOfWeek uses ISO numbering, Monday=1 through Sunday=7.
type DayOfWeek int16

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Week returns the days in canonical display order.
func Week() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return "DayOfWeek(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d]
}

// Weekday converts to the standard library's Sunday-first numbering.
func (d DayOfWeek) Weekday() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

func DayFromWeekday(wd time.Weekday) DayOfWeek {
	if wd == time.Sunday {
		return Sunday
	}
	return DayOfWeek(wd)
}

// ParseDayOfWeek accepts full names, three letter abbreviations and the
// ISO numbers 1-7.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		d := DayOfWeek(n)
		if d.Valid() {
			return d, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownDay, s)
	}
	for _, d := range Week() {
		name := strings.ToLower(dayNames[d])
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

func (d DayOfWeek) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDay, int(d))
	}
	return []byte(dayNames[d]), nil
}

func (d *DayOfWeek) UnmarshalText(b []byte) error {
	v, err := ParseDayOfWeek(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// TimeOfDay is a wall-clock time with minute precision. It carries no date
// and no timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return t, nil
}

// MustTimeOfDay is NewTimeOfDay for constants and tests.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay reads "HH:MM" or "HH:MM:SS" (seconds and any fractional
// part are dropped, as Postgres renders time columns that way).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	v := strings.TrimSpace(s)
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(h, m)
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places the time of day on the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, t.Hour, t.Minute)
	}
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Span is the start/end pair shown for one day of a week grid.
type Span struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// TimeInterval is one recurring weekly block: a single span on one day for
// one category.
type TimeInterval struct {
	Category Category  `json:"type"`
	Day      DayOfWeek `json:"day"`
	Start    TimeOfDay `json:"start_time"`
	End      TimeOfDay `json:"end_time"`
}

// Validate checks the interval against the store's invariants.
func (i TimeInterval) Validate() error {
	if !i.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(i.Category))
	}
	if !i.Day.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDay, int(i.Day))
	}
	if !i.Start.Valid() || !i.End.Valid() {
		return ErrInvalidTime
	}
	if !i.Start.Before(i.End) {
		return fmt.Errorf("%w: %s-%s on %s", ErrInvalidInterval, i.Start, i.End, i.Day)
	}
	return nil
}

func (i TimeInterval) Span() Span {
	return Span{Start: i.Start, End: i.End}
}
