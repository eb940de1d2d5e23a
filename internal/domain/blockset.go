package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidEdit = errors.New("time edit must carry zero or two times")

type blockKey struct {
	category Category
	day      DayOfWeek
}

// BlockSet holds the weekly time blocks of one subject. There is at most
// one interval per (category, day): a second upsert for the same key
// replaces the first, so split sessions on one day cannot be represented.
//
// Start-before-end is enforced here rather than left to callers.
//
// The zero value is an empty set ready to use.
type BlockSet struct {
	blocks map[blockKey]Span
}

func NewBlockSet(records ...TimeInterval) *BlockSet {
	s := &BlockSet{}
	s.Hydrate(records)
	return s
}

// Upsert inserts or replaces the interval for (category, day). Every other
// interval is left untouched.
func (s *BlockSet) Upsert(category Category, day DayOfWeek, start, end TimeOfDay) error {
	iv := TimeInterval{Category: category, Day: day, Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return err
	}
	if s.blocks == nil {
		s.blocks = make(map[blockKey]Span)
	}
	s.blocks[blockKey{category, day}] = iv.Span()
	return nil
}

// Remove deletes the interval for (category, day). Removing a missing key
// is a no-op.
func (s *BlockSet) Remove(category Category, day DayOfWeek) {
	if s == nil {
		return
	}
	delete(s.blocks, blockKey{category, day})
}

func (s *BlockSet) Get(category Category, day DayOfWeek) (Span, bool) {
	if s == nil {
		return Span{}, false
	}
	sp, ok := s.blocks[blockKey{category, day}]
	return sp, ok
}

func (s *BlockSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.blocks)
}

// FlatView returns the persistence shape. Records come out grouped by
// category and then in week order; callers should not rely on the order
// for anything but display.
func (s *BlockSet) FlatView() []TimeInterval {
	out := make([]TimeInterval, 0, s.Len())
	if s.Len() == 0 {
		return out
	}
	for _, c := range Categories() {
		for _, d := range Week() {
			sp, ok := s.blocks[blockKey{c, d}]
			if !ok {
				continue
			}
			out = append(out, TimeInterval{Category: c, Day: d, Start: sp.Start, End: sp.End})
		}
	}
	return out
}

// DayKeyed returns the week grid for one category. Days without an
// interval are absent from the map.
func (s *BlockSet) DayKeyed(category Category) map[DayOfWeek]Span {
	out := make(map[DayOfWeek]Span)
	if s == nil {
		return out
	}
	for k, sp := range s.blocks {
		if k.category == category {
			out[k.day] = sp
		}
	}
	return out
}

// Hydrate replaces the whole set with records from a persistence fetch.
// A nil or empty slice yields an empty set. Records that break the store
// invariants are dropped and returned so the caller can report them; for
// duplicate keys the last record wins, as with Upsert.
func (s *BlockSet) Hydrate(records []TimeInterval) (rejected []TimeInterval) {
	s.blocks = make(map[blockKey]Span, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			rejected = append(rejected, r)
			continue
		}
		s.blocks[blockKey{r.Category, r.Day}] = r.Span()
	}
	return rejected
}

func (s *BlockSet) Clone() *BlockSet {
	out := &BlockSet{blocks: make(map[blockKey]Span, s.Len())}
	if s == nil {
		return out
	}
	for k, v := range s.blocks {
		out.blocks[k] = v
	}
	return out
}

// Equal compares membership, ignoring order. A nil set equals an empty one.
func (s *BlockSet) Equal(o *BlockSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for k, v := range s.blocks {
		ov, ok := o.blocks[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// BlockEdit is one edit event from a week grid. An empty Value removes the
// interval for (Category, Day); a two element Value sets it.
type BlockEdit struct {
	Category Category    `json:"type"`
	Day      DayOfWeek   `json:"day"`
	Value    []TimeOfDay `json:"value"`
}

func (s *BlockSet) Apply(e BlockEdit) error {
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(e.Category))
	}
	if !e.Day.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDay, int(e.Day))
	}
	switch len(e.Value) {
	case 0:
		s.Remove(e.Category, e.Day)
		return nil
	case 2:
		return s.Upsert(e.Category, e.Day, e.Value[0], e.Value[1])
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidEdit, len(e.Value))
	}
}
