package editing

import (
	"errors"
	"sync"
	"time"

	"mentorweb/backend/internal/domain"
)

var (
	ErrNoSubject       = errors.New("no subject selected")
	ErrNotLoaded       = errors.New("subject is still loading")
	ErrSessionNotFound = errors.New("session not found")
)

// Ticket identifies one subject selection. Load and save results carry the
// ticket they were started under and are applied only while it is current.
type Ticket struct {
	SubjectID  int64
	Generation uint64
}

// Session is one mentor's editing context: the selected subject, its edit
// buffer and the last saved baseline. All methods are safe for concurrent
// use.
type Session struct {
	ID      string
	OwnerID string

	mu         sync.Mutex
	tracker    *domain.ChangeTracker[domain.Draft]
	subjectID  int64
	generation uint64
	loaded     bool
	current    domain.Draft
	baseline   domain.Draft
	changed    bool
	lastUsed   time.Time
}

func NewSession(id, ownerID string) *Session {
	return &Session{
		ID:       id,
		OwnerID:  ownerID,
		tracker:  domain.NewDraftTracker(),
		current:  domain.NewDraft(domain.SubjectFields{}, nil),
		baseline: domain.NewDraft(domain.SubjectFields{}, nil),
		lastUsed: time.Now(),
	}
}

// Select switches the session to subjectID. Everything started under an
// earlier ticket becomes stale.
func (s *Session) Select(subjectID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.generation++
	s.subjectID = subjectID
	s.loaded = false
	s.current = domain.NewDraft(domain.SubjectFields{}, nil)
	s.baseline = domain.NewDraft(domain.SubjectFields{}, nil)
	s.changed = false
	return Ticket{SubjectID: subjectID, Generation: s.generation}
}

func (s *Session) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCurrent(t)
}

func (s *Session) isCurrent(t Ticket) bool {
	return s.subjectID != 0 && t.SubjectID == s.subjectID && t.Generation == s.generation
}

// Hydrate installs a fetch result as both buffer and baseline. It reports
// false and changes nothing when t is stale. Records the block store
// refuses are returned.
func (s *Session) Hydrate(t Ticket, fields domain.SubjectFields, blocks []domain.TimeInterval) (applied bool, rejected []domain.TimeInterval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(t) {
		return false, nil
	}

	set := &domain.BlockSet{}
	rejected = set.Hydrate(blocks)
	s.baseline = domain.Draft{Fields: fields, Blocks: set}
	s.current = s.baseline.Clone()
	s.changed = false
	s.loaded = true
	return true, rejected
}

// Rebase installs a refetch taken after saving saved. The fetched data
// becomes the baseline. The buffer is replaced too unless it was edited
// while the save was in flight; such edits are kept and stay flagged as
// changes. It reports false and changes nothing when t is stale.
func (s *Session) Rebase(t Ticket, saved domain.Draft, fields domain.SubjectFields, blocks []domain.TimeInterval) (applied bool, rejected []domain.TimeInterval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(t) {
		return false, nil
	}

	set := &domain.BlockSet{}
	rejected = set.Hydrate(blocks)
	s.baseline = domain.Draft{Fields: fields, Blocks: set}
	if !s.tracker.Recompute(s.current, saved) {
		s.current = s.baseline.Clone()
	}
	s.changed = s.tracker.Recompute(s.current, s.baseline)
	s.loaded = true
	return true, rejected
}

// Snapshot returns the current ticket and a copy of the edit buffer for a
// save.
func (s *Session) Snapshot() (Ticket, domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return Ticket{}, domain.Draft{}, err
	}
	s.touch()
	return Ticket{SubjectID: s.subjectID, Generation: s.generation}, s.current.Clone(), nil
}

// CommitSave makes saved the new baseline. Edits made while the save was in
// flight stay flagged as changes.
func (s *Session) CommitSave(t Ticket, saved domain.Draft) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(t) {
		return false
	}
	s.baseline = s.tracker.Commit(saved)
	s.changed = s.tracker.Recompute(s.current, s.baseline)
	return true
}

func (s *Session) EditField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.touch()

	if err := s.current.Fields.Set(name, value); err != nil {
		return err
	}
	s.changed = s.tracker.Recompute(s.current, s.baseline)
	return nil
}

// EditBlock applies one week-grid edit. A rejected edit leaves the buffer
// untouched.
func (s *Session) EditBlock(e domain.BlockEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.touch()

	if err := s.current.Blocks.Apply(e); err != nil {
		return err
	}
	s.changed = s.tracker.Recompute(s.current, s.baseline)
	return nil
}

// Discard throws away unsaved edits.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.touch()
	s.current, s.changed = s.tracker.Reset(s.current, s.baseline)
	return nil
}

type State struct {
	SessionID     string                                               `json:"session_id"`
	SubjectID     int64                                                `json:"subject_id,omitempty"`
	Loaded        bool                                                 `json:"loaded"`
	Fields        domain.SubjectFields                                 `json:"fields"`
	Times         map[domain.Category]map[domain.DayOfWeek]domain.Span `json:"times"`
	Changed       bool                                                 `json:"changed"`
	ChangedFields []string                                             `json:"changed_fields"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SessionID:     s.ID,
		SubjectID:     s.subjectID,
		Loaded:        s.loaded,
		Fields:        s.current.Fields,
		Times:         make(map[domain.Category]map[domain.DayOfWeek]domain.Span, len(domain.Categories())),
		Changed:       s.changed,
		ChangedFields: s.tracker.ChangedFields(s.current, s.baseline),
	}
	for _, c := range domain.Categories() {
		st.Times[c] = s.current.Blocks.DayKeyed(c)
	}
	if st.ChangedFields == nil {
		st.ChangedFields = []string{}
	}
	return st
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) editable() error {
	if s.subjectID == 0 {
		return ErrNoSubject
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}
