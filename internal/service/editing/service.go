package editing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mentorweb/backend/internal/domain"
)

// Store is the persistence surface the editing flow needs. It is satisfied
// by *schedules.Service. SaveSchedule must store fields and blocks
// together or not at all.
type Store interface {
	GetSubject(ctx context.Context, ownerID string, id int64) (domain.Subject, error)
	LoadTimeBlocks(ctx context.Context, ownerID string, id int64) ([]domain.TimeInterval, error)
	SaveSchedule(ctx context.Context, ownerID string, id int64, fields domain.SubjectFields, blocks []domain.TimeInterval) (domain.Subject, error)
}

type Service struct {
	store Store
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		log:      log.With("component", "editing"),
		sessions: make(map[string]*Session),
	}
}

func (s *Service) Open(ownerID string) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	sess := NewSession(id.String(), ownerID)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns the owner's session. Sessions of other owners are reported as
// ErrSessionNotFound.
func (s *Service) Get(ownerID, sessionID string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok || sess.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) Close(ownerID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.OwnerID != ownerID {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// SelectSubject switches the session to subjectID and loads it. If another
// selection overtakes this one the fetched data is dropped and the newer
// state is returned without error.
func (s *Service) SelectSubject(ctx context.Context, ownerID, sessionID string, subjectID int64) (State, error) {
	sess, err := s.Get(ownerID, sessionID)
	if err != nil {
		return State{}, err
	}
	t := sess.Select(subjectID)
	if err := s.load(ctx, sess, t); err != nil {
		return State{}, err
	}
	return sess.State(), nil
}

// Save writes the scalar fields and the weekly blocks in one store call. A
// failed write leaves the session and the store as they were. On success
// the baseline moves to what was saved and the subject is fetched again;
// edits made while the save was in flight survive the refetch.
func (s *Service) Save(ctx context.Context, ownerID, sessionID string) (State, error) {
	sess, err := s.Get(ownerID, sessionID)
	if err != nil {
		return State{}, err
	}
	t, draft, err := sess.Snapshot()
	if err != nil {
		return State{}, err
	}

	if _, err := s.store.SaveSchedule(ctx, ownerID, t.SubjectID, draft.Fields, draft.Blocks.FlatView()); err != nil {
		return State{}, err
	}

	if !sess.CommitSave(t, draft) {
		s.log.Debug("save result dropped", "session_id", sess.ID, "subject_id", t.SubjectID)
		return sess.State(), nil
	}

	err = s.fetch(ctx, sess, t, func(fields domain.SubjectFields, blocks []domain.TimeInterval) (bool, []domain.TimeInterval) {
		return sess.Rebase(t, draft, fields, blocks)
	})
	if err != nil {
		s.log.Warn("refetch after save failed", "session_id", sess.ID, "subject_id", t.SubjectID, "error", err)
	}
	return sess.State(), nil
}

func (s *Service) Discard(ownerID, sessionID string) (State, error) {
	sess, err := s.Get(ownerID, sessionID)
	if err != nil {
		return State{}, err
	}
	if err := sess.Discard(); err != nil {
		return State{}, err
	}
	return sess.State(), nil
}

// Reap closes sessions idle for longer than ttl and returns how many were
// removed.
func (s *Service) Reap(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Service) load(ctx context.Context, sess *Session, t Ticket) error {
	return s.fetch(ctx, sess, t, func(fields domain.SubjectFields, blocks []domain.TimeInterval) (bool, []domain.TimeInterval) {
		return sess.Hydrate(t, fields, blocks)
	})
}

// fetch reads the subject under ticket t and hands the result to apply.
// Errors for a ticket that has since gone stale are dropped.
func (s *Service) fetch(ctx context.Context, sess *Session, t Ticket, apply func(domain.SubjectFields, []domain.TimeInterval) (bool, []domain.TimeInterval)) error {
	subj, err := s.store.GetSubject(ctx, sess.OwnerID, t.SubjectID)
	if err != nil {
		if !sess.Current(t) {
			return nil
		}
		return err
	}
	blocks, err := s.store.LoadTimeBlocks(ctx, sess.OwnerID, t.SubjectID)
	if err != nil {
		if !sess.Current(t) {
			return nil
		}
		return err
	}

	applied, rejected := apply(subj.SubjectFields, blocks)
	if !applied {
		s.log.Debug("load result dropped", "session_id", sess.ID, "subject_id", t.SubjectID)
		return nil
	}
	for _, r := range rejected {
		s.log.Warn("stored time block rejected",
			"subject_id", t.SubjectID,
			"type", r.Category,
			"day", r.Day.String(),
			"start", r.Start.String(),
			"end", r.End.String(),
		)
	}
	return nil
}
