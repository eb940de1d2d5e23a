package schedules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"mentorweb/backend/internal/domain"
	"mentorweb/backend/internal/store"
)

const (
	maxNameLength   = 200
	maxFieldLength  = 2048
	maxOccurrWindow = 366 * 24 * time.Hour
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo store.SubjectRepository
	loc  *time.Location
	log  *slog.Logger
}

// NewService builds the subject service. loc is the reference timezone used
// to place weekly blocks on calendar dates.
func NewService(repo store.SubjectRepository, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, loc: loc, log: log.With("component", "schedules")}
}

func (s *Service) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	if ownerID == "" {
		return nil, validationError("owner_id is required")
	}
	return s.repo.ListSubjects(ctx, ownerID)
}

// GetSubject returns the subject only when ownerID owns it. A subject that
// belongs to someone else is reported as store.ErrNotFound.
func (s *Service) GetSubject(ctx context.Context, ownerID string, id int64) (domain.Subject, error) {
	if ownerID == "" {
		return domain.Subject{}, validationError("owner_id is required")
	}
	if id <= 0 {
		return domain.Subject{}, validationError("subject id is required")
	}
	subj, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		return domain.Subject{}, err
	}
	if subj.OwnerID != ownerID {
		return domain.Subject{}, store.ErrNotFound
	}
	return subj, nil
}

type CreateSubjectInput struct {
	OwnerID string
	Name    string
	Fields  domain.SubjectFields
}

func (s *Service) CreateSubject(ctx context.Context, in CreateSubjectInput) (domain.Subject, error) {
	if in.OwnerID == "" {
		return domain.Subject{}, validationError("owner_id is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Subject{}, validationError("class_name is required")
	}
	if len(name) > maxNameLength {
		return domain.Subject{}, validationError("class_name too long")
	}
	fields, err := normalizeFields(in.Fields)
	if err != nil {
		return domain.Subject{}, err
	}

	subj, err := s.repo.CreateSubject(ctx, domain.Subject{
		OwnerID:       in.OwnerID,
		Name:          name,
		SubjectFields: fields,
	})
	if err != nil {
		return domain.Subject{}, err
	}
	s.log.Info("subject created", "subject_id", subj.ID, "owner_id", in.OwnerID)
	return subj, nil
}

// SaveDetails persists the scalar fields of a subject.
func (s *Service) SaveDetails(ctx context.Context, ownerID string, id int64, fields domain.SubjectFields) (domain.Subject, error) {
	if _, err := s.GetSubject(ctx, ownerID, id); err != nil {
		return domain.Subject{}, err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return domain.Subject{}, err
	}
	return s.repo.UpdateSubject(ctx, id, normalized)
}

// LoadTimeBlocks returns the stored flat view for a subject.
func (s *Service) LoadTimeBlocks(ctx context.Context, ownerID string, id int64) ([]domain.TimeInterval, error) {
	if _, err := s.GetSubject(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return s.repo.ListTimeBlocks(ctx, id)
}

// SaveTimeBlocks replaces the subject's whole weekly schedule with blocks.
// Every block must be a valid interval and each (category, day) pair may
// appear once.
func (s *Service) SaveTimeBlocks(ctx context.Context, ownerID string, id int64, blocks []domain.TimeInterval) error {
	if _, err := s.GetSubject(ctx, ownerID, id); err != nil {
		return err
	}

	set, err := blockSet(blocks)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceTimeBlocks(ctx, id, set.FlatView()); err != nil {
		return err
	}
	s.log.Info("time blocks saved", "subject_id", id, "blocks", set.Len())
	return nil
}

// SaveSchedule writes the scalar fields and the whole weekly schedule as
// one unit. Either both are stored or neither is.
func (s *Service) SaveSchedule(ctx context.Context, ownerID string, id int64, fields domain.SubjectFields, blocks []domain.TimeInterval) (domain.Subject, error) {
	if _, err := s.GetSubject(ctx, ownerID, id); err != nil {
		return domain.Subject{}, err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return domain.Subject{}, err
	}
	set, err := blockSet(blocks)
	if err != nil {
		return domain.Subject{}, err
	}

	subj, err := s.repo.SaveSchedule(ctx, id, normalized, set.FlatView())
	if err != nil {
		return domain.Subject{}, err
	}
	s.log.Info("schedule saved", "subject_id", id, "blocks", set.Len())
	return subj, nil
}

// blockSet checks blocks as a whole schedule: each must be a valid interval
// and each (category, day) pair may appear once.
func blockSet(blocks []domain.TimeInterval) (*domain.BlockSet, error) {
	set := &domain.BlockSet{}
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return nil, validationError(err.Error())
		}
		if _, ok := set.Get(b.Category, b.Day); ok {
			return nil, validationError(fmt.Sprintf("duplicate %s block on %s", b.Category, b.Day))
		}
		if err := set.Upsert(b.Category, b.Day, b.Start, b.End); err != nil {
			return nil, validationError(err.Error())
		}
	}
	return set, nil
}

// Occurrences places the subject's weekly blocks onto concrete dates in
// [windowStart, windowEnd).
func (s *Service) Occurrences(ctx context.Context, ownerID string, id int64, windowStart, windowEnd time.Time) ([]domain.Occurrence, error) {
	start := windowStart.UTC()
	end := windowEnd.UTC()
	if !end.After(start) {
		return nil, validationError("window_end must be after window_start")
	}
	if end.Sub(start) > maxOccurrWindow {
		return nil, validationError("window too long")
	}

	records, err := s.LoadTimeBlocks(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	set := &domain.BlockSet{}
	if rejected := set.Hydrate(records); len(rejected) > 0 {
		s.log.Warn("stored time blocks rejected", "subject_id", id, "count", len(rejected))
	}
	return domain.WeekOccurrences(id, set, start, end, s.loc)
}

func normalizeFields(in domain.SubjectFields) (domain.SubjectFields, error) {
	out := domain.SubjectFields{}
	for _, name := range domain.SubjectFieldNames() {
		v, _ := in.Get(name)
		v = strings.TrimSpace(v)
		if len(v) > maxFieldLength {
			return domain.SubjectFields{}, validationError(name + " too long")
		}
		if isLinkField(name) && v != "" {
			if err := validateLink(v); err != nil {
				return domain.SubjectFields{}, validationError(name + " must be an http or https URL")
			}
		}
		if err := out.Set(name, v); err != nil {
			return domain.SubjectFields{}, err
		}
	}
	return out, nil
}

func isLinkField(name string) bool {
	switch name {
	case domain.FieldClassLink, domain.FieldRecordingsLink, domain.FieldOfficeHoursLink:
		return true
	default:
		return false
	}
}

var errBadLink = errors.New("bad link")

func validateLink(v string) error {
	u, err := url.Parse(v)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errBadLink
	}
	return nil
}
