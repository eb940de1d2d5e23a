package store

import (
	"context"

	"mentorweb/backend/internal/domain"
)

// ScheduleTx is the write surface available while a subject's schedule is
// locked. Implementations hold the lock until the enclosing transaction ends.
type ScheduleTx interface {
	GetSubject(ctx context.Context, id int64) (domain.Subject, error)
	UpdateSubjectFields(ctx context.Context, id int64, fields domain.SubjectFields) (domain.Subject, error)

	ListTimeBlocks(ctx context.Context, subjectID int64) ([]domain.TimeInterval, error)
	DeleteTimeBlocks(ctx context.Context, subjectID int64) error
	InsertTimeBlocks(ctx context.Context, subjectID int64, blocks []domain.TimeInterval) error
}
