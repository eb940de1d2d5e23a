package store

import (
	"context"

	"mentorweb/backend/internal/domain"
)

type SubjectRepository interface {
	ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error)
	GetSubject(ctx context.Context, id int64) (domain.Subject, error)
	CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error)
	UpdateSubject(ctx context.Context, id int64, fields domain.SubjectFields) (domain.Subject, error)

	ListTimeBlocks(ctx context.Context, subjectID int64) ([]domain.TimeInterval, error)
	ReplaceTimeBlocks(ctx context.Context, subjectID int64, blocks []domain.TimeInterval) error

	// SaveSchedule writes the scalar fields and replaces the weekly blocks
	// in one transaction. On error nothing is stored.
	SaveSchedule(ctx context.Context, subjectID int64, fields domain.SubjectFields, blocks []domain.TimeInterval) (domain.Subject, error)
}
