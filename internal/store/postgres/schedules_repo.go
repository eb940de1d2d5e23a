package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"mentorweb/backend/internal/domain"
	"mentorweb/backend/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

// timeBlockRow is the storage shape of one weekly block. Times are written
// as "HH:MM" literals into TIME columns and read back through to_char.
type timeBlockRow struct {
	bun.BaseModel `bun:"table:time_blocks"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	SubjectID int64     `bun:"subject_id,notnull"`
	Category  string    `bun:"category,notnull"`
	Day       int16     `bun:"day_of_week,notnull"`
	StartTime string    `bun:"start_time,notnull"`
	EndTime   string    `bun:"end_time,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r *timeBlockRow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

func toRow(subjectID int64, b domain.TimeInterval) timeBlockRow {
	return timeBlockRow{
		SubjectID: subjectID,
		Category:  string(b.Category),
		Day:       int16(b.Day),
		StartTime: b.Start.String(),
		EndTime:   b.End.String(),
	}
}

func fromRow(r timeBlockRow) (domain.TimeInterval, error) {
	c, err := domain.ParseCategory(r.Category)
	if err != nil {
		return domain.TimeInterval{}, err
	}
	start, err := domain.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return domain.TimeInterval{}, err
	}
	end, err := domain.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return domain.TimeInterval{}, err
	}
	return domain.TimeInterval{Category: c, Day: domain.DayOfWeek(r.Day), Start: start, End: end}, nil
}

func (r *ScheduleRepo) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	var rows []domain.Subject
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("class_name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepo) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	return getSubject(ctx, r.db, id)
}

func (r *ScheduleRepo) CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error) {
	m := domain.Subject{
		OwnerID:       subject.OwnerID,
		Name:          subject.Name,
		SubjectFields: subject.SubjectFields,
	}
	if _, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Subject{}, mapWriteError(err)
	}
	return m, nil
}

func (r *ScheduleRepo) UpdateSubject(ctx context.Context, id int64, fields domain.SubjectFields) (domain.Subject, error) {
	var out domain.Subject
	err := r.InSubjectTransaction(ctx, id, func(ctx context.Context, tx store.ScheduleTx) error {
		s, err := tx.UpdateSubjectFields(ctx, id, fields)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return domain.Subject{}, err
	}
	return out, nil
}

func (r *ScheduleRepo) ListTimeBlocks(ctx context.Context, subjectID int64) ([]domain.TimeInterval, error) {
	return listTimeBlocks(ctx, r.db, subjectID)
}

func (r *ScheduleRepo) ReplaceTimeBlocks(ctx context.Context, subjectID int64, blocks []domain.TimeInterval) error {
	return r.InSubjectTransaction(ctx, subjectID, func(ctx context.Context, tx store.ScheduleTx) error {
		return replaceTimeBlocks(ctx, tx, subjectID, blocks)
	})
}

func (r *ScheduleRepo) SaveSchedule(ctx context.Context, subjectID int64, fields domain.SubjectFields, blocks []domain.TimeInterval) (domain.Subject, error) {
	var out domain.Subject
	err := r.InSubjectTransaction(ctx, subjectID, func(ctx context.Context, tx store.ScheduleTx) error {
		s, err := saveSchedule(ctx, tx, subjectID, fields, blocks)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return domain.Subject{}, err
	}
	return out, nil
}

// InSubjectTransaction runs fn with the subject's schedule locked, so
// concurrent saves of the same subject are applied one after the other.
func (r *ScheduleRepo) InSubjectTransaction(ctx context.Context, subjectID int64, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockSubjectSchedule(ctx, tx, subjectID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

func lockSubjectSchedule(ctx context.Context, tx bun.Tx, subjectID int64) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", fmt.Sprintf("subject:%d", subjectID)).Exec(ctx)
	return err
}

// saveSchedule updates the scalar fields and then swaps the blocks. Blocks
// are checked before the first write.
func saveSchedule(ctx context.Context, tx store.ScheduleTx, subjectID int64, fields domain.SubjectFields, blocks []domain.TimeInterval) (domain.Subject, error) {
	if err := checkBlocks(blocks); err != nil {
		return domain.Subject{}, err
	}
	subj, err := tx.UpdateSubjectFields(ctx, subjectID, fields)
	if err != nil {
		return domain.Subject{}, err
	}
	if err := replaceTimeBlocks(ctx, tx, subjectID, blocks); err != nil {
		return domain.Subject{}, err
	}
	return subj, nil
}

// replaceTimeBlocks swaps the stored schedule for blocks. The input is
// checked before anything is written.
func replaceTimeBlocks(ctx context.Context, tx store.ScheduleTx, subjectID int64, blocks []domain.TimeInterval) error {
	if err := checkBlocks(blocks); err != nil {
		return err
	}
	if _, err := tx.GetSubject(ctx, subjectID); err != nil {
		return err
	}
	if err := tx.DeleteTimeBlocks(ctx, subjectID); err != nil {
		return err
	}
	if len(blocks) == 0 {
		return nil
	}
	return tx.InsertTimeBlocks(ctx, subjectID, blocks)
}

// checkBlocks requires every block to be a valid interval and each
// (category, day) pair to appear once.
func checkBlocks(blocks []domain.TimeInterval) error {
	type key struct {
		c domain.Category
		d domain.DayOfWeek
	}
	seen := make(map[key]struct{}, len(blocks))
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return err
		}
		k := key{b.Category, b.Day}
		if _, ok := seen[k]; ok {
			return store.ErrConflict
		}
		seen[k] = struct{}{}
	}
	return nil
}

func (r scheduleTx) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	return getSubject(ctx, r.tx, id)
}

func (r scheduleTx) UpdateSubjectFields(ctx context.Context, id int64, fields domain.SubjectFields) (domain.Subject, error) {
	m := domain.Subject{ID: id, SubjectFields: fields}
	err := r.tx.NewUpdate().
		Model(&m).
		Column(
			"class_comment",
			"class_location",
			"class_link",
			"class_recordings_link",
			"office_hours_location",
			"office_hours_link",
			"updated_at",
		).
		WherePK().
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subject{}, store.ErrNotFound
		}
		return domain.Subject{}, err
	}
	return m, nil
}

func (r scheduleTx) ListTimeBlocks(ctx context.Context, subjectID int64) ([]domain.TimeInterval, error) {
	return listTimeBlocks(ctx, r.tx, subjectID)
}

func (r scheduleTx) DeleteTimeBlocks(ctx context.Context, subjectID int64) error {
	_, err := r.tx.NewDelete().
		Model((*timeBlockRow)(nil)).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	return err
}

func (r scheduleTx) InsertTimeBlocks(ctx context.Context, subjectID int64, blocks []domain.TimeInterval) error {
	rows := make([]timeBlockRow, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, toRow(subjectID, b))
	}
	if _, err := r.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func getSubject(ctx context.Context, db bun.IDB, id int64) (domain.Subject, error) {
	var s domain.Subject
	err := db.NewSelect().
		Model(&s).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subject{}, store.ErrNotFound
		}
		return domain.Subject{}, err
	}
	return s, nil
}

func listTimeBlocks(ctx context.Context, db bun.IDB, subjectID int64) ([]domain.TimeInterval, error) {
	var rows []timeBlockRow
	err := db.NewSelect().
		Model(&rows).
		Column("id", "subject_id", "category", "day_of_week", "created_at").
		ColumnExpr("to_char(start_time, 'HH24:MI') AS start_time").
		ColumnExpr("to_char(end_time, 'HH24:MI') AS end_time").
		Where("subject_id = ?", subjectID).
		OrderExpr("category ASC, day_of_week ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TimeInterval, 0, len(rows))
	for _, row := range rows {
		b, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("time block %s: %w", row.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return store.ErrConflict
	case pgForeignKeyViolation:
		return store.ErrNotFound
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInterval, pgErr.ConstraintName)
	default:
		return err
	}
}
