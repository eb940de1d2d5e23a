package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var ErrUnknownField = errors.New("unknown subject field")

// Subject is a course or mentorship relationship. It owns one class
// meeting schedule and one office hours schedule; those live in the
// time_blocks table and are not part of this row.
type Subject struct {
	bun.BaseModel `bun:"table:courses"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	OwnerID string `bun:"owner_id,notnull" json:"owner_id"`
	Name    string `bun:"class_name,notnull" json:"class_name"`
	SubjectFields
	CreatedAt time.Time `bun:"created_at,notnull" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"-"`
}

func (s *Subject) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

// SubjectFields are the scalar subject attributes a mentor edits.
type SubjectFields struct {
	Comment             string `bun:"class_comment" json:"class_comment"`
	ClassLocation       string `bun:"class_location" json:"class_location"`
	ClassLink           string `bun:"class_link" json:"class_link"`
	RecordingsLink      string `bun:"class_recordings_link" json:"class_recordings_link"`
	OfficeHoursLocation string `bun:"office_hours_location" json:"office_hours_location"`
	OfficeHoursLink     string `bun:"office_hours_link" json:"office_hours_link"`
}

const (
	FieldComment             = "class_comment"
	FieldClassLocation       = "class_location"
	FieldClassLink           = "class_link"
	FieldRecordingsLink      = "class_recordings_link"
	FieldOfficeHoursLocation = "office_hours_location"
	FieldOfficeHoursLink     = "office_hours_link"
)

// SubjectFieldNames lists the editable scalar fields in form order.
func SubjectFieldNames() []string {
	return []string{
		FieldComment,
		FieldClassLocation,
		FieldClassLink,
		FieldRecordingsLink,
		FieldOfficeHoursLocation,
		FieldOfficeHoursLink,
	}
}

func (f *SubjectFields) ref(name string) *string {
	switch name {
	case FieldComment:
		return &f.Comment
	case FieldClassLocation:
		return &f.ClassLocation
	case FieldClassLink:
		return &f.ClassLink
	case FieldRecordingsLink:
		return &f.RecordingsLink
	case FieldOfficeHoursLocation:
		return &f.OfficeHoursLocation
	case FieldOfficeHoursLink:
		return &f.OfficeHoursLink
	default:
		return nil
	}
}

func (f *SubjectFields) Set(name, value string) error {
	p := f.ref(name)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	*p = value
	return nil
}

func (f SubjectFields) Get(name string) (string, error) {
	p := f.ref(name)
	if p == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return *p, nil
}

// Draft is the editable state of one subject: its scalar fields plus its
// weekly blocks. It serves both as the edit buffer and as the baseline.
type Draft struct {
	Fields SubjectFields
	Blocks *BlockSet
}

func NewDraft(fields SubjectFields, blocks []TimeInterval) Draft {
	return Draft{Fields: fields, Blocks: NewBlockSet(blocks...)}
}

// Clone deep-copies the block set so edits to one draft never leak into
// another.
func (d Draft) Clone() Draft {
	return Draft{Fields: d.Fields, Blocks: d.Blocks.Clone()}
}
