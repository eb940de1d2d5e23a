package editing

import (
	"errors"
	"testing"

	"mentorweb/backend/internal/domain"
)

func tod(h, m int) domain.TimeOfDay {
	return domain.MustTimeOfDay(h, m)
}

func loadedSession(t *testing.T, fields domain.SubjectFields, blocks ...domain.TimeInterval) (*Session, Ticket) {
	t.Helper()
	s := NewSession("s1", "m1")
	tk := s.Select(7)
	if ok, _ := s.Hydrate(tk, fields, blocks); !ok {
		t.Fatalf("Hydrate with current ticket was not applied")
	}
	return s, tk
}

func TestSession_EditsBeforeSelectionAreRejected(t *testing.T) {
	s := NewSession("s1", "m1")
	if err := s.EditField(domain.FieldClassLink, "x"); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("err = %v, want %v", err, ErrNoSubject)
	}

	s.Select(7)
	err := s.EditBlock(domain.BlockEdit{Category: domain.CategoryOfficeHours, Day: domain.Monday})
	if !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err = %v, want %v", err, ErrNotLoaded)
	}
}

func TestSession_StaleHydrateIsDropped(t *testing.T) {
	s := NewSession("s1", "m1")
	first := s.Select(1)
	second := s.Select(2)

	if ok, _ := s.Hydrate(first, domain.SubjectFields{ClassLocation: "old"}, nil); ok {
		t.Fatalf("stale hydrate applied")
	}
	st := s.State()
	if st.SubjectID != 2 || st.Loaded {
		t.Fatalf("state = %+v, want subject 2 not loaded", st)
	}

	if ok, _ := s.Hydrate(second, domain.SubjectFields{ClassLocation: "new"}, nil); !ok {
		t.Fatalf("current hydrate dropped")
	}
	if got := s.State().Fields.ClassLocation; got != "new" {
		t.Fatalf("class_location = %q, want %q", got, "new")
	}
}

func TestSession_ReselectingSameSubjectInvalidatesOldTicket(t *testing.T) {
	s := NewSession("s1", "m1")
	old := s.Select(1)
	s.Select(1)
	if s.Current(old) {
		t.Fatalf("old ticket still current after reselect")
	}
}

func TestSession_ChangeFlagTracksFieldsAndBlocks(t *testing.T) {
	s, _ := loadedSession(t,
		domain.SubjectFields{ClassLocation: "Room 1"},
		domain.TimeInterval{Category: domain.CategoryClassMeeting, Day: domain.Monday, Start: tod(9, 0), End: tod(10, 0)},
	)
	if s.State().Changed {
		t.Fatalf("changed after hydrate")
	}

	if err := s.EditField(domain.FieldClassLocation, "Room 2"); err != nil {
		t.Fatalf("EditField error: %v", err)
	}
	if !s.State().Changed {
		t.Fatalf("changed = false after field edit")
	}
	if err := s.EditField(domain.FieldClassLocation, "Room 1"); err != nil {
		t.Fatalf("EditField error: %v", err)
	}
	if s.State().Changed {
		t.Fatalf("changed = true after reverting field edit")
	}

	err := s.EditBlock(domain.BlockEdit{Category: domain.CategoryOfficeHours, Day: domain.Tuesday, Value: []domain.TimeOfDay{tod(14, 0), tod(15, 0)}})
	if err != nil {
		t.Fatalf("EditBlock error: %v", err)
	}
	st := s.State()
	if !st.Changed {
		t.Fatalf("changed = false after block edit")
	}
	if len(st.ChangedFields) != 1 || st.ChangedFields[0] != domain.FieldTimeBlocks {
		t.Fatalf("changed fields = %v, want [%s]", st.ChangedFields, domain.FieldTimeBlocks)
	}
	if _, ok := st.Times[domain.CategoryOfficeHours][domain.Tuesday]; !ok {
		t.Fatalf("office hours view missing Tuesday: %v", st.Times)
	}

	if err := s.EditBlock(domain.BlockEdit{Category: domain.CategoryOfficeHours, Day: domain.Tuesday}); err != nil {
		t.Fatalf("EditBlock remove error: %v", err)
	}
	if s.State().Changed {
		t.Fatalf("changed = true after removing the added block")
	}
}

func TestSession_RejectedEditLeavesBufferUntouched(t *testing.T) {
	s, _ := loadedSession(t, domain.SubjectFields{})

	err := s.EditBlock(domain.BlockEdit{Category: domain.CategoryOfficeHours, Day: domain.Friday, Value: []domain.TimeOfDay{tod(15, 0), tod(14, 0)}})
	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidInterval)
	}
	if err := s.EditField("nickname", "x"); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnknownField)
	}
	if s.State().Changed {
		t.Fatalf("changed after rejected edits")
	}
}

func TestSession_DiscardRestoresBaseline(t *testing.T) {
	s, _ := loadedSession(t,
		domain.SubjectFields{Comment: "hi"},
		domain.TimeInterval{Category: domain.CategoryClassMeeting, Day: domain.Monday, Start: tod(9, 0), End: tod(10, 0)},
	)
	_ = s.EditField(domain.FieldComment, "bye")
	_ = s.EditBlock(domain.BlockEdit{Category: domain.CategoryClassMeeting, Day: domain.Monday})

	if err := s.Discard(); err != nil {
		t.Fatalf("Discard error: %v", err)
	}
	st := s.State()
	if st.Changed || st.Fields.Comment != "hi" {
		t.Fatalf("state after discard = %+v", st)
	}
	if _, ok := st.Times[domain.CategoryClassMeeting][domain.Monday]; !ok {
		t.Fatalf("discard did not restore Monday class block")
	}

	_ = s.EditField(domain.FieldComment, "again")
	if got := s.State().Fields.Comment; got != "again" {
		t.Fatalf("comment = %q", got)
	}
	_ = s.Discard()
	if got := s.State().Fields.Comment; got != "hi" {
		t.Fatalf("baseline was mutated through the buffer: comment = %q", got)
	}
}

func TestSession_CommitSave(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_ = s.EditField(domain.FieldClassLink, "https://example.com/a")

	_, saved, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}

	if !s.CommitSave(tk, saved) {
		t.Fatalf("CommitSave with current ticket was dropped")
	}
	if s.State().Changed {
		t.Fatalf("changed after commit")
	}
}

func TestSession_EditDuringSaveStaysChanged(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_ = s.EditField(domain.FieldClassLink, "https://example.com/a")
	_, saved, _ := s.Snapshot()

	_ = s.EditField(domain.FieldOfficeHoursLink, "https://example.com/b")
	s.CommitSave(tk, saved)

	st := s.State()
	if !st.Changed {
		t.Fatalf("changed = false, want true for the edit made during save")
	}
	if len(st.ChangedFields) != 1 || st.ChangedFields[0] != domain.FieldOfficeHoursLink {
		t.Fatalf("changed fields = %v", st.ChangedFields)
	}
}

func TestSession_RebaseKeepsEditsMadeDuringSave(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_ = s.EditField(domain.FieldClassLink, "https://example.com/a")
	_, saved, _ := s.Snapshot()

	_ = s.EditField(domain.FieldComment, "late")
	s.CommitSave(tk, saved)
	if applied, _ := s.Rebase(tk, saved, domain.SubjectFields{ClassLink: "https://example.com/a"}, nil); !applied {
		t.Fatalf("Rebase with current ticket was dropped")
	}

	st := s.State()
	if st.Fields.Comment != "late" || st.Fields.ClassLink != "https://example.com/a" {
		t.Fatalf("buffer = %+v", st.Fields)
	}
	if len(st.ChangedFields) != 1 || st.ChangedFields[0] != domain.FieldComment {
		t.Fatalf("changed fields = %v", st.ChangedFields)
	}
}

func TestSession_RebaseWithoutLateEditsAdoptsFetch(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_ = s.EditField(domain.FieldComment, " spaced ")
	_, saved, _ := s.Snapshot()
	s.CommitSave(tk, saved)

	s.Rebase(tk, saved, domain.SubjectFields{Comment: "spaced"}, nil)

	st := s.State()
	if st.Changed || st.Fields.Comment != "spaced" {
		t.Fatalf("state = %+v", st)
	}
}

func TestSession_StaleRebaseIsDropped(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_, saved, _ := s.Snapshot()
	s.Select(9)

	if applied, _ := s.Rebase(tk, saved, domain.SubjectFields{Comment: "old"}, nil); applied {
		t.Fatalf("stale rebase applied")
	}
}

func TestSession_StaleCommitIsDropped(t *testing.T) {
	s, tk := loadedSession(t, domain.SubjectFields{})
	_ = s.EditField(domain.FieldComment, "x")
	_, saved, _ := s.Snapshot()

	next := s.Select(8)
	s.Hydrate(next, domain.SubjectFields{Comment: "other"}, nil)

	if s.CommitSave(tk, saved) {
		t.Fatalf("stale commit applied")
	}
	st := s.State()
	if st.SubjectID != 8 || st.Fields.Comment != "other" || st.Changed {
		t.Fatalf("state = %+v", st)
	}
}
