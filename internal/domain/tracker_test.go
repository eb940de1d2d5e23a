package domain

import (
	"reflect"
	"testing"
)

func baselineDraft(t *testing.T) Draft {
	t.Helper()
	d := NewDraft(SubjectFields{
		Comment:             "bring laptops",
		ClassLocation:       "Room 101",
		ClassLink:           "https://meet.example/class",
		RecordingsLink:      "https://video.example/rec",
		OfficeHoursLocation: "Office 7",
		OfficeHoursLink:     "https://meet.example/oh",
	}, nil)
	mustUpsert(t, d.Blocks, CategoryClassMeeting, Monday, "09:00", "10:00")
	return d
}

func TestDraftTracker_EqualDraftsAreUnchanged(t *testing.T) {
	tr := NewDraftTracker()
	base := baselineDraft(t)

	if tr.Recompute(base.Clone(), base) {
		t.Fatalf("Recompute = true for identical drafts")
	}
}

func TestDraftTracker_EachScalarFieldRaisesFlag(t *testing.T) {
	tr := NewDraftTracker()
	base := baselineDraft(t)

	for _, name := range SubjectFieldNames() {
		t.Run(name, func(t *testing.T) {
			cur := base.Clone()
			if err := cur.Fields.Set(name, "changed"); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			if !tr.Recompute(cur, base) {
				t.Fatalf("Recompute = false after changing %s", name)
			}
			if got := tr.ChangedFields(cur, base); !reflect.DeepEqual(got, []string{name}) {
				t.Fatalf("ChangedFields = %v, want [%s]", got, name)
			}
		})
	}
}

func TestDraftTracker_BlockEditsRaiseFlag(t *testing.T) {
	tr := NewDraftTracker()
	base := baselineDraft(t)

	cur := base.Clone()
	mustUpsert(t, cur.Blocks, CategoryOfficeHours, Tuesday, "14:00", "15:00")
	if !tr.Recompute(cur, base) {
		t.Fatalf("Recompute = false after adding a block")
	}
	if got := tr.ChangedFields(cur, base); !reflect.DeepEqual(got, []string{FieldTimeBlocks}) {
		t.Fatalf("ChangedFields = %v, want [%s]", got, FieldTimeBlocks)
	}

	cur.Blocks.Remove(CategoryOfficeHours, Tuesday)
	if tr.Recompute(cur, base) {
		t.Fatalf("Recompute = true after reverting the block edit")
	}
}

func TestDraftTracker_ResetClearsFlag(t *testing.T) {
	tr := NewDraftTracker()
	base := baselineDraft(t)

	cur := base.Clone()
	cur.Fields.Comment = "edited"
	mustUpsert(t, cur.Blocks, CategoryClassMeeting, Friday, "09:00", "10:00")

	cur, changed := tr.Reset(cur, base)
	if changed {
		t.Fatalf("Reset returned changed = true")
	}
	if tr.Recompute(cur, base) {
		t.Fatalf("Recompute = true after Reset")
	}

	// the reset buffer must not alias the baseline
	mustUpsert(t, cur.Blocks, CategoryClassMeeting, Friday, "09:00", "10:00")
	if base.Blocks.Len() != 1 {
		t.Fatalf("baseline Len = %d after editing reset buffer, want 1", base.Blocks.Len())
	}
}

func TestDraftTracker_CommitBecomesBaseline(t *testing.T) {
	tr := NewDraftTracker()
	base := baselineDraft(t)

	cur := base.Clone()
	cur.Fields.ClassLink = "https://meet.example/new"
	if !tr.Recompute(cur, base) {
		t.Fatalf("Recompute = false before commit")
	}

	base = tr.Commit(cur)
	if tr.Recompute(cur, base) {
		t.Fatalf("Recompute = true after commit")
	}
}

func TestDraftTracker_FieldsAreExplicit(t *testing.T) {
	want := append(SubjectFieldNames(), FieldTimeBlocks)
	if got := NewDraftTracker().Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Fields = %v, want %v", got, want)
	}
}
