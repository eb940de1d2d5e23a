package domain

// TrackedField is one entry of a ChangeTracker's comparison list.
type TrackedField[T any] struct {
	Name  string
	Equal func(current, baseline T) bool
}

// ChangeTracker decides whether an edit buffer differs from its last saved
// baseline. It compares only the fields it was built with, one by one, so
// identifiers or other incidental state never raise the change flag.
type ChangeTracker[T any] struct {
	fields []TrackedField[T]
	clone  func(T) T
}

// NewChangeTracker builds a tracker over an explicit field list. clone must
// return an independent copy of a value; Reset and Commit hand out copies
// so the buffer and baseline never share mutable state.
func NewChangeTracker[T any](clone func(T) T, fields ...TrackedField[T]) *ChangeTracker[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &ChangeTracker[T]{fields: append([]TrackedField[T](nil), fields...), clone: clone}
}

// Fields returns the tracked field names in comparison order.
func (t *ChangeTracker[T]) Fields() []string {
	out := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, f.Name)
	}
	return out
}

// Recompute reports whether current differs from baseline on any tracked
// field.
func (t *ChangeTracker[T]) Recompute(current, baseline T) bool {
	for _, f := range t.fields {
		if !f.Equal(current, baseline) {
			return true
		}
	}
	return false
}

// ChangedFields lists the tracked fields that differ.
func (t *ChangeTracker[T]) ChangedFields(current, baseline T) []string {
	var out []string
	for _, f := range t.fields {
		if !f.Equal(current, baseline) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Reset discards current and returns a fresh copy of baseline. The change
// flag is false afterwards.
func (t *ChangeTracker[T]) Reset(current, baseline T) (T, bool) {
	return t.clone(baseline), false
}

// Commit turns a just-saved buffer into the new baseline.
func (t *ChangeTracker[T]) Commit(current T) T {
	return t.clone(current)
}

const FieldTimeBlocks = "time_blocks"

// NewDraftTracker tracks the six editable subject fields and the weekly
// block set.
func NewDraftTracker() *ChangeTracker[Draft] {
	fields := make([]TrackedField[Draft], 0, len(SubjectFieldNames())+1)
	for _, name := range SubjectFieldNames() {
		name := name
		fields = append(fields, TrackedField[Draft]{
			Name: name,
			Equal: func(current, baseline Draft) bool {
				a, _ := current.Fields.Get(name)
				b, _ := baseline.Fields.Get(name)
				return a == b
			},
		})
	}
	fields = append(fields, TrackedField[Draft]{
		Name: FieldTimeBlocks,
		Equal: func(current, baseline Draft) bool {
			return current.Blocks.Equal(baseline.Blocks)
		},
	})
	return NewChangeTracker(Draft.Clone, fields...)
}
