package task

import (
	"cmp"
	"slices"
	"strings"
)

// Matches reports whether t satisfies every criterion set in f.
// Due-date bounds exclude tasks that have no due date.
func Matches(t *Task, f TaskFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *f.AssignedToID) {
		return false
	}
	if f.AssociationID != nil && (t.AssociationID == nil || *t.AssociationID != *f.AssociationID) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
		return false
	}
	if f.Search != nil {
		needle := strings.ToLower(*f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			(t.Description == nil || !strings.Contains(strings.ToLower(*t.Description), needle)) {
			return false
		}
	}
	return true
}

// Compare orders tasks by status rank, then due date with undated tasks last,
// then creation time, then id.
func Compare(a, b *Task) int {
	if c := cmp.Compare(a.Status.rank(), b.Status.rank()); c != 0 {
		return c
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Apply filters, sorts and truncates tasks according to f. The input slice is
// not modified.
func Apply(tasks []*Task, f TaskFilter) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, Compare)
	if limit := f.EffectiveLimit(); limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
