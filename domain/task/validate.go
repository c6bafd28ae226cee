package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLength is the longest accepted title, in characters.
	MaxTitleLength = 255
	// MaxDescriptionLength is the longest accepted description, in characters.
	MaxDescriptionLength = 4000
)

// ValidateCreate checks a create payload and returns its normalized form.
func ValidateCreate(in TaskCreate) (TaskCreate, error) {
	out := in

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return TaskCreate{}, err
	}
	out.Title = title

	out.CreatedByID = strings.TrimSpace(in.CreatedByID)
	if out.CreatedByID == "" {
		return TaskCreate{}, newValidationError("created_by_id", "created_by_id is required")
	}

	if out.Description, err = normalizeDescription(in.Description); err != nil {
		return TaskCreate{}, err
	}

	if in.Priority == "" {
		out.Priority = DefaultPriority
	} else if out.Priority, err = ParsePriority(string(in.Priority)); err != nil {
		return TaskCreate{}, err
	}

	out.DueDate = normalizeTimePtr(in.DueDate)
	out.AssociationID = normalizeID(in.AssociationID)
	out.AssignedToID = normalizeID(in.AssignedToID)
	return out, nil
}

// ValidateUpdate checks a partial update and returns its normalized form.
// Title, priority and status cannot be cleared; the remaining optional fields
// accept null to clear the stored value.
func ValidateUpdate(in TaskUpdate) (TaskUpdate, error) {
	if in.IsEmpty() {
		return TaskUpdate{}, newValidationError("", "at least one field must be provided")
	}
	out := in

	if in.Title.IsSet() {
		v, ok := in.Title.Get()
		if !ok {
			return TaskUpdate{}, newValidationError("title", "title cannot be null")
		}
		title, err := normalizeTitle(v)
		if err != nil {
			return TaskUpdate{}, err
		}
		out.Title = Some(title)
	}

	if v, ok := in.Description.Get(); ok {
		desc, err := normalizeDescription(&v)
		if err != nil {
			return TaskUpdate{}, err
		}
		out.Description = optionalFromPtr(desc)
	}

	if v, ok := in.DueDate.Get(); ok {
		out.DueDate = Some(NormalizeTime(v))
	}

	if in.Priority.IsSet() {
		v, ok := in.Priority.Get()
		if !ok {
			return TaskUpdate{}, newValidationError("priority", "priority cannot be null")
		}
		p, err := ParsePriority(string(v))
		if err != nil {
			return TaskUpdate{}, err
		}
		out.Priority = Some(p)
	}

	if in.Status.IsSet() {
		v, ok := in.Status.Get()
		if !ok {
			return TaskUpdate{}, newValidationError("status", "status cannot be null")
		}
		s, err := ParseStatus(string(v))
		if err != nil {
			return TaskUpdate{}, err
		}
		out.Status = Some(s)
	}

	if v, ok := in.AssociationID.Get(); ok {
		out.AssociationID = optionalFromPtr(normalizeID(&v))
	}
	if v, ok := in.AssignedToID.Get(); ok {
		out.AssignedToID = optionalFromPtr(normalizeID(&v))
	}
	return out, nil
}

// ValidateStatusUpdate checks a status transition payload.
func ValidateStatusUpdate(in TaskStatusUpdate) (TaskStatusUpdate, error) {
	status, err := ParseStatus(string(in.Status))
	if err != nil {
		return TaskStatusUpdate{}, err
	}
	if in.CompletedAt != nil && status != StatusCompleted {
		return TaskStatusUpdate{}, newValidationError("completed_at", "completed_at may only be set when status is %s", StatusCompleted)
	}
	return TaskStatusUpdate{
		Status:      status,
		CompletedAt: normalizeTimePtr(in.CompletedAt),
	}, nil
}

// ValidateFilters checks listing criteria and returns them normalized with
// the default limit applied. A nil filter selects everything.
func ValidateFilters(in *TaskFilter) (TaskFilter, error) {
	var out TaskFilter
	if in != nil {
		out = *in
	}

	limit := DefaultLimit
	if out.Limit != nil {
		limit = *out.Limit
		if limit <= 0 || limit > MaxLimit {
			return TaskFilter{}, newValidationError("limit", "limit must be between 1 and %d", MaxLimit)
		}
	}
	out.Limit = &limit

	out.DueBefore = normalizeTimePtr(out.DueBefore)
	out.DueAfter = normalizeTimePtr(out.DueAfter)
	if out.DueBefore != nil && out.DueAfter != nil && out.DueBefore.Before(*out.DueAfter) {
		return TaskFilter{}, newValidationError("due_before", "due_before must not be earlier than due_after")
	}

	if len(out.Statuses) > 0 {
		seen := make(map[Status]bool, len(out.Statuses))
		statuses := make([]Status, 0, len(out.Statuses))
		for _, raw := range out.Statuses {
			s, err := ParseStatus(string(raw))
			if err != nil {
				return TaskFilter{}, err
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			statuses = append(statuses, s)
		}
		out.Statuses = statuses
	} else {
		out.Statuses = nil
	}

	if out.Search != nil {
		search := strings.TrimSpace(*out.Search)
		if search == "" {
			return TaskFilter{}, newValidationError("search", "search must not be blank")
		}
		out.Search = &search
	}

	out.AssignedToID = normalizeID(out.AssignedToID)
	out.AssociationID = normalizeID(out.AssociationID)
	return out, nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", newValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", newValidationError("title", "title must be at most %d characters", MaxTitleLength)
	}
	return title, nil
}

func normalizeDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	desc := strings.TrimSpace(*raw)
	if desc == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return nil, newValidationError("description", "description must be at most %d characters", MaxDescriptionLength)
	}
	return &desc, nil
}

// normalizeID treats blank identifiers as absent.
func normalizeID(raw *string) *string {
	if raw == nil {
		return nil
	}
	id := strings.TrimSpace(*raw)
	if id == "" {
		return nil
	}
	return &id
}

// NormalizeTime converts t to UTC with microsecond precision, the resolution
// every storage backend preserves.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := NormalizeTime(*t)
	return &v
}

func optionalFromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Null[T]()
	}
	return Some(*p)
}
