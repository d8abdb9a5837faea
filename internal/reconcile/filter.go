package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/dori/teamboard/internal/model"
)

// Record is a task or project as seen by filtering and sorting
type Record interface {
	Item
	Name() string
	Details() string
	RawPriority() string
	Project() string
	ProgressValue() int
	DueDate() *time.Time
}

// Criteria selects records. Zero-value fields impose no constraint; all
// non-zero fields must match.
type Criteria struct {
	// Search matches title or description, case-insensitive substring.
	Search   string
	Status   string
	Priority string
	// ProjectID matches a task's project, or a project's own ID.
	ProjectID string
	Progress  *int
	// From and To bound the due date (deadline or end date), inclusive.
	// Records without one are excluded while either bound is set.
	From *time.Time
	To   *time.Time
}

// IsZero reports whether no filter is active
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && strings.TrimSpace(c.Status) == "" &&
		strings.TrimSpace(c.Priority) == "" && c.ProjectID == "" &&
		c.Progress == nil && c.From == nil && c.To == nil
}

// Apply returns the records matching every active criterion, in input order
func Apply[T Record](items []T, c Criteria) []T {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	status := statusKey(c.Status)
	priority := priorityKey(c.Priority)

	out := make([]T, 0, len(items))
	for _, it := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Name()), search) &&
			!strings.Contains(strings.ToLower(it.Details()), search) {
			continue
		}
		if status != "" && statusKey(it.RawStatus()) != status {
			continue
		}
		if priority != "" && priorityKey(it.RawPriority()) != priority {
			continue
		}
		if c.ProjectID != "" && it.Project() != c.ProjectID {
			continue
		}
		if c.Progress != nil && it.ProgressValue() != *c.Progress {
			continue
		}
		if c.From != nil || c.To != nil {
			due := it.DueDate()
			if due == nil {
				continue
			}
			if c.From != nil && due.Before(*c.From) {
				continue
			}
			if c.To != nil && due.After(*c.To) {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// AssignedTo keeps the items userID is an effective assignee of
func AssignedTo[T Item](items []T, userID string, idx *Index) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if IsEffectiveAssignee(it, userID, idx) {
			out = append(out, it)
		}
	}
	return out
}

// SortByStatusThenDeadline returns a sorted copy: board status order, then
// due date ascending with missing dates last, then title.
func SortByStatusThenDeadline[T Record](items []T) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		ri := model.StatusBucket(out[i].RawStatus()).Rank()
		rj := model.StatusBucket(out[j].RawStatus()).Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := out[i].DueDate(), out[j].DueDate()
		switch {
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Columns splits items into kanban columns keyed by canonical status.
// Every canonical status has a column, possibly empty; unrecognized
// statuses go to model.StatusUnknown.
func Columns[T Statused](items []T) map[model.Status][]T {
	cols := make(map[model.Status][]T, len(model.Statuses)+1)
	for _, s := range model.Statuses {
		cols[s] = []T{}
	}
	for _, it := range items {
		s := model.StatusBucket(it.RawStatus())
		cols[s] = append(cols[s], it)
	}
	return cols
}

// statusKey gives equal keys to aliases of one status. Unrecognized values
// still compare, by their folded spelling.
func statusKey(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if s, ok := model.NormalizeStatus(raw); ok {
		return string(s)
	}
	return "?" + model.Fold(raw)
}

func priorityKey(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if p, ok := model.NormalizePriority(raw); ok {
		return string(p)
	}
	return "?" + model.Fold(raw)
}
