package reconcile

import (
	"sort"

	"github.com/dori/teamboard/internal/model"
)

// Item is a task or project as seen by the aggregation functions
type Item interface {
	Assignable
	Key() string
	RawStatus() string
}

// UserWorkload counts one user's items. Total counts an item once even when
// the user reaches it both directly and through a group.
type UserWorkload struct {
	UserID    string `json:"user_id"`
	Direct    int    `json:"direct"`
	ViaGroup  int    `json:"via_group"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
}

// UserCount pairs a user with a count
type UserCount struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// GroupWorkload counts the items assigned to a group. PerUser counts, for
// each member, the group's items that member is directly assigned to.
type GroupWorkload struct {
	GroupID   string      `json:"group_id"`
	Members   int         `json:"members"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	PerUser   []UserCount `json:"per_user"`
}

// StatusCount is one bucket of a status distribution
type StatusCount struct {
	Status model.Status `json:"status"`
	Count  int          `json:"count"`
}

func isDone(raw string) bool {
	return model.StatusBucket(raw) == model.StatusDone
}

// PerUserWorkload computes workload for every user, in the order given
func PerUserWorkload[T Item](users []model.User, items []T, idx *Index) []UserWorkload {
	out := make([]UserWorkload, 0, len(users))
	for _, u := range users {
		userGroups := idx.UserGroups(u.ID)
		w := UserWorkload{UserID: u.ID}
		seen := make(IDSet)

		for _, it := range items {
			direct := contains(it.DirectUsers(), u.ID)
			via := false
			for _, g := range it.AssignedGroups() {
				if userGroups.Has(g) {
					via = true
					break
				}
			}
			if direct {
				w.Direct++
			}
			if via {
				w.ViaGroup++
			}
			if !direct && !via {
				continue
			}
			if seen.Has(it.Key()) {
				continue
			}
			seen[it.Key()] = struct{}{}
			w.Total++
			if isDone(it.RawStatus()) {
				w.Completed++
			}
		}
		w.Pending = w.Total - w.Completed
		out = append(out, w)
	}
	return out
}

// PerGroupWorkload computes workload for every group, in the order given
func PerGroupWorkload[T Item](groups []model.Group, items []T, idx *Index) []GroupWorkload {
	out := make([]GroupWorkload, 0, len(groups))
	for _, g := range groups {
		members := idx.GroupMembers(g.ID).Sorted()
		perUser := make(map[string]int, len(members))
		w := GroupWorkload{GroupID: g.ID, Members: len(members)}

		for _, it := range items {
			if !contains(it.AssignedGroups(), g.ID) {
				continue
			}
			w.Total++
			if isDone(it.RawStatus()) {
				w.Completed++
			}
			for _, m := range members {
				if contains(it.DirectUsers(), m) {
					perUser[m]++
				}
			}
		}

		w.PerUser = make([]UserCount, 0, len(members))
		for _, m := range members {
			w.PerUser = append(w.PerUser, UserCount{UserID: m, Count: perUser[m]})
		}
		out = append(out, w)
	}
	return out
}

// Statused is anything with a raw status
type Statused interface {
	RawStatus() string
}

// StatusDistribution counts items per canonical status, largest bucket first.
// Unrecognized statuses land in model.StatusUnknown; empty buckets are omitted.
func StatusDistribution[T Statused](items []T) []StatusCount {
	counts := make(map[model.Status]int)
	for _, it := range items {
		counts[model.StatusBucket(it.RawStatus())]++
	}

	out := make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status.Rank() < out[j].Status.Rank()
	})
	return out
}

// UnrecognizedStatuses returns the distinct raw statuses missing from the alias table
func UnrecognizedStatuses[T Statused](items []T) []string {
	seen := make(IDSet)
	for _, it := range items {
		if _, ok := model.NormalizeStatus(it.RawStatus()); !ok {
			seen.Add(it.RawStatus())
		}
	}
	return seen.Sorted()
}

// CompletionRate returns the share of done items, 0 for no items
func CompletionRate[T Statused](items []T) float64 {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, it := range items {
		if isDone(it.RawStatus()) {
			done++
		}
	}
	return float64(done) / float64(len(items))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
