package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
)

// Section is one independently fetched collection
type Section string

const (
	SectionUsers       Section = "users"
	SectionGroups      Section = "groups"
	SectionMemberships Section = "memberships"
	SectionTasks       Section = "tasks"
	SectionProjects    Section = "projects"
)

// AllSections lists every section in fetch order
var AllSections = []Section{SectionUsers, SectionGroups, SectionMemberships, SectionTasks, SectionProjects}

// ParseSection accepts a section name
func ParseSection(s string) (Section, error) {
	for _, sec := range AllSections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// SectionState describes how a section was last filled
type SectionState struct {
	// Loaded is true once the section holds data from a fetch or the cache.
	Loaded bool
	// Cached is true while the data came from the local cache only.
	Cached bool
	// Err is the last fetch error; data from an earlier load is kept.
	Err error
	At  time.Time
}

// Snapshot is an immutable view of every collection. Never modify its
// slices; writers build a new snapshot instead.
type Snapshot struct {
	Version     uint64
	Users       []model.User
	Groups      []model.Group
	Memberships []model.Membership
	Tasks       []model.Task
	Projects    []model.Project
	Index       *reconcile.Index

	sections map[Section]SectionState
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Index:    reconcile.NewIndex(nil),
		sections: make(map[Section]SectionState),
	}
}

// clone copies the snapshot header; collection slices stay shared until
// the writer replaces them.
func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.Version = s.Version + 1
	next.sections = make(map[Section]SectionState, len(s.sections))
	for k, v := range s.sections {
		next.sections[k] = v
	}
	return &next
}

// State returns the load state of a section
func (s *Snapshot) State(sec Section) SectionState {
	return s.sections[sec]
}

// Ready returns nil when every listed section has data, else a *NotReadyError
func (s *Snapshot) Ready(sections ...Section) error {
	nr := &NotReadyError{}
	for _, sec := range sections {
		st := s.sections[sec]
		if st.Loaded {
			continue
		}
		if st.Err != nil {
			if nr.Failed == nil {
				nr.Failed = make(map[Section]error)
			}
			nr.Failed[sec] = st.Err
		} else {
			nr.Missing = append(nr.Missing, sec)
		}
	}
	if len(nr.Missing) == 0 && len(nr.Failed) == 0 {
		return nil
	}
	return nr
}

// Warnings returns the fetch errors of listed sections that still hold older data
func (s *Snapshot) Warnings(sections ...Section) map[Section]error {
	var out map[Section]error
	for _, sec := range sections {
		st := s.sections[sec]
		if st.Loaded && st.Err != nil {
			if out == nil {
				out = make(map[Section]error)
			}
			out[sec] = st.Err
		}
	}
	return out
}

// Task looks up a task by ID
func (s *Snapshot) Task(id string) (model.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Project looks up a project by ID
func (s *Snapshot) Project(id string) (model.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// User looks up a user by ID
func (s *Snapshot) User(id string) (model.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Group looks up a group by ID
func (s *Snapshot) Group(id string) (model.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return model.Group{}, false
}

// UserName returns a user's display name, or "" if unknown
func (s *Snapshot) UserName(id string) string {
	if u, ok := s.User(id); ok {
		return u.DisplayName()
	}
	return ""
}

// GroupName returns a group's name, or "" if unknown
func (s *Snapshot) GroupName(id string) string {
	if g, ok := s.Group(id); ok {
		return g.Name
	}
	return ""
}

// Assignable returns the task or project an assignment targets
func (s *Snapshot) Assignable(kind model.EntityKind, id string) (reconcile.Assignable, bool) {
	switch kind {
	case model.EntityTask:
		t, ok := s.Task(id)
		return t, ok
	case model.EntityProject:
		p, ok := s.Project(id)
		return p, ok
	default:
		return nil, false
	}
}

// NotReadyError lists the sections a computation is still waiting for
type NotReadyError struct {
	Missing []Section
	Failed  map[Section]error
}

func (e *NotReadyError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, sec := range e.Missing {
			names[i] = string(sec)
		}
		parts = append(parts, "waiting for "+strings.Join(names, ", "))
	}
	if len(e.Failed) > 0 {
		failed := make([]string, 0, len(e.Failed))
		for sec, err := range e.Failed {
			failed = append(failed, fmt.Sprintf("%s (%v)", sec, err))
		}
		sort.Strings(failed)
		parts = append(parts, "failed to load "+strings.Join(failed, ", "))
	}
	return strings.Join(parts, "; ")
}
