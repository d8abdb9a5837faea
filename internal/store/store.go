// Package store holds the shared in-memory state every view reads.
// Readers take a Snapshot without locking; writers swap in a new one and
// announce it on the event bus.
package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
)

// ErrStaleResult is returned when a fetch result was superseded by a newer
// request or write for the same section.
var ErrStaleResult = errors.New("stale result discarded")

// Ticket identifies one fetch of a section. Only results carrying a ticket
// newer than the last applied write are accepted.
type Ticket struct {
	Section Section
	Gen     uint64
}

// Store is the single owner of loaded data
type Store struct {
	mu      sync.Mutex
	cur     atomic.Pointer[Snapshot]
	gen     uint64
	applied map[Section]uint64
	bus     *eventbus.Bus
	now     func() time.Time
}

// New creates an empty store. bus may be nil.
func New(bus *eventbus.Bus) *Store {
	s := &Store{
		applied: make(map[Section]uint64),
		bus:     bus,
		now:     time.Now,
	}
	s.cur.Store(emptySnapshot())
	return s
}

// Snapshot returns the current state
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

// Begin starts a fetch of sec and returns its ticket
func (s *Store) Begin(sec Section) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return Ticket{Section: sec, Gen: s.gen}
}

// ReplaceUsers stores a fetched user list
func (s *Store) ReplaceUsers(tk Ticket, users []model.User) error {
	return s.replace(tk, SectionUsers, func(next *Snapshot) {
		next.Users = users
	})
}

// ReplaceGroups stores a fetched group list
func (s *Store) ReplaceGroups(tk Ticket, groups []model.Group) error {
	return s.replace(tk, SectionGroups, func(next *Snapshot) {
		next.Groups = groups
	})
}

// ReplaceMemberships stores fetched memberships and rebuilds the index
func (s *Store) ReplaceMemberships(tk Ticket, ms []model.Membership) error {
	return s.replace(tk, SectionMemberships, func(next *Snapshot) {
		next.Memberships = ms
		next.Index = reconcile.NewIndex(ms)
	})
}

// ReplaceTasks stores a fetched task list
func (s *Store) ReplaceTasks(tk Ticket, tasks []model.Task) error {
	return s.replace(tk, SectionTasks, func(next *Snapshot) {
		next.Tasks = tasks
	})
}

// ReplaceProjects stores a fetched project list
func (s *Store) ReplaceProjects(tk Ticket, projects []model.Project) error {
	return s.replace(tk, SectionProjects, func(next *Snapshot) {
		next.Projects = projects
	})
}

func (s *Store) replace(tk Ticket, sec Section, apply func(*Snapshot)) error {
	if tk.Section != sec {
		return errors.New("ticket issued for section " + string(tk.Section) + ", not " + string(sec))
	}
	snap, err := s.write(func() (*Snapshot, error) {
		if tk.Gen <= s.applied[sec] {
			return nil, ErrStaleResult
		}
		s.applied[sec] = tk.Gen
		next := s.cur.Load().clone()
		apply(next)
		next.sections[sec] = SectionState{Loaded: true, At: s.now()}
		return next, nil
	})
	if err != nil {
		return err
	}
	s.announce(snap, string(sec))
	return nil
}

// MarkFailed records a fetch error. Data from an earlier load stays in place.
func (s *Store) MarkFailed(tk Ticket, cause error) error {
	snap, err := s.write(func() (*Snapshot, error) {
		if tk.Gen <= s.applied[tk.Section] {
			return nil, ErrStaleResult
		}
		s.applied[tk.Section] = tk.Gen
		next := s.cur.Load().clone()
		st := next.sections[tk.Section]
		st.Err = cause
		st.At = s.now()
		next.sections[tk.Section] = st
		return next, nil
	})
	if err != nil {
		return err
	}
	s.announce(snap, string(tk.Section))
	return nil
}

// Cached is the data restored from the local cache
type Cached struct {
	Users       []model.User
	Groups      []model.Group
	Memberships []model.Membership
	Tasks       []model.Task
	Projects    []model.Project
	// Sections lists which collections the cache holds, with their save time.
	Sections map[Section]time.Time
}

// Seed fills sections that have not been fetched yet from the cache.
// Sections already holding fetched data are left alone.
func (s *Store) Seed(c Cached) bool {
	snap, _ := s.write(func() (*Snapshot, error) {
		cur := s.cur.Load()
		next := cur.clone()
		changed := false
		for sec, at := range c.Sections {
			if cur.sections[sec].Loaded {
				continue
			}
			switch sec {
			case SectionUsers:
				next.Users = c.Users
			case SectionGroups:
				next.Groups = c.Groups
			case SectionMemberships:
				next.Memberships = c.Memberships
				next.Index = reconcile.NewIndex(c.Memberships)
			case SectionTasks:
				next.Tasks = c.Tasks
			case SectionProjects:
				next.Projects = c.Projects
			default:
				continue
			}
			next.sections[sec] = SectionState{Loaded: true, Cached: true, At: at}
			changed = true
		}
		if !changed {
			return nil, ErrStaleResult
		}
		return next, nil
	})
	if snap == nil {
		return false
	}
	s.announce(snap, "cache")
	return true
}

// PatchTask inserts or replaces one task after a confirmed write. Fetches
// begun before the patch can no longer overwrite it.
func (s *Store) PatchTask(t model.Task) {
	snap, _ := s.write(func() (*Snapshot, error) {
		s.supersede(SectionTasks)
		next := s.cur.Load().clone()
		tasks := make([]model.Task, 0, len(next.Tasks)+1)
		found := false
		for _, cur := range next.Tasks {
			if cur.ID == t.ID {
				tasks = append(tasks, t)
				found = true
				continue
			}
			tasks = append(tasks, cur)
		}
		if !found {
			tasks = append(tasks, t)
		}
		next.Tasks = tasks
		return next, nil
	})
	s.announce(snap, "patch")
}

// RemoveTask drops a task, reporting whether it was present
func (s *Store) RemoveTask(id string) bool {
	removed := false
	snap, _ := s.write(func() (*Snapshot, error) {
		s.supersede(SectionTasks)
		next := s.cur.Load().clone()
		tasks := make([]model.Task, 0, len(next.Tasks))
		for _, cur := range next.Tasks {
			if cur.ID == id {
				removed = true
				continue
			}
			tasks = append(tasks, cur)
		}
		next.Tasks = tasks
		return next, nil
	})
	s.announce(snap, "patch")
	return removed
}

// PatchProject inserts or replaces one project after a confirmed write
func (s *Store) PatchProject(p model.Project) {
	snap, _ := s.write(func() (*Snapshot, error) {
		s.supersede(SectionProjects)
		next := s.cur.Load().clone()
		projects := make([]model.Project, 0, len(next.Projects)+1)
		found := false
		for _, cur := range next.Projects {
			if cur.ID == p.ID {
				projects = append(projects, p)
				found = true
				continue
			}
			projects = append(projects, cur)
		}
		if !found {
			projects = append(projects, p)
		}
		next.Projects = projects
		return next, nil
	})
	s.announce(snap, "patch")
}

// RemoveProject drops a project and clears it from tasks that referenced it
func (s *Store) RemoveProject(id string) bool {
	removed := false
	snap, _ := s.write(func() (*Snapshot, error) {
		s.supersede(SectionProjects)
		next := s.cur.Load().clone()
		projects := make([]model.Project, 0, len(next.Projects))
		for _, cur := range next.Projects {
			if cur.ID == id {
				removed = true
				continue
			}
			projects = append(projects, cur)
		}
		next.Projects = projects

		var tasks []model.Task
		for i, t := range next.Tasks {
			if t.ProjectID == nil || *t.ProjectID != id {
				continue
			}
			if tasks == nil {
				s.supersede(SectionTasks)
				tasks = append([]model.Task(nil), next.Tasks...)
			}
			detached := t.Clone()
			detached.ProjectID = nil
			tasks[i] = detached
		}
		if tasks != nil {
			next.Tasks = tasks
		}
		return next, nil
	})
	s.announce(snap, "patch")
	return removed
}

// supersede invalidates tickets already handed out for sec. Caller holds mu.
func (s *Store) supersede(sec Section) {
	s.gen++
	s.applied[sec] = s.gen
}

func (s *Store) write(fn func() (*Snapshot, error)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn()
	if err != nil {
		return nil, err
	}
	s.cur.Store(next)
	return next, nil
}

// announce publishes outside the lock so handlers may read or write the store
func (s *Store) announce(snap *Snapshot, source string) {
	if snap == nil || s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.DataUpdated, source)
}
