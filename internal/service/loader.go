package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/logging"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
)

// LoaderOptions configures NewLoader
type LoaderOptions struct {
	Backend Backend
	Store   *store.Store
	// Cache may be nil to run without persistence.
	Cache Cache
	// Bus receives FetchFailed events; may be nil.
	Bus         *eventbus.Bus
	Log         *logrus.Logger
	Concurrency int
}

// Loader fetches sections concurrently into the store
type Loader struct {
	backend     Backend
	store       *store.Store
	cache       Cache
	bus         *eventbus.Bus
	log         *logrus.Logger
	concurrency int
}

// NewLoader creates a loader
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	return &Loader{
		backend:     opts.Backend,
		store:       opts.Store,
		cache:       opts.Cache,
		bus:         opts.Bus,
		log:         opts.Log,
		concurrency: opts.Concurrency,
	}
}

// Report describes the outcome of one Load
type Report struct {
	Loaded []store.Section
	Failed map[store.Section]error
	// Superseded sections finished after a newer fetch or write.
	Superseded []store.Section
}

// OK reports whether every requested section loaded
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Err summarizes the failed sections, or returns nil
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failed))
	for sec := range r.Failed {
		names = append(names, string(sec))
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + r.Failed[store.Section(name)].Error()
	}
	return errors.New("failed to load " + strings.Join(parts, "; "))
}

// Load fetches the given sections, or all of them when none are given.
// A failing section is flagged in the store and keeps its last good data;
// the others are still replaced.
func (l *Loader) Load(ctx context.Context, sections ...store.Section) Report {
	if len(sections) == 0 {
		sections = store.AllSections
	}

	var (
		mu     sync.Mutex
		report = Report{Failed: make(map[store.Section]error)}
		g      errgroup.Group
	)
	g.SetLimit(l.concurrency)

	for _, sec := range sections {
		g.Go(func() error {
			log := l.log.WithField("section", sec)
			tk := l.store.Begin(sec)
			err := l.fetch(ctx, tk)

			switch {
			case errors.Is(err, store.ErrStaleResult):
				log.Debug("result superseded")
			case err != nil:
				log.WithError(err).Warn("section failed to load")
				if merr := l.store.MarkFailed(tk, err); merr == nil && l.bus != nil {
					l.bus.Publish(eventbus.FetchFailed, string(sec))
				}
			default:
				log.Debug("section loaded")
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, store.ErrStaleResult):
				report.Superseded = append(report.Superseded, sec)
			case err != nil:
				report.Failed[sec] = err
			default:
				report.Loaded = append(report.Loaded, sec)
			}
			return nil
		})
	}
	_ = g.Wait()

	sortSections(report.Loaded)
	sortSections(report.Superseded)

	if len(report.Loaded) > 0 && l.cache != nil {
		if err := l.cache.SaveSnapshot(ctx, l.store.Snapshot()); err != nil {
			l.log.WithError(err).Warn("failed to write cache")
		}
	}
	return report
}

// fetch loads one section and hands it to the store under tk
func (l *Loader) fetch(ctx context.Context, tk store.Ticket) error {
	switch tk.Section {
	case store.SectionUsers:
		users, err := l.backend.ListUsers(ctx)
		if err != nil {
			return err
		}
		return l.store.ReplaceUsers(tk, users)
	case store.SectionGroups:
		groups, err := l.backend.ListGroups(ctx)
		if err != nil {
			return err
		}
		return l.store.ReplaceGroups(tk, groups)
	case store.SectionMemberships:
		ms, err := l.backend.ListMemberships(ctx)
		if err != nil {
			return err
		}
		return l.store.ReplaceMemberships(tk, ms)
	case store.SectionTasks:
		tasks, err := l.backend.ListTasks(ctx, api.TaskQuery{WithAssignees: true})
		if err != nil {
			return err
		}
		return l.store.ReplaceTasks(tk, tasks)
	case store.SectionProjects:
		projects, err := l.backend.ListProjects(ctx, "")
		if err != nil {
			return err
		}
		return l.store.ReplaceProjects(tk, projects)
	}
	return errors.Errorf("unknown section %q", tk.Section)
}

func sortSections(secs []store.Section) {
	rank := make(map[store.Section]int, len(store.AllSections))
	for i, s := range store.AllSections {
		rank[s] = i
	}
	sort.Slice(secs, func(i, j int) bool { return rank[secs[i]] < rank[secs[j]] })
}

// Warm seeds the store from the cache. It reports whether anything was restored.
func (l *Loader) Warm(ctx context.Context) (bool, error) {
	if l.cache == nil {
		return false, nil
	}
	cached, err := l.cache.LoadSnapshot(ctx)
	if err != nil {
		return false, errors.Wrap(err, "read cache")
	}
	if len(cached.Sections) == 0 {
		return false, nil
	}
	return l.store.Seed(cached), nil
}

// UserScope is one user's tasks and projects, fetched without touching the store
type UserScope struct {
	UserID   string
	Tasks    []model.Task
	Projects []model.Project
}

// LoadUserScope fetches only the tasks and projects of userID
func (l *Loader) LoadUserScope(ctx context.Context, userID string) (UserScope, error) {
	scope := UserScope{UserID: userID}
	if strings.TrimSpace(userID) == "" {
		return scope, errors.New("user id is required")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := l.backend.ListTasks(gctx, api.TaskQuery{UserID: userID, WithAssignees: true})
		if err != nil {
			return errors.Wrap(err, "load user tasks")
		}
		scope.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		projects, err := l.backend.ListProjects(gctx, userID)
		if err != nil {
			return errors.Wrap(err, "load user projects")
		}
		scope.Projects = projects
		return nil
	})
	if err := g.Wait(); err != nil {
		return UserScope{UserID: userID}, err
	}
	return scope, nil
}
