package main

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/model"
)

// fakeBackend serves fixed collections and counts calls
type fakeBackend struct {
	mu          sync.Mutex
	users       []model.User
	groups      []model.Group
	memberships []model.Membership
	tasks       []model.Task
	projects    []model.Project

	fail  map[string]error
	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	due := func(m time.Month, d int) *time.Time {
		t := time.Date(2026, m, d, 0, 0, 0, 0, time.Local)
		return &t
	}
	return &fakeBackend{
		users:       []model.User{{ID: "u1", Name: "Ann"}, {ID: "u2", Name: "Bob"}},
		groups:      []model.Group{{ID: "g1", Name: "Ops"}},
		memberships: []model.Membership{{GroupID: "g1", UserID: "u2"}},
		tasks: []model.Task{
			{ID: "t1", Title: "Ship release", Status: "pending", Deadline: due(11, 2), DirectUserIDs: []string{"u1"}},
			{ID: "t2", Title: "Fix login", Status: "en cours", Deadline: due(10, 20), GroupIDs: []string{"g1"}},
			{ID: "t3", Title: "Write docs", Status: "terminé", Deadline: due(9, 1), DirectUserIDs: []string{"u1"}},
			{ID: "t4", Title: "Rotate keys", Status: "blocked", DirectUserIDs: []string{"u2"}},
		},
		projects: []model.Project{{ID: "p1", Title: "Website", Status: "in_progress", DirectUserIDs: []string{"u1"}}},
		fail:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) ListUsers(context.Context) ([]model.User, error) {
	return f.users, f.record("users")
}

func (f *fakeBackend) ListGroups(context.Context) ([]model.Group, error) {
	return f.groups, f.record("groups")
}

func (f *fakeBackend) ListMemberships(context.Context) ([]model.Membership, error) {
	return f.memberships, f.record("memberships")
}

func (f *fakeBackend) ListTasks(_ context.Context, q api.TaskQuery) ([]model.Task, error) {
	if err := f.record("tasks"); err != nil {
		return nil, err
	}
	if q.UserID == "" {
		return f.tasks, nil
	}
	var out []model.Task
	for _, t := range f.tasks {
		for _, u := range t.DirectUserIDs {
			if u == q.UserID {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeBackend) ListProjects(context.Context, string) ([]model.Project, error) {
	return f.projects, f.record("projects")
}

func (f *fakeBackend) CreateTask(_ context.Context, p api.TaskPayload) (model.Task, error) {
	if err := f.record("create task"); err != nil {
		return model.Task{}, err
	}
	return model.Task{ID: "t9", Title: *p.Title, DirectUserIDs: p.UserIDs, GroupIDs: p.GroupIDs}, nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, id string, _ api.TaskPayload) (model.Task, error) {
	return model.Task{}, f.record("update task")
}

func (f *fakeBackend) DeleteTask(context.Context, string) error {
	return f.record("delete task")
}

func (f *fakeBackend) CreateProject(_ context.Context, p api.ProjectPayload) (model.Project, error) {
	if err := f.record("create project"); err != nil {
		return model.Project{}, err
	}
	return model.Project{ID: "p9", Title: *p.Title}, nil
}

func (f *fakeBackend) UpdateProject(context.Context, string, api.ProjectPayload) (model.Project, error) {
	return model.Project{}, f.record("update project")
}

func (f *fakeBackend) DeleteProject(context.Context, string) error {
	return f.record("delete project")
}

func (f *fakeBackend) Assign(context.Context, model.EntityKind, string, model.TargetKind, string) error {
	return f.record("assign")
}

func (f *fakeBackend) Unassign(context.Context, model.EntityKind, string, model.TargetKind, string) error {
	return f.record("unassign")
}

var errBoom = errors.New("boom")
