package service

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
)

// fakeBackend serves fixed collections and records writes
type fakeBackend struct {
	mu          sync.Mutex
	users       []model.User
	groups      []model.Group
	memberships []model.Membership
	tasks       []model.Task
	projects    []model.Project

	fail    map[string]error
	calls   []string
	lastTP  api.TaskPayload
	lastPP  api.ProjectPayload
	nextErr error
}

func (f *fakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if err := f.nextErr; err != nil {
		f.nextErr = nil
		return err
	}
	return f.fail[op]
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
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

func (f *fakeBackend) ListProjects(_ context.Context, userID string) ([]model.Project, error) {
	return f.projects, f.record("projects")
}

func (f *fakeBackend) CreateTask(_ context.Context, p api.TaskPayload) (model.Task, error) {
	if err := f.record("create task"); err != nil {
		return model.Task{}, err
	}
	f.lastTP = p
	t := model.Task{ID: "new", Title: *p.Title}
	t.DirectUserIDs = p.UserIDs
	t.GroupIDs = p.GroupIDs
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t, nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, id string, p api.TaskPayload) (model.Task, error) {
	f.lastTP = p
	return model.Task{}, f.record("update task")
}

func (f *fakeBackend) DeleteTask(context.Context, string) error {
	return f.record("delete task")
}

func (f *fakeBackend) CreateProject(_ context.Context, p api.ProjectPayload) (model.Project, error) {
	f.lastPP = p
	if err := f.record("create project"); err != nil {
		return model.Project{}, err
	}
	return model.Project{ID: "np", Title: *p.Title, Status: *p.Status}, nil
}

func (f *fakeBackend) UpdateProject(_ context.Context, id string, p api.ProjectPayload) (model.Project, error) {
	f.lastPP = p
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

// memCache keeps the last saved snapshot
type memCache struct {
	saves int
	last  *store.Snapshot
	load  store.Cached
}

func (c *memCache) SaveSnapshot(_ context.Context, snap *store.Snapshot) error {
	c.saves++
	c.last = snap
	return nil
}

func (c *memCache) LoadSnapshot(context.Context) (store.Cached, error) {
	return c.load, nil
}

type toastLog struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (t *toastLog) Success(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.success = append(t.success, title)
}

func (t *toastLog) Failure(title string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, title+": "+err.Error())
}

var errBoom = errors.New("boom")
