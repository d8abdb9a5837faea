// Package service coordinates the backend, the store and the cache: it
// loads sections and applies validated writes.
package service

import (
	"context"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
)

// Backend is the remote API
type Backend interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
	ListMemberships(ctx context.Context) ([]model.Membership, error)
	ListTasks(ctx context.Context, q api.TaskQuery) ([]model.Task, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)

	CreateTask(ctx context.Context, p api.TaskPayload) (model.Task, error)
	UpdateTask(ctx context.Context, taskID string, p api.TaskPayload) (model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	CreateProject(ctx context.Context, p api.ProjectPayload) (model.Project, error)
	UpdateProject(ctx context.Context, projectID string, p api.ProjectPayload) (model.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	Assign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error
	Unassign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error
}

// Cache persists snapshots between runs
type Cache interface {
	SaveSnapshot(ctx context.Context, snap *store.Snapshot) error
	LoadSnapshot(ctx context.Context) (store.Cached, error)
}

// Toaster reports the outcome of writes to the user
type Toaster interface {
	Success(title, body string)
	Failure(title string, err error)
}

type nopToaster struct{}

func (nopToaster) Success(string, string) {}
func (nopToaster) Failure(string, error) {}

func sectionFor(kind model.EntityKind) store.Section {
	if kind == model.EntityProject {
		return store.SectionProjects
	}
	return store.SectionTasks
}
