package service

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/model"
)

// ErrOffline is returned by every call of the Offline backend
var ErrOffline = errors.New("offline: no API configured")

// Offline is a Backend that refuses every call. Loads against it fail and
// leave cached sections in place.
type Offline struct{}

var _ Backend = Offline{}

func (Offline) ListUsers(context.Context) ([]model.User, error) { return nil, ErrOffline }

func (Offline) ListGroups(context.Context) ([]model.Group, error) { return nil, ErrOffline }

func (Offline) ListMemberships(context.Context) ([]model.Membership, error) {
	return nil, ErrOffline
}

func (Offline) ListTasks(context.Context, api.TaskQuery) ([]model.Task, error) {
	return nil, ErrOffline
}

func (Offline) ListProjects(context.Context, string) ([]model.Project, error) {
	return nil, ErrOffline
}

func (Offline) CreateTask(context.Context, api.TaskPayload) (model.Task, error) {
	return model.Task{}, ErrOffline
}

func (Offline) UpdateTask(context.Context, string, api.TaskPayload) (model.Task, error) {
	return model.Task{}, ErrOffline
}

func (Offline) DeleteTask(context.Context, string) error { return ErrOffline }

func (Offline) CreateProject(context.Context, api.ProjectPayload) (model.Project, error) {
	return model.Project{}, ErrOffline
}

func (Offline) UpdateProject(context.Context, string, api.ProjectPayload) (model.Project, error) {
	return model.Project{}, ErrOffline
}

func (Offline) DeleteProject(context.Context, string) error { return ErrOffline }

func (Offline) Assign(context.Context, model.EntityKind, string, model.TargetKind, string) error {
	return ErrOffline
}

func (Offline) Unassign(context.Context, model.EntityKind, string, model.TargetKind, string) error {
	return ErrOffline
}
