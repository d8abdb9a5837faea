package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/logging"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
)

// Mutator applies validated writes and keeps the store in step with them
type Mutator struct {
	backend Backend
	store   *store.Store
	loader  *Loader
	toast   Toaster
	log     *logrus.Logger
}

// NewMutator creates a mutator. toast and log may be nil.
func NewMutator(backend Backend, st *store.Store, loader *Loader, toast Toaster, log *logrus.Logger) *Mutator {
	if toast == nil {
		toast = nopToaster{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Mutator{backend: backend, store: st, loader: loader, toast: toast, log: log}
}

// AssignUser directly assigns a user to a task or project
func (m *Mutator) AssignUser(ctx context.Context, kind model.EntityKind, entityID, userID string) error {
	return m.assign(ctx, kind, entityID, model.TargetUser, userID)
}

// AssignGroup assigns a group to a task or project
func (m *Mutator) AssignGroup(ctx context.Context, kind model.EntityKind, entityID, groupID string) error {
	return m.assign(ctx, kind, entityID, model.TargetGroup, groupID)
}

// UnassignUser removes a direct user assignment
func (m *Mutator) UnassignUser(ctx context.Context, kind model.EntityKind, entityID, userID string) error {
	return m.unassign(ctx, kind, entityID, model.TargetUser, userID)
}

// UnassignGroup removes a group assignment
func (m *Mutator) UnassignGroup(ctx context.Context, kind model.EntityKind, entityID, groupID string) error {
	return m.unassign(ctx, kind, entityID, model.TargetGroup, groupID)
}

func (m *Mutator) assign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error {
	title := fmt.Sprintf("Assign %s to %s", target, kind)
	snap := m.store.Snapshot()
	if err := snap.Ready(sectionFor(kind), store.SectionMemberships); err != nil {
		return err
	}
	entity, ok := snap.Assignable(kind, entityID)
	if !ok {
		return m.stale(ctx, kind, title, errors.Wrapf(api.ErrStaleWrite, "%s %s", kind, entityID))
	}
	if contains(direct(entity, target), targetID) {
		return nil
	}
	if err := reconcile.CheckAssignment(entity, target, targetID, snap.Index); err != nil {
		return m.conflict(title, snap, err)
	}

	err := m.backend.Assign(ctx, kind, entityID, target, targetID)
	if err != nil {
		return m.writeFailed(ctx, kind, title, snap, err)
	}

	m.patch(kind, entityID, func(users, groups []string) ([]string, []string) {
		if target == model.TargetUser {
			return append(users, targetID), groups
		}
		return users, append(groups, targetID)
	})
	m.log.WithFields(logrus.Fields{"entity": kind, "entity_id": entityID, "target": target, "target_id": targetID}).Info("assigned")
	m.toast.Success(title, targetName(snap, target, targetID)+" → "+entityID)
	return nil
}

func (m *Mutator) unassign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error {
	title := fmt.Sprintf("Unassign %s from %s", target, kind)
	snap := m.store.Snapshot()
	if err := snap.Ready(sectionFor(kind)); err != nil {
		return err
	}
	entity, ok := snap.Assignable(kind, entityID)
	if !ok {
		return m.stale(ctx, kind, title, errors.Wrapf(api.ErrStaleWrite, "%s %s", kind, entityID))
	}
	if !contains(direct(entity, target), targetID) {
		return nil
	}

	if err := m.backend.Unassign(ctx, kind, entityID, target, targetID); err != nil {
		return m.writeFailed(ctx, kind, title, snap, err)
	}

	m.patch(kind, entityID, func(users, groups []string) ([]string, []string) {
		if target == model.TargetUser {
			return without(users, targetID), groups
		}
		return users, without(groups, targetID)
	})
	m.log.WithFields(logrus.Fields{"entity": kind, "entity_id": entityID, "target": target, "target_id": targetID}).Info("unassigned")
	m.toast.Success(title, targetName(snap, target, targetID)+" ✕ "+entityID)
	return nil
}

// patch rewrites the direct assignments of one entity in the store
func (m *Mutator) patch(kind model.EntityKind, entityID string, fn func(users, groups []string) ([]string, []string)) {
	snap := m.store.Snapshot()
	switch kind {
	case model.EntityTask:
		if t, ok := snap.Task(entityID); ok {
			t = t.Clone()
			t.DirectUserIDs, t.GroupIDs = fn(t.DirectUserIDs, t.GroupIDs)
			m.store.PatchTask(t)
		}
	case model.EntityProject:
		if p, ok := snap.Project(entityID); ok {
			p = p.Clone()
			p.DirectUserIDs, p.GroupIDs = fn(p.DirectUserIDs, p.GroupIDs)
			m.store.PatchProject(p)
		}
	}
}

// CreateTask validates in, checks its assignees for conflicts and creates the task
func (m *Mutator) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	const title = "Create task"
	in.normalize()
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionMemberships); err != nil {
		return model.Task{}, err
	}

	verr := check(in)
	if in.ProjectID != "" && snap.State(store.SectionProjects).Loaded {
		if _, ok := snap.Project(in.ProjectID); !ok {
			verr.add("project_id", "is not a known project")
		}
	}
	if err := verr.orNil(); err != nil {
		return model.Task{}, err
	}
	if err := groupConflicts(in.UserIDs, in.GroupIDs, snap.Index); err != nil {
		return model.Task{}, m.conflict(title, snap, err)
	}

	p := api.TaskPayload{
		Title:    &in.Title,
		Deadline: ptr(api.FormatDate(*in.Deadline)),
		Progress: &in.Progress,
		UserIDs:  in.UserIDs,
		GroupIDs: in.GroupIDs,
	}
	if in.Description != "" {
		p.Description = &in.Description
	}
	status := model.StatusToDo
	if in.Status != "" {
		status, _ = model.NormalizeStatus(in.Status)
	}
	p.Status = ptr(string(status))
	if in.Priority != "" {
		prio, _ := model.NormalizePriority(in.Priority)
		p.Priority = ptr(string(prio))
	}
	if in.ProjectID != "" {
		p.ProjectID = &in.ProjectID
	}

	created, err := m.backend.CreateTask(ctx, p)
	if err != nil {
		return model.Task{}, m.writeFailed(ctx, model.EntityTask, title, snap, err)
	}
	if created.ID == "" {
		// nothing usable came back; pick it up from the next listing
		m.refetch(ctx, store.SectionTasks)
	} else {
		m.store.PatchTask(created)
	}
	m.log.WithFields(logrus.Fields{"entity": model.EntityTask, "entity_id": created.ID}).Info("task created")
	m.toast.Success(title, in.Title)
	return created, nil
}

// UpdateTask changes the set fields of a task
func (m *Mutator) UpdateTask(ctx context.Context, taskID string, u TaskUpdate) (model.Task, error) {
	const title = "Update task"
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionTasks); err != nil {
		return model.Task{}, err
	}
	current, ok := snap.Task(taskID)
	if !ok {
		return model.Task{}, m.stale(ctx, model.EntityTask, title, errors.Wrapf(api.ErrStaleWrite, "task %s", taskID))
	}
	if u.IsZero() {
		return current, nil
	}
	if err := u.check().orNil(); err != nil {
		return model.Task{}, err
	}

	next := current.Clone()
	var p api.TaskPayload
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		p.Title, next.Title = &t, t
	}
	if u.Description != nil {
		p.Description, next.Description = u.Description, *u.Description
	}
	if u.Status != nil {
		s, _ := model.NormalizeStatus(*u.Status)
		p.Status, next.Status = ptr(string(s)), string(s)
	}
	if u.Priority != nil {
		pr, _ := model.NormalizePriority(*u.Priority)
		p.Priority, next.Priority = ptr(string(pr)), string(pr)
	}
	if u.Deadline != nil {
		d := *u.Deadline
		p.Deadline, next.Deadline = ptr(api.FormatDate(d)), &d
	}
	if u.Progress != nil {
		p.Progress, next.Progress = u.Progress, *u.Progress
	}
	if u.ProjectID != nil {
		pid := strings.TrimSpace(*u.ProjectID)
		p.ProjectID = &pid
		if pid == "" {
			next.ProjectID = nil
		} else {
			next.ProjectID = &pid
		}
	}

	updated, err := m.backend.UpdateTask(ctx, taskID, p)
	if err != nil {
		return model.Task{}, m.writeFailed(ctx, model.EntityTask, title, snap, err)
	}
	if updated.ID == "" {
		updated = next
	}
	m.store.PatchTask(updated)
	m.log.WithFields(logrus.Fields{"entity": model.EntityTask, "entity_id": taskID}).Info("task updated")
	m.toast.Success(title, updated.Title)
	return updated, nil
}

// DeleteTask removes a task
func (m *Mutator) DeleteTask(ctx context.Context, taskID string) error {
	const title = "Delete task"
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionTasks); err != nil {
		return err
	}
	current, ok := snap.Task(taskID)
	if !ok {
		return m.stale(ctx, model.EntityTask, title, errors.Wrapf(api.ErrStaleWrite, "task %s", taskID))
	}
	if err := m.backend.DeleteTask(ctx, taskID); err != nil {
		return m.writeFailed(ctx, model.EntityTask, title, snap, err)
	}
	m.store.RemoveTask(taskID)
	m.log.WithFields(logrus.Fields{"entity": model.EntityTask, "entity_id": taskID}).Info("task deleted")
	m.toast.Success(title, current.Title)
	return nil
}

// CreateProject validates in and creates the project
func (m *Mutator) CreateProject(ctx context.Context, in ProjectInput) (model.Project, error) {
	const title = "Create project"
	in.normalize()
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionMemberships); err != nil {
		return model.Project{}, err
	}
	if err := check(in).orNil(); err != nil {
		return model.Project{}, err
	}
	if err := groupConflicts(in.UserIDs, in.GroupIDs, snap.Index); err != nil {
		return model.Project{}, m.conflict(title, snap, err)
	}

	p := api.ProjectPayload{
		Title:    &in.Title,
		Progress: &in.Progress,
		UserIDs:  in.UserIDs,
		GroupIDs: in.GroupIDs,
	}
	if in.Description != "" {
		p.Description = &in.Description
	}
	status := model.StatusToDo
	if in.Status != "" {
		status, _ = model.NormalizeStatus(in.Status)
	}
	p.Status = ptr(model.ProjectWireStatus(status))
	if in.StartDate != nil {
		p.StartDate = ptr(api.FormatDate(*in.StartDate))
	}
	if in.EndDate != nil {
		p.EndDate = ptr(api.FormatDate(*in.EndDate))
	}

	created, err := m.backend.CreateProject(ctx, p)
	if err != nil {
		return model.Project{}, m.writeFailed(ctx, model.EntityProject, title, snap, err)
	}
	if created.ID == "" {
		m.refetch(ctx, store.SectionProjects)
	} else {
		m.store.PatchProject(created)
	}
	m.log.WithFields(logrus.Fields{"entity": model.EntityProject, "entity_id": created.ID}).Info("project created")
	m.toast.Success(title, in.Title)
	return created, nil
}

// UpdateProject changes the set fields of a project
func (m *Mutator) UpdateProject(ctx context.Context, projectID string, u ProjectUpdate) (model.Project, error) {
	const title = "Update project"
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionProjects); err != nil {
		return model.Project{}, err
	}
	current, ok := snap.Project(projectID)
	if !ok {
		return model.Project{}, m.stale(ctx, model.EntityProject, title, errors.Wrapf(api.ErrStaleWrite, "project %s", projectID))
	}
	if u.IsZero() {
		return current, nil
	}
	if err := u.check(ProjectInput{StartDate: current.StartDate, EndDate: current.EndDate}).orNil(); err != nil {
		return model.Project{}, err
	}

	next := current.Clone()
	var p api.ProjectPayload
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		p.Title, next.Title = &t, t
	}
	if u.Description != nil {
		p.Description, next.Description = u.Description, *u.Description
	}
	if u.Status != nil {
		s, _ := model.NormalizeStatus(*u.Status)
		wire := model.ProjectWireStatus(s)
		p.Status, next.Status = &wire, wire
	}
	if u.StartDate != nil {
		d := *u.StartDate
		p.StartDate, next.StartDate = ptr(api.FormatDate(d)), &d
	}
	if u.EndDate != nil {
		d := *u.EndDate
		p.EndDate, next.EndDate = ptr(api.FormatDate(d)), &d
	}
	if u.Progress != nil {
		p.Progress, next.Progress = u.Progress, *u.Progress
	}

	updated, err := m.backend.UpdateProject(ctx, projectID, p)
	if err != nil {
		return model.Project{}, m.writeFailed(ctx, model.EntityProject, title, snap, err)
	}
	if updated.ID == "" {
		updated = next
	}
	m.store.PatchProject(updated)
	m.log.WithFields(logrus.Fields{"entity": model.EntityProject, "entity_id": projectID}).Info("project updated")
	m.toast.Success(title, updated.Title)
	return updated, nil
}

// DeleteProject removes a project; its tasks lose their project reference
func (m *Mutator) DeleteProject(ctx context.Context, projectID string) error {
	const title = "Delete project"
	snap := m.store.Snapshot()
	if err := snap.Ready(store.SectionProjects); err != nil {
		return err
	}
	current, ok := snap.Project(projectID)
	if !ok {
		return m.stale(ctx, model.EntityProject, title, errors.Wrapf(api.ErrStaleWrite, "project %s", projectID))
	}
	if err := m.backend.DeleteProject(ctx, projectID); err != nil {
		return m.writeFailed(ctx, model.EntityProject, title, snap, err)
	}
	m.store.RemoveProject(projectID)
	m.log.WithFields(logrus.Fields{"entity": model.EntityProject, "entity_id": projectID}).Info("project deleted")
	m.toast.Success(title, current.Title)
	return nil
}

// writeFailed routes a backend error: stale targets force a refetch,
// conflicts are described with names, the rest is wrapped.
func (m *Mutator) writeFailed(ctx context.Context, kind model.EntityKind, title string, snap *store.Snapshot, err error) error {
	if errors.Is(err, api.ErrStaleWrite) {
		return m.stale(ctx, kind, title, err)
	}
	var ce *reconcile.ConflictError
	if errors.As(err, &ce) {
		return m.conflict(title, snap, ce)
	}
	m.log.WithError(err).WithField("entity", kind).Warn(strings.ToLower(title) + " failed")
	m.toast.Failure(title, err)
	return errors.Wrap(err, strings.ToLower(title))
}

// stale reports a write against data the backend no longer has and
// refetches the affected section so the views catch up.
func (m *Mutator) stale(ctx context.Context, kind model.EntityKind, title string, err error) error {
	m.log.WithError(err).WithField("entity", kind).Warn("stale write, refetching")
	m.toast.Failure(title, err)
	m.refetch(ctx, sectionFor(kind))
	return err
}

func (m *Mutator) refetch(ctx context.Context, sec store.Section) {
	if m.loader == nil {
		return
	}
	if r := m.loader.Load(ctx, sec); !r.OK() {
		m.log.WithError(r.Err()).Warn("refetch failed")
	}
}

func (m *Mutator) conflict(title string, snap *store.Snapshot, err error) error {
	var ce *reconcile.ConflictError
	if errors.As(err, &ce) {
		m.toast.Failure(title, errors.New(ce.Describe(snap)))
	} else {
		m.toast.Failure(title, err)
	}
	return err
}

// groupConflicts checks a new entity's own assignee lists against each other
func groupConflicts(userIDs, groupIDs []string, idx *reconcile.Index) error {
	for _, gid := range groupIDs {
		if err := reconcile.CanAssignGroup(gid, userIDs, idx); err != nil {
			return err
		}
	}
	return nil
}

func direct(a reconcile.Assignable, target model.TargetKind) []string {
	if target == model.TargetUser {
		return a.DirectUsers()
	}
	return a.AssignedGroups()
}

func targetName(snap *store.Snapshot, target model.TargetKind, id string) string {
	var name string
	if target == model.TargetUser {
		name = snap.UserName(id)
	} else {
		name = snap.GroupName(id)
	}
	if name == "" {
		return id
	}
	return name
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
