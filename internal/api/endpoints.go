package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
)

// TaskQuery narrows a task listing
type TaskQuery struct {
	UserID    string
	ProjectID string
	// WithAssignees asks for user and group assignees inline.
	WithAssignees bool
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if q.UserID != "" {
		v.Set("user_id", q.UserID)
	}
	if q.ProjectID != "" {
		v.Set("project_id", q.ProjectID)
	}
	if q.WithAssignees {
		v.Set("include", "assignees")
	}
	return v
}

// list fetches a collection and converts every element
func list[D any, M any](ctx context.Context, c *Client, op, path string, query url.Values, conv func(D) M) ([]M, error) {
	body, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, &FetchError{Op: op, Status: statusOf(err), Err: err}
	}
	dtos, err := decodeList[D](body)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	out := make([]M, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, conv(d))
	}
	return out, nil
}

// ListUsers returns every user
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	return list(ctx, c, "list users", "/users", nil, userDTO.toModel)
}

// ListGroups returns every group
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	return list(ctx, c, "list groups", "/groups", nil, groupDTO.toModel)
}

// ListMemberships returns every group membership
func (c *Client) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	ms, err := list(ctx, c, "list memberships", "/memberships", nil, func(d membershipDTO) model.Membership {
		return model.Membership{GroupID: string(d.GroupID), UserID: string(d.UserID)}
	})
	if err != nil {
		return nil, err
	}
	out := ms[:0]
	for _, m := range ms {
		if m.GroupID != "" && m.UserID != "" {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListGroupMembers returns the memberships of one group
func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]model.Membership, error) {
	members, err := list(ctx, c, "list group members", "/groups/"+url.PathEscape(groupID)+"/members", nil,
		func(r ref) string { return string(r) })
	if err != nil {
		return nil, err
	}
	out := make([]model.Membership, 0, len(members))
	for _, uid := range refs(toRefs(members)) {
		out = append(out, model.Membership{GroupID: groupID, UserID: uid})
	}
	return out, nil
}

func toRefs(ids []string) []ref {
	out := make([]ref, len(ids))
	for i, s := range ids {
		out[i] = ref(s)
	}
	return out
}

// ListTasks returns tasks matching q
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	return list(ctx, c, "list tasks", "/tasks", q.values(), taskDTO.toModel)
}

// ListProjects returns all projects, or those of userID when set
func (c *Client) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	var q url.Values
	if userID != "" {
		q = url.Values{"user_id": {userID}}
	}
	return list(ctx, c, "list projects", "/projects", q, projectDTO.toModel)
}

// write sends a mutation and decodes the answer into out when given
func (c *Client) write(ctx context.Context, op, method, path string, in, out any) error {
	body, err := c.send(ctx, method, path, nil, in)
	if err != nil {
		switch statusOf(err) {
		case http.StatusNotFound, http.StatusGone:
			return errors.Wrap(ErrStaleWrite, op)
		}
		return errors.Wrap(err, op)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

func collection(kind model.EntityKind) (string, error) {
	switch kind {
	case model.EntityTask:
		return "/tasks", nil
	case model.EntityProject:
		return "/projects", nil
	}
	return "", errors.Errorf("unknown entity kind %q", kind)
}

func entityPath(kind model.EntityKind, entityID string) (string, error) {
	base, err := collection(kind)
	if err != nil {
		return "", err
	}
	return base + "/" + url.PathEscape(entityID), nil
}

// CreateTask creates a task and returns it as stored
func (c *Client) CreateTask(ctx context.Context, p TaskPayload) (model.Task, error) {
	var d taskDTO
	if err := c.write(ctx, "create task", http.MethodPost, "/tasks", p, &d); err != nil {
		return model.Task{}, err
	}
	return d.toModel(), nil
}

// UpdateTask changes the set fields of a task
func (c *Client) UpdateTask(ctx context.Context, taskID string, p TaskPayload) (model.Task, error) {
	path, _ := entityPath(model.EntityTask, taskID)
	var d taskDTO
	if err := c.write(ctx, "update task", http.MethodPatch, path, p, &d); err != nil {
		return model.Task{}, err
	}
	return d.toModel(), nil
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	path, _ := entityPath(model.EntityTask, taskID)
	return c.write(ctx, "delete task", http.MethodDelete, path, nil, nil)
}

// CreateProject creates a project and returns it as stored
func (c *Client) CreateProject(ctx context.Context, p ProjectPayload) (model.Project, error) {
	var d projectDTO
	if err := c.write(ctx, "create project", http.MethodPost, "/projects", p, &d); err != nil {
		return model.Project{}, err
	}
	return d.toModel(), nil
}

// UpdateProject changes the set fields of a project
func (c *Client) UpdateProject(ctx context.Context, projectID string, p ProjectPayload) (model.Project, error) {
	path, _ := entityPath(model.EntityProject, projectID)
	var d projectDTO
	if err := c.write(ctx, "update project", http.MethodPatch, path, p, &d); err != nil {
		return model.Project{}, err
	}
	return d.toModel(), nil
}

// DeleteProject removes a project
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	path, _ := entityPath(model.EntityProject, projectID)
	return c.write(ctx, "delete project", http.MethodDelete, path, nil, nil)
}

func targetSegment(target model.TargetKind) (string, string, error) {
	switch target {
	case model.TargetUser:
		return "users", "user_id", nil
	case model.TargetGroup:
		return "groups", "group_id", nil
	}
	return "", "", errors.Errorf("unknown assignment target %q", target)
}

// Assign records a direct user or group assignment
func (c *Client) Assign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error {
	path, err := entityPath(kind, entityID)
	if err != nil {
		return err
	}
	seg, field, err := targetSegment(target)
	if err != nil {
		return err
	}
	op := "assign " + string(target) + " to " + string(kind)
	body := map[string]string{field: targetID}
	err = c.write(ctx, op, http.MethodPost, path+"/"+seg, body, nil)
	if statusOf(err) == http.StatusConflict {
		if ce := conflictFrom(err, target, targetID); ce != nil {
			return ce
		}
	}
	return err
}

// Unassign removes a direct user or group assignment
func (c *Client) Unassign(ctx context.Context, kind model.EntityKind, entityID string, target model.TargetKind, targetID string) error {
	path, err := entityPath(kind, entityID)
	if err != nil {
		return err
	}
	seg, _, err := targetSegment(target)
	if err != nil {
		return err
	}
	op := "unassign " + string(target) + " from " + string(kind)
	return c.write(ctx, op, http.MethodDelete, path+"/"+seg+"/"+url.PathEscape(targetID), nil, nil)
}

// conflictFrom turns a 409 body naming colliding ids into a ConflictError
func conflictFrom(err error, target model.TargetKind, targetID string) *reconcile.ConflictError {
	var he *HTTPError
	if !errors.As(err, &he) {
		return nil
	}
	var body conflictDTO
	if json.Unmarshal(he.body, &body) != nil {
		return nil
	}
	users := refs(body.ConflictingUserIDs)
	groups := refs(body.ConflictingGroupIDs)
	if len(users) == 0 && len(groups) == 0 {
		return nil
	}
	return &reconcile.ConflictError{
		Target:              target,
		TargetID:            targetID,
		ConflictingUserIDs:  users,
		ConflictingGroupIDs: groups,
	}
}
