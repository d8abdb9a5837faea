package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/model"
)

// id accepts identifiers sent as JSON strings or numbers
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrapf(err, "invalid id %s", b)
	}
	*i = id(n.String())
	return nil
}

// ref is an id given either bare or as an object carrying "id"
type ref string

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID id `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = ref(obj.ID)
		return nil
	}
	var v id
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*r = ref(v)
	return nil
}

func refs(lists ...[]ref) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, r := range list {
			s := string(r)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// progress accepts 50, 50.0 or "50"
type progress int

func (p *progress) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
		if raw == "" {
			*p = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid progress %s", b)
	}
	*p = progress(model.ClampProgress(int(f + 0.5)))
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// timestamp accepts RFC 3339 or a bare date; empty and null mean unset
type timestamp struct {
	t *time.Time
}

func (ts *timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		ts.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrapf(err, "invalid date %s", b)
	}
	t, err := parseDate(s, time.Local)
	if err != nil {
		return err
	}
	ts.t = t
	return nil
}

func (ts timestamp) ptr() *time.Time { return ts.t }

func (ts timestamp) value() time.Time {
	if ts.t == nil {
		return time.Time{}
	}
	return *ts.t
}

// parseDate reads a wire date. Values without a zone, bare dates included,
// are read in loc so a due date stays on its calendar day.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Errorf("unrecognized date %q", s)
}

type userDTO struct {
	ID        id        `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt timestamp `json:"created_at"`
}

func (d userDTO) toModel() model.User {
	name := d.Name
	if name == "" {
		name = d.Username
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(d.Role)))
	if role == "" {
		role = model.RoleMember
	}
	return model.User{
		ID:        string(d.ID),
		Email:     d.Email,
		Name:      name,
		Role:      role,
		CreatedAt: d.CreatedAt.value(),
	}
}

type groupDTO struct {
	ID          id        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   timestamp `json:"created_at"`
}

func (d groupDTO) toModel() model.Group {
	return model.Group{
		ID:          string(d.ID),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.value(),
	}
}

type membershipDTO struct {
	GroupID id `json:"group_id"`
	UserID  id `json:"user_id"`
}

type attachmentDTO struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	MIMEType   string    `json:"mime_type"`
	UploadedAt timestamp `json:"uploaded_at"`
}

func attachments(in []attachmentDTO) []model.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Attachment, len(in))
	for i, a := range in {
		out[i] = model.Attachment{
			Name:       a.Name,
			Path:       a.Path,
			Size:       a.Size,
			MIMEType:   a.MIMEType,
			UploadedAt: a.UploadedAt.value(),
		}
	}
	return out
}

// assigneesDTO is the shape returned with include=assignees
type assigneesDTO struct {
	Users  []ref `json:"users"`
	Groups []ref `json:"groups"`
}

type taskDTO struct {
	ID          id              `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	Deadline    timestamp       `json:"deadline"`
	Progress    progress        `json:"progress"`
	ProjectID   id              `json:"project_id"`
	UserIDs     []ref           `json:"user_ids"`
	GroupIDs    []ref           `json:"group_ids"`
	Users       []ref           `json:"users"`
	Groups      []ref           `json:"groups"`
	Assignees   *assigneesDTO   `json:"assignees"`
	Attachments []attachmentDTO `json:"attachments"`
	CreatedAt   timestamp       `json:"created_at"`
	UpdatedAt   timestamp       `json:"updated_at"`
}

func (d taskDTO) toModel() model.Task {
	users, groups := [][]ref{d.UserIDs, d.Users}, [][]ref{d.GroupIDs, d.Groups}
	if d.Assignees != nil {
		users = append(users, d.Assignees.Users)
		groups = append(groups, d.Assignees.Groups)
	}
	t := model.Task{
		ID:            string(d.ID),
		Title:         d.Title,
		Description:   d.Description,
		Status:        strings.TrimSpace(d.Status),
		Priority:      strings.TrimSpace(d.Priority),
		Deadline:      d.Deadline.ptr(),
		Progress:      int(d.Progress),
		DirectUserIDs: refs(users...),
		GroupIDs:      refs(groups...),
		Attachments:   attachments(d.Attachments),
		CreatedAt:     d.CreatedAt.value(),
		UpdatedAt:     d.UpdatedAt.value(),
	}
	if d.ProjectID != "" {
		pid := string(d.ProjectID)
		t.ProjectID = &pid
	}
	return t
}

type projectDTO struct {
	ID          id              `json:"id"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	StartDate   timestamp       `json:"start_date"`
	EndDate     timestamp       `json:"end_date"`
	Progress    progress        `json:"progress"`
	UserIDs     []ref           `json:"user_ids"`
	GroupIDs    []ref           `json:"group_ids"`
	Users       []ref           `json:"users"`
	Groups      []ref           `json:"groups"`
	Attachments []attachmentDTO `json:"attachments"`
	CreatedAt   timestamp       `json:"created_at"`
	UpdatedAt   timestamp       `json:"updated_at"`
}

func (d projectDTO) toModel() model.Project {
	title := d.Title
	if title == "" {
		title = d.Name
	}
	return model.Project{
		ID:            string(d.ID),
		Title:         title,
		Description:   d.Description,
		Status:        strings.TrimSpace(d.Status),
		StartDate:     d.StartDate.ptr(),
		EndDate:       d.EndDate.ptr(),
		Progress:      int(d.Progress),
		DirectUserIDs: refs(d.UserIDs, d.Users),
		GroupIDs:      refs(d.GroupIDs, d.Groups),
		Attachments:   attachments(d.Attachments),
		CreatedAt:     d.CreatedAt.value(),
		UpdatedAt:     d.UpdatedAt.value(),
	}
}

// TaskPayload is the body of task create and update calls. Nil fields are
// left out, so an update only touches what is set.
type TaskPayload struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Deadline    *string  `json:"deadline,omitempty"`
	Progress    *int     `json:"progress,omitempty"`
	ProjectID   *string  `json:"project_id,omitempty"`
	UserIDs     []string `json:"user_ids,omitempty"`
	GroupIDs    []string `json:"group_ids,omitempty"`
}

// ProjectPayload is the body of project create and update calls
type ProjectPayload struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Progress    *int     `json:"progress,omitempty"`
	UserIDs     []string `json:"user_ids,omitempty"`
	GroupIDs    []string `json:"group_ids,omitempty"`
}

// FormatDate renders a date the way write calls expect it
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// conflictDTO is the body of a 409 answer to an assignment
type conflictDTO struct {
	Error               string `json:"error"`
	ConflictingUserIDs  []ref  `json:"conflicting_user_ids"`
	ConflictingGroupIDs []ref  `json:"conflicting_group_ids"`
}

// decodeList accepts a bare JSON array or an object wrapping it in "data"
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, errors.Wrap(err, "decode envelope")
		}
		return env.Data, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, errors.Wrap(err, "decode list")
	}
	return out, nil
}
