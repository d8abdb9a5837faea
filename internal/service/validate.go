package service

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/dori/teamboard/internal/model"
)

// ValidationError lists every invalid input field with a readable message
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// TaskInput is a new task
type TaskInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,status"`
	Priority    string     `json:"priority" validate:"omitempty,priority"`
	Deadline    *time.Time `json:"deadline" validate:"required"`
	Progress    int        `json:"progress" validate:"progress"`
	ProjectID   string     `json:"project_id"`
	UserIDs     []string   `json:"user_ids"`
	GroupIDs    []string   `json:"group_ids"`
}

// TaskUpdate changes the non-nil fields of a task
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Deadline    *time.Time
	Progress    *int
	ProjectID   *string
}

// IsZero reports whether the update changes nothing
func (u TaskUpdate) IsZero() bool {
	return u == TaskUpdate{}
}

// ProjectInput is a new project
type ProjectInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Progress    int        `json:"progress" validate:"progress"`
	UserIDs     []string   `json:"user_ids"`
	GroupIDs    []string   `json:"group_ids"`
}

// ProjectUpdate changes the non-nil fields of a project
type ProjectUpdate struct {
	Title       *string
	Description *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
	Progress    *int
}

// IsZero reports whether the update changes nothing
func (u ProjectUpdate) IsZero() bool {
	return u == ProjectUpdate{}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	must(v.RegisterValidation("notblank", validators.NotBlank))
	must(v.RegisterValidation("progress", func(fl validator.FieldLevel) bool {
		return model.ValidProgress(int(fl.Field().Int()))
	}))
	must(v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := model.NormalizeStatus(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := model.NormalizePriority(fl.Field().String())
		return ok
	}))
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(TaskInput)
		if len(in.UserIDs)+len(in.GroupIDs) == 0 {
			sl.ReportError(in.UserIDs, "assignees", "UserIDs", "assignee", "")
		}
	}, TaskInput{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(ProjectInput)
		if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
			sl.ReportError(in.EndDate, "end_date", "EndDate", "afterstart", "")
		}
	}, ProjectInput{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func message(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "progress":
		return fmt.Sprintf("must be one of %s", progressSteps())
	case "status":
		return "is not a recognized status"
	case "priority":
		return "is not a recognized priority"
	case "assignee":
		return "needs at least one user or group"
	case "afterstart":
		return "must not be before the start date"
	case "notblank":
		return "must not be blank"
	default:
		return "is invalid (" + tag + ")"
	}
}

func progressSteps() string {
	steps := make([]string, len(model.ProgressSteps))
	for i, s := range model.ProgressSteps {
		steps[i] = fmt.Sprint(s)
	}
	return strings.Join(steps, ", ")
}

// check runs struct validation and converts the result
func check(v any) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return verr
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.add("input", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), message(fe.Tag()))
	}
	return verr
}

// checkVar validates one updated field
func checkVar(verr *ValidationError, field string, value any, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		verr.add(field, message(fieldErrs[0].Tag()))
		return
	}
	verr.add(field, err.Error())
}

func trimAll(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (in *TaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	in.Priority = strings.TrimSpace(in.Priority)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.UserIDs = trimAll(in.UserIDs)
	in.GroupIDs = trimAll(in.GroupIDs)
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	in.UserIDs = trimAll(in.UserIDs)
	in.GroupIDs = trimAll(in.GroupIDs)
}

func (u TaskUpdate) check() *ValidationError {
	verr := &ValidationError{}
	if u.Title != nil {
		checkVar(verr, "title", *u.Title, "notblank")
	}
	if u.Status != nil {
		checkVar(verr, "status", *u.Status, "status")
	}
	if u.Priority != nil {
		checkVar(verr, "priority", *u.Priority, "priority")
	}
	if u.Progress != nil {
		checkVar(verr, "progress", *u.Progress, "progress")
	}
	return verr
}

func (u ProjectUpdate) check(current ProjectInput) *ValidationError {
	verr := &ValidationError{}
	if u.Title != nil {
		checkVar(verr, "title", *u.Title, "notblank")
	}
	if u.Status != nil {
		checkVar(verr, "status", *u.Status, "status")
	}
	if u.Progress != nil {
		checkVar(verr, "progress", *u.Progress, "progress")
	}
	start, end := current.StartDate, current.EndDate
	if u.StartDate != nil {
		start = u.StartDate
	}
	if u.EndDate != nil {
		end = u.EndDate
	}
	if start != nil && end != nil && end.Before(*start) {
		verr.add("end_date", message("afterstart"))
	}
	return verr
}
