package main

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
)

func newTaskCmd(e *env, g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, update or delete tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(e, g),
		newTaskUpdateCmd(e, g),
		newTaskDeleteCmd(e, g),
	)
	return cmd
}

// taskFlags are shared by task create and task update
type taskFlags struct {
	title       string
	description string
	status      string
	priority    string
	deadline    string
	progress    int
	projectID   string
}

func (f *taskFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.status, "status", "", "status (to do, in progress, done...)")
	fs.StringVar(&f.priority, "priority", "", "priority (low, medium, high)")
	fs.StringVar(&f.deadline, "deadline", "", "deadline (2026-01-15, tomorrow, friday...)")
	fs.IntVar(&f.progress, "progress", 0, "progress (0, 25, 50, 75 or 100)")
	fs.StringVar(&f.projectID, "project", "", "project ID")
}

// optionalDate parses a date flag; empty means none
func optionalDate(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDate(value, now)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func newTaskCreateCmd(e *env, g *globalOptions) *cobra.Command {
	var (
		f        taskFlags
		userIDs  []string
		groupIDs []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deadline, err := optionalDate("deadline", f.deadline, time.Now())
			if err != nil {
				return err
			}
			in := service.TaskInput{
				Title:       f.title,
				Description: f.description,
				Status:      f.status,
				Priority:    f.priority,
				Deadline:    deadline,
				Progress:    f.progress,
				ProjectID:   f.projectID,
				UserIDs:     userIDs,
				GroupIDs:    groupIDs,
			}

			sections := assignmentSections(store.SectionTasks)
			if in.ProjectID != "" {
				sections = append(sections, store.SectionProjects)
			}
			a, err := e.write(cmd.Context(), g, sections...)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.Mutator.CreateTask(cmd.Context(), in)
			if err != nil {
				return describe(a, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %s %q\n", task.ID, task.Title)
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&userIDs, "user", nil, "assign users by ID (repeatable)")
	cmd.Flags().StringSliceVar(&groupIDs, "group", nil, "assign groups by ID (repeatable)")
	return cmd
}

func newTaskUpdateCmd(e *env, g *globalOptions) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change the fields given as flags; others keep their values.
Assignments are changed with the assign and unassign commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u service.TaskUpdate
			fs := cmd.Flags()
			if fs.Changed("title") {
				u.Title = &f.title
			}
			if fs.Changed("description") {
				u.Description = &f.description
			}
			if fs.Changed("status") {
				u.Status = &f.status
			}
			if fs.Changed("priority") {
				u.Priority = &f.priority
			}
			if fs.Changed("deadline") {
				d, err := optionalDate("deadline", f.deadline, time.Now())
				if err != nil {
					return err
				}
				if d == nil {
					return errors.New("--deadline cannot be cleared")
				}
				u.Deadline = d
			}
			if fs.Changed("progress") {
				u.Progress = &f.progress
			}
			if fs.Changed("project") {
				u.ProjectID = &f.projectID
			}
			if u.IsZero() {
				return errors.New("nothing to update; pass at least one field flag")
			}

			sections := []store.Section{store.SectionTasks}
			if u.ProjectID != nil {
				sections = append(sections, store.SectionProjects)
			}
			a, err := e.write(cmd.Context(), g, sections...)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.Mutator.UpdateTask(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task %s %q\n", task.ID, task.Title)
			return nil
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newTaskDeleteCmd(e *env, g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.write(cmd.Context(), g, store.SectionTasks)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Mutator.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", args[0])
			return nil
		},
	}
}
