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

func newProjectCmd(e *env, g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, update or delete projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(e, g),
		newProjectUpdateCmd(e, g),
		newProjectDeleteCmd(e, g),
	)
	return cmd
}

type projectFlags struct {
	title       string
	description string
	status      string
	start       string
	end         string
	progress    int
}

func (f *projectFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.status, "status", "", "status (pending, in progress, done...)")
	fs.StringVar(&f.start, "start", "", "start date")
	fs.StringVar(&f.end, "end", "", "end date")
	fs.IntVar(&f.progress, "progress", 0, "progress (0, 25, 50, 75 or 100)")
}

func newProjectCreateCmd(e *env, g *globalOptions) *cobra.Command {
	var (
		f        projectFlags
		userIDs  []string
		groupIDs []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			start, err := optionalDate("start", f.start, now)
			if err != nil {
				return err
			}
			end, err := optionalDate("end", f.end, now)
			if err != nil {
				return err
			}
			in := service.ProjectInput{
				Title:       f.title,
				Description: f.description,
				Status:      f.status,
				StartDate:   start,
				EndDate:     end,
				Progress:    f.progress,
				UserIDs:     userIDs,
				GroupIDs:    groupIDs,
			}

			a, err := e.write(cmd.Context(), g, assignmentSections(store.SectionProjects)...)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Mutator.CreateProject(cmd.Context(), in)
			if err != nil {
				return describe(a, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %s %q\n", p.ID, p.Title)
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&userIDs, "user", nil, "assign users by ID (repeatable)")
	cmd.Flags().StringSliceVar(&groupIDs, "group", nil, "assign groups by ID (repeatable)")
	return cmd
}

func newProjectUpdateCmd(e *env, g *globalOptions) *cobra.Command {
	var f projectFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u service.ProjectUpdate
			fs := cmd.Flags()
			now := time.Now()
			if fs.Changed("title") {
				u.Title = &f.title
			}
			if fs.Changed("description") {
				u.Description = &f.description
			}
			if fs.Changed("status") {
				u.Status = &f.status
			}
			if fs.Changed("start") {
				d, err := optionalDate("start", f.start, now)
				if err != nil {
					return err
				}
				u.StartDate = d
			}
			if fs.Changed("end") {
				d, err := optionalDate("end", f.end, now)
				if err != nil {
					return err
				}
				u.EndDate = d
			}
			if fs.Changed("progress") {
				u.Progress = &f.progress
			}
			if u.IsZero() {
				return errors.New("nothing to update; pass at least one field flag")
			}

			a, err := e.write(cmd.Context(), g, store.SectionProjects)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Mutator.UpdateProject(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated project %s %q\n", p.ID, p.Title)
			return nil
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newProjectDeleteCmd(e *env, g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Long:  "Delete a project. Its tasks stay and lose their project link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.write(cmd.Context(), g, store.SectionProjects, store.SectionTasks)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Mutator.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted project %s\n", args[0])
			return nil
		},
	}
}
