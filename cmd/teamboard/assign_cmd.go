package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
)

func parseEntityKind(s string) (model.EntityKind, error) {
	switch model.EntityKind(s) {
	case model.EntityTask, model.EntityProject:
		return model.EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q (want task or project)", s)
}

func newAssignCmd(e *env, g *globalOptions, assign bool) *cobra.Command {
	var userID, groupID string

	use, short := "assign", "Assign a user or group to a task or project"
	if !assign {
		use, short = "unassign", "Remove a user or group from a task or project"
	}

	cmd := &cobra.Command{
		Use:   use + " task|project <id>",
		Short: short,
		Long: short + `.

A user cannot be assigned directly to an item one of their groups already
holds, and a group cannot be assigned to an item held directly by one of its
members. Such requests are refused before anything is sent.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseEntityKind(args[0])
			if err != nil {
				return err
			}
			id := args[1]

			items := store.SectionTasks
			if kind == model.EntityProject {
				items = store.SectionProjects
			}
			a, err := e.write(cmd.Context(), g, assignmentSections(items)...)
			if err != nil {
				return err
			}
			defer a.Close()

			var op func(*service.Mutator) error
			target, name := userID, ""
			switch {
			case userID != "" && assign:
				op = func(m *service.Mutator) error { return m.AssignUser(cmd.Context(), kind, id, userID) }
			case userID != "":
				op = func(m *service.Mutator) error { return m.UnassignUser(cmd.Context(), kind, id, userID) }
			case assign:
				target = groupID
				op = func(m *service.Mutator) error { return m.AssignGroup(cmd.Context(), kind, id, groupID) }
			default:
				target = groupID
				op = func(m *service.Mutator) error { return m.UnassignGroup(cmd.Context(), kind, id, groupID) }
			}
			if err := op(a.Mutator); err != nil {
				return describe(a, err)
			}

			snap := a.Store.Snapshot()
			if userID != "" {
				name = snap.UserName(target)
			} else {
				name = "@" + snap.GroupName(target)
			}
			verb := "assigned to"
			if !assign {
				verb = "removed from"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", name, verb, kind, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&groupID, "group", "", "group ID")
	cmd.MarkFlagsMutuallyExclusive("user", "group")
	cmd.MarkFlagsOneRequired("user", "group")
	return cmd
}
