package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
)

type workloadOptions struct {
	groups   bool
	projects bool
	refresh  bool
	json     bool
}

func newWorkloadCmd(e *env, g *globalOptions) *cobra.Command {
	var opts workloadOptions

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Show per-user or per-group workload",
		Long: `Show how many tasks (or projects) each user carries, counting direct
assignments and assignments through a group once each. With --groups, show
each group's items and which members also hold them directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := store.SectionTasks
			if opts.projects {
				items = store.SectionProjects
			}
			a, err := e.read(cmd.Context(), g, opts.refresh, assignmentSections(items)...)
			if err != nil {
				return err
			}
			defer a.Close()
			s := a.Store.Snapshot()

			if opts.groups {
				var rows []reconcile.GroupWorkload
				if opts.projects {
					rows = reconcile.PerGroupWorkload(s.Groups, s.Projects, s.Index)
				} else {
					rows = reconcile.PerGroupWorkload(s.Groups, s.Tasks, s.Index)
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				t := newTable("Group", "Members", "Total", "Done", "Also direct")
				for _, w := range rows {
					var direct []string
					for _, uc := range w.PerUser {
						if uc.Count > 0 {
							direct = append(direct, fmt.Sprintf("%s (%d)", s.UserName(uc.UserID), uc.Count))
						}
					}
					t.Row(s.GroupName(w.GroupID), fmt.Sprint(w.Members), fmt.Sprint(w.Total), fmt.Sprint(w.Completed), strings.Join(direct, ", "))
				}
				return printTable(cmd.OutOrStdout(), t)
			}

			var rows []reconcile.UserWorkload
			if opts.projects {
				rows = reconcile.PerUserWorkload(s.Users, s.Projects, s.Index)
			} else {
				rows = reconcile.PerUserWorkload(s.Users, s.Tasks, s.Index)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			t := newTable("User", "Direct", "Via group", "Total", "Done", "Pending")
			for _, w := range rows {
				t.Row(s.UserName(w.UserID), fmt.Sprint(w.Direct), fmt.Sprint(w.ViaGroup), fmt.Sprint(w.Total), fmt.Sprint(w.Completed), fmt.Sprint(w.Pending))
			}
			return printTable(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().BoolVar(&opts.groups, "groups", false, "one row per group instead of per user")
	cmd.Flags().BoolVar(&opts.projects, "projects", false, "count projects instead of tasks")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "fetch from the API first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	return cmd
}
