package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
)

type listOptions struct {
	search    string
	status    string
	priority  string
	projectID string
	progress  int
	from      string
	to        string
	userID    string
	sort      string
	refresh   bool
	json      bool
}

// criteria turns the filter flags into reconcile criteria
func (o listOptions) criteria(cmd *cobra.Command, now time.Time) (reconcile.Criteria, error) {
	c := reconcile.Criteria{
		Search:    o.search,
		Status:    o.status,
		Priority:  o.priority,
		ProjectID: o.projectID,
	}
	if cmd.Flags().Changed("progress") {
		if !model.ValidProgress(o.progress) {
			return c, fmt.Errorf("--progress must be one of %v", model.ProgressSteps)
		}
		p := o.progress
		c.Progress = &p
	}
	if o.from != "" {
		from, err := parseDate(o.from, now)
		if err != nil {
			return c, fmt.Errorf("--from: %w", err)
		}
		c.From = &from
	}
	if o.to != "" {
		to, err := parseDate(o.to, now)
		if err != nil {
			return c, fmt.Errorf("--to: %w", err)
		}
		to = endOfDay(to)
		c.To = &to
	}
	if c.From != nil && c.To != nil && c.To.Before(*c.From) {
		return c, fmt.Errorf("--to is before --from")
	}
	return c, nil
}

// selectItems applies the user filter, the criteria and the sort order.
// Scoped lists already belong to the user.
func selectItems[T reconcile.Record](list []T, opts listOptions, crit reconcile.Criteria, idx *reconcile.Index, scoped bool) []T {
	if opts.userID != "" && !scoped {
		list = reconcile.AssignedTo(list, opts.userID, idx)
	}
	list = reconcile.Apply(list, crit)
	if opts.sort == "status" {
		list = reconcile.SortByStatusThenDeadline(list)
	}
	return list
}

func newListCmd(e *env, g *globalOptions, projects bool) *cobra.Command {
	var opts listOptions

	use, short := "tasks", "List tasks"
	if projects {
		use, short = "projects", "List projects"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + ` from the local cache, fetching when the cache is empty or
--refresh is set. Filters combine; dates accept 2026-01-15, today, tomorrow
or a weekday name. With --refresh, --user asks the API for only that user's
items.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.sort != "status" && opts.sort != "none" {
				return fmt.Errorf("--sort must be status or none, got %q", opts.sort)
			}
			crit, err := opts.criteria(cmd, time.Now())
			if err != nil {
				return err
			}

			items := store.SectionTasks
			if projects {
				items = store.SectionProjects
			}
			scoped := opts.refresh && opts.userID != "" && !g.offline

			sections := assignmentSections(items)
			if scoped {
				sections = []store.Section{store.SectionUsers, store.SectionGroups}
			}
			a, err := e.read(cmd.Context(), g, opts.refresh && !scoped, sections...)
			if err != nil {
				return err
			}
			defer a.Close()
			snap := a.Store.Snapshot()

			var scope service.UserScope
			if scoped {
				if scope, err = a.Loader.LoadUserScope(cmd.Context(), opts.userID); err != nil {
					return err
				}
			}

			if projects {
				list := snap.Projects
				if scoped {
					list = scope.Projects
				}
				list = selectItems(list, opts, crit, snap.Index, scoped)
				if opts.json {
					return printJSON(cmd.OutOrStdout(), list)
				}
				return printTable(cmd.OutOrStdout(), projectTable(snap, list))
			}

			list := snap.Tasks
			if scoped {
				list = scope.Tasks
			}
			list = selectItems(list, opts, crit, snap.Index, scoped)
			if opts.json {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printTable(cmd.OutOrStdout(), taskTable(snap, list))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.search, "search", "", "case-insensitive text in title or description")
	f.StringVar(&opts.status, "status", "", "status, any known spelling (to do, en cours, done...)")
	if !projects {
		f.StringVar(&opts.priority, "priority", "", "priority (low, medium, high)")
	}
	f.StringVar(&opts.projectID, "project", "", "project ID")
	f.IntVar(&opts.progress, "progress", 0, "exact progress step")
	f.StringVar(&opts.from, "from", "", "due on or after this date")
	f.StringVar(&opts.to, "to", "", "due on or before this date")
	f.StringVar(&opts.userID, "user", "", "only items this user is assigned to, directly or through a group")
	f.StringVar(&opts.sort, "sort", "status", "status (board order, then due date) or none")
	f.BoolVar(&opts.refresh, "refresh", false, "fetch from the API before listing")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	return cmd
}
