package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/app"
	"github.com/dori/teamboard/internal/ui"
	"github.com/dori/teamboard/internal/ui/theme"
)

type tuiOptions struct {
	view  string
	theme string
}

func newRootCmd(e *env) *cobra.Command {
	var (
		g    globalOptions
		opts tuiOptions
	)

	cmd := &cobra.Command{
		Use:   "teamboard",
		Short: "Team workload dashboard for a task and project API",
		Long: `teamboard shows who is working on what: per-user and per-group workload,
a status board, a deadline calendar and statistics, computed locally from
the users, groups, memberships, tasks and projects of the API.

Configuration comes from TEAMBOARD_* variables, or .env / .env.local.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, e, &g, opts)
		},
	}

	cmd.PersistentFlags().BoolVar(&g.offline, "offline", false, "use only the local cache, never the API")
	cmd.Flags().StringVar(&opts.view, "view", "workload", "starting view (workload, kanban, calendar, stats)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "theme ("+themeNames()+")")

	cmd.AddCommand(
		newSyncCmd(e, &g),
		newListCmd(e, &g, false),
		newListCmd(e, &g, true),
		newWorkloadCmd(e, &g),
		newStatsCmd(e, &g),
		newAssignCmd(e, &g, true),
		newAssignCmd(e, &g, false),
		newTaskCmd(e, &g),
		newProjectCmd(e, &g),
		newVersionCmd(),
	)
	return cmd
}

func themeNames() string {
	var names []string
	for _, t := range theme.Available() {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func runTUI(cmd *cobra.Command, e *env, g *globalOptions, opts tuiOptions) error {
	view, ok := ui.ParseView(opts.view)
	if !ok {
		return fmt.Errorf("unknown view %q (want workload, kanban, calendar or stats)", opts.view)
	}
	if opts.theme != "" {
		if _, ok := theme.ByName(opts.theme); !ok {
			return fmt.Errorf("unknown theme %q (want %s)", opts.theme, themeNames())
		}
	}

	application, err := e.open(app.Options{Offline: g.offline, Lock: true})
	if err != nil {
		return err
	}
	defer application.Close()

	// Views fill in as the background load in Init completes
	if _, err := application.Loader.Warm(cmd.Context()); err != nil {
		application.Log.WithError(err).Warn("cache unreadable, starting empty")
	}

	model := ui.NewRootModel(application, ui.Options{View: view, Theme: opts.theme})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(cmd.Context()),
	)

	_, err = p.Run()
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "teamboard v%s\n", version)
		},
	}
}
