package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
)

type statsOptions struct {
	projects bool
	field    string
	by       string
	n        int
	refresh  bool
	json     bool
}

// statsReport is the JSON form of the stats command
type statsReport struct {
	Items        string                  `json:"items"`
	Total        int                     `json:"total"`
	Distribution []reconcile.StatusCount `json:"distribution"`
	Unrecognized []string                `json:"unrecognized"`
	Completion   float64                 `json:"completion_rate"`
	Field        model.DateField         `json:"field"`
	Bucketing    reconcile.Bucketing     `json:"bucketing"`
	Series       []reconcile.Bucket      `json:"series"`
}

var dateFields = []model.DateField{model.DateCreated, model.DateUpdated, model.DateDeadline, model.DateStart, model.DateEnd}

func parseDateField(s string) (model.DateField, error) {
	for _, f := range dateFields {
		if string(f) == s {
			return f, nil
		}
	}
	names := make([]string, len(dateFields))
	for i, f := range dateFields {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown date field %q (want %s)", s, strings.Join(names, ", "))
}

func computeStats[T interface {
	reconcile.Statused
	reconcile.Dated
}](items []T, field model.DateField, by reconcile.Bucketing, end time.Time, n int) statsReport {
	return statsReport{
		Total:        len(items),
		Distribution: reconcile.StatusDistribution(items),
		Unrecognized: reconcile.UnrecognizedStatuses(items),
		Completion:   reconcile.CompletionRate(items),
		Field:        field,
		Bucketing:    by,
		Series:       reconcile.TimeSeries(items, field, by, end, n),
	}
}

func newStatsCmd(e *env, g *globalOptions) *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show status distribution, completion rate and a time series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := parseDateField(opts.field)
			if err != nil {
				return err
			}
			by, err := reconcile.ParseBucketing(opts.by)
			if err != nil {
				return err
			}
			n := opts.n
			if n == 0 {
				n = 14
				if by == reconcile.ByMonth {
					n = 12
				}
			}
			if n < 1 || n > 366 {
				return fmt.Errorf("--n must be between 1 and 366, got %d", n)
			}

			items := store.SectionTasks
			if opts.projects {
				items = store.SectionProjects
			}
			a, err := e.read(cmd.Context(), g, opts.refresh, items)
			if err != nil {
				return err
			}
			defer a.Close()
			snap := a.Store.Snapshot()

			var rep statsReport
			if opts.projects {
				rep = computeStats(snap.Projects, field, by, time.Now(), n)
				rep.Items = "projects"
			} else {
				rep = computeStats(snap.Tasks, field, by, time.Now(), n)
				rep.Items = "tasks"
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			return printStats(cmd, rep)
		},
	}

	cmd.Flags().BoolVar(&opts.projects, "projects", false, "projects instead of tasks")
	cmd.Flags().StringVar(&opts.field, "field", "created", "date to bucket on (created, updated, deadline, start, end)")
	cmd.Flags().StringVar(&opts.by, "by", "day", "bucket width (day or month)")
	cmd.Flags().IntVar(&opts.n, "n", 0, "number of buckets (default 14 days or 12 months)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "fetch from the API first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	return cmd
}

func printStats(cmd *cobra.Command, rep statsReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%d %s, %.0f%% done\n", rep.Total, rep.Items, rep.Completion*100)
	if len(rep.Unrecognized) > 0 {
		fmt.Fprintf(w, "unrecognized statuses: %s\n", strings.Join(rep.Unrecognized, ", "))
	}

	dist := newTable("Status", "Count", "Share")
	for _, sc := range rep.Distribution {
		share := 0.0
		if rep.Total > 0 {
			share = float64(sc.Count) * 100 / float64(rep.Total)
		}
		dist.Row(sc.Status.Label(), fmt.Sprint(sc.Count), fmt.Sprintf("%.0f%%", share))
	}
	if err := printTable(w, dist); err != nil {
		return err
	}

	series := newTable(fmt.Sprintf("By %s (%s)", rep.Field, rep.Bucketing), "Count")
	for _, b := range rep.Series {
		series.Row(b.Label, fmt.Sprint(b.Count))
	}
	return printTable(w, series)
}
