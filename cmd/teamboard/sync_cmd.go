package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dori/teamboard/internal/app"
	"github.com/dori/teamboard/internal/store"
)

func newSyncCmd(e *env, g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch every section and refresh the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.offline {
				return fmt.Errorf("sync needs the API; drop --offline")
			}
			a, err := e.open(app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.Loader.Load(cmd.Context())
			snap := a.Store.Snapshot()

			counts := map[store.Section]int{
				store.SectionUsers:       len(snap.Users),
				store.SectionGroups:      len(snap.Groups),
				store.SectionMemberships: len(snap.Memberships),
				store.SectionTasks:       len(snap.Tasks),
				store.SectionProjects:    len(snap.Projects),
			}
			superseded := make(map[store.Section]bool)
			for _, sec := range report.Superseded {
				superseded[sec] = true
			}

			t := newTable("Section", "Result", "Items")
			for _, sec := range store.AllSections {
				result := "ok"
				switch {
				case report.Failed[sec] != nil:
					result = "failed: " + report.Failed[sec].Error()
				case superseded[sec]:
					result = "superseded"
				}
				t.Row(string(sec), result, fmt.Sprint(counts[sec]))
			}
			if err := printTable(cmd.OutOrStdout(), t); err != nil {
				return err
			}
			return report.Err()
		},
	}
}
