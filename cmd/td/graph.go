package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/ui"
)

var graphCmd = &cobra.Command{
	Use:     "graph",
	Short:   "Show the task graph as nodes and edges",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		g, err := tasksClient.GetGraph(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("fetching graph: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, g)
		}

		fmt.Fprintln(out, ui.RenderAccent("Nodes:"))
		for _, n := range g.Nodes {
			fmt.Fprintf(out, "  %s %s %s\n", ui.StatusIcon(n.Status), n.ID, n.Title)
		}
		if len(g.Edges) > 0 {
			fmt.Fprintln(out, ui.RenderAccent("Edges:"))
			for _, e := range g.Edges {
				fmt.Fprintf(out, "  %s %s %s\n", e.Source, ui.RenderMuted("->"), e.Target)
			}
		}
		if g.Stats != nil {
			fmt.Fprintln(out)
			printStats(cmd, g.Stats)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show task counts by status",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := tasksClient.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching stats: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		printStats(cmd, stats)
		return nil
	},
}

func printStats(cmd *cobra.Command, s *model.GraphStats) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	counts := map[model.Status]int{
		model.StatusPending:    s.TotalPending,
		model.StatusInProgress: s.TotalInProgress,
		model.StatusBlocked:    s.TotalBlocked,
		model.StatusCompleted:  s.TotalCompleted,
	}
	for _, st := range model.Statuses() {
		fmt.Fprintf(tw, "%s\t%d\n", ui.RenderStatus(st), counts[st])
	}
	fmt.Fprintf(tw, "total\t%d\n", s.Total())
	tw.Flush()
}

func init() {
	graphCmd.Flags().Int("limit", 0, "maximum number of nodes (server default when 0)")
}
