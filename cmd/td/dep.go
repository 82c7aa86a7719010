package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/client"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/ui"
)

var depCmd = &cobra.Command{
	Use:     "dep",
	Short:   "Manage task dependencies",
	GroupID: "deps",
}

var depAddCmd = &cobra.Command{
	Use:   "add <task-id> <depends-on-id>",
	Short: "Make a task depend on another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := tasksClient.AddDependency(cmd.Context(), &client.AddDependencyRequest{
			TaskID:      args[0],
			DependsOnID: args[1],
			CreatedBy:   actor,
		})
		if err != nil {
			return explain(err, args...)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, resp)
		}
		fmt.Fprintf(out, "%s now depends on %s\n", args[0], args[1])
		printChanges(out, resp.Changes)
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <task-id> <depends-on-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tasksClient.RemoveDependency(cmd.Context(), args[0], args[1]); err != nil {
			return explain(err, args...)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed dependency")
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List what a task depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := tasksClient.GetDependencies(cmd.Context(), args[0])
		if err != nil {
			return explain(err, args[0])
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, deps)
		}
		if len(deps) == 0 {
			fmt.Fprintln(out, "No dependencies found.")
			return nil
		}
		printDeps(out, deps, func(d *model.Dependency) string { return d.DependsOnID }, "DEPENDS_ON")
		return nil
	},
}

var depDependentsCmd = &cobra.Command{
	Use:   "dependents <task-id>",
	Short: "List tasks that depend on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := tasksClient.GetDependents(cmd.Context(), args[0])
		if err != nil {
			return explain(err, args[0])
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, deps)
		}
		if len(deps) == 0 {
			fmt.Fprintln(out, "No dependents found.")
			return nil
		}
		printDeps(out, deps, func(d *model.Dependency) string { return d.TaskID }, "DEPENDENT")
		return nil
	},
}

var depCheckCmd = &cobra.Command{
	Use:   "check <task-id> <depends-on-id>",
	Short: "Check whether adding a dependency would create a cycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		check, err := tasksClient.CheckCycle(cmd.Context(), args[0], args[1])
		if err != nil {
			return explain(err, args...)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, check)
		}
		if !check.Cycle {
			fmt.Fprintf(out, "%s OK: %s can depend on %s\n", ui.StatusIcon(model.StatusCompleted), args[0], args[1])
			return nil
		}
		fmt.Fprintf(out, "%s would create a cycle:\n  %s\n", ui.StatusIcon(model.StatusBlocked), renderPath(check.Path))
		return nil
	},
}

func init() {
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRemoveCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depDependentsCmd)
	depCmd.AddCommand(depCheckCmd)
}
