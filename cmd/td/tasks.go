package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/client"
	"github.com/alfredjeanlab/taskdeps/internal/model"
)

var createCmd = &cobra.Command{
	Use:     "create <title>",
	Short:   "Create a task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		status, _ := cmd.Flags().GetString("status")
		deps, _ := cmd.Flags().GetStringSlice("depends-on")
		ctx := cmd.Context()

		task, err := tasksClient.CreateTask(ctx, &client.CreateTaskRequest{
			Title:       args[0],
			Description: desc,
			Status:      status,
			CreatedBy:   actor,
		})
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		var changes []model.StatusChange
		for _, dep := range deps {
			resp, err := tasksClient.AddDependency(ctx, &client.AddDependencyRequest{
				TaskID:      task.ID,
				DependsOnID: dep,
				CreatedBy:   actor,
			})
			if err != nil {
				return fmt.Errorf("task %s created, but adding dependency on %s failed: %w", task.ID, dep, explain(err, dep))
			}
			task.Dependencies = append(task.Dependencies, dep)
			changes = append(changes, resp.Changes...)
		}
		if len(changes) > 0 {
			// Reflect the settled status of the new task.
			if t, err := tasksClient.GetTask(ctx, task.ID); err == nil {
				task = t
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		printTask(out, task)
		printChanges(out, changes)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all tasks, newest first",
	GroupID: "tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := tasksClient.ListTasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		printTaskList(out, tasks, termWidth())
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <task-id>",
	Short:   "Show a task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := tasksClient.GetTask(cmd.Context(), args[0])
		if err != nil {
			return explain(err, args[0])
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		printTask(out, task)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <task-id>",
	Short:   "Update a task's title, description or status",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.UpdateTaskRequest{UpdatedBy: actor}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			req.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			req.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			req.Status = &v
		}
		if req.Title == nil && req.Description == nil && req.Status == nil {
			return fmt.Errorf("nothing to update (use --title, --description or --status)")
		}
		return runUpdate(cmd, args[0], req)
	},
}

var completeCmd = &cobra.Command{
	Use:     "complete <task-id>",
	Short:   "Mark a task completed",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusCompleted)
	},
}

var blockCmd = &cobra.Command{
	Use:     "block <task-id>",
	Short:   "Mark a task blocked",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusBlocked)
	},
}

func setStatus(cmd *cobra.Command, id string, status model.Status) error {
	s := status.String()
	return runUpdate(cmd, id, &client.UpdateTaskRequest{Status: &s, UpdatedBy: actor})
}

func runUpdate(cmd *cobra.Command, id string, req *client.UpdateTaskRequest) error {
	resp, err := tasksClient.UpdateTask(cmd.Context(), id, req)
	if err != nil {
		return explain(err, id)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printTask(out, resp.Task)
	printChanges(out, resp.Changes)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:     "delete <task-id>...",
	Short:   "Delete tasks and their edges",
	GroupID: "tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteTasks(cmd.Context(), cmd, args)
	},
}

func deleteTasks(ctx context.Context, cmd *cobra.Command, ids []string) error {
	out := cmd.OutOrStdout()
	for _, id := range ids {
		if err := tasksClient.DeleteTask(ctx, id); err != nil {
			return fmt.Errorf("deleting %s: %w", id, explain(err, id))
		}
		if !jsonOutput {
			fmt.Fprintf(out, "Deleted %s\n", id)
		}
	}
	if jsonOutput {
		return printJSON(out, map[string][]string{"deleted": ids})
	}
	return nil
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "task description")
	createCmd.Flags().StringP("status", "s", "", "initial status (default pending)")
	createCmd.Flags().StringSlice("depends-on", nil, "task ids this task depends on")

	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().StringP("status", "s", "", "new status (pending, in_progress, blocked, completed)")
}
