package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/client"
	"github.com/alfredjeanlab/taskdeps/internal/idgen"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func printTask(w io.Writer, task *model.Task) {
	fmt.Fprintf(w, "ID:           %s\n", task.ID)
	fmt.Fprintf(w, "Title:        %s\n", task.Title)
	fmt.Fprintf(w, "Status:       %s\n", ui.RenderStatus(task.Status))
	if task.Description != "" {
		fmt.Fprintf(w, "Description:  %s\n", task.Description)
	}
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(w, "Depends On:   %s\n", strings.Join(task.Dependencies, ", "))
	}
	if task.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:   %s\n", task.CreatedBy)
	}
	if s := formatTime(task.CreatedAt); s != "" {
		fmt.Fprintf(w, "Created At:   %s\n", s)
	}
	if s := formatTime(task.UpdatedAt); s != "" {
		fmt.Fprintf(w, "Updated At:   %s\n", s)
	}
}

func printTaskList(w io.Writer, tasks []*model.Task, width int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDEPS\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.ID, ui.RenderStatus(t.Status), len(t.Dependencies), ui.Truncate(t.Title, width))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d tasks\n", len(tasks))
}

// printChanges lists status transitions triggered by a mutation.
func printChanges(w io.Writer, changes []model.StatusChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintln(w, ui.RenderMuted("Status changes:"))
	for _, c := range changes {
		fmt.Fprintf(w, "  %s %s: %s -> %s\n", ui.StatusIcon(c.To), c.TaskID, ui.RenderStatus(c.From), ui.RenderStatus(c.To))
	}
}

func printDeps(w io.Writer, deps []*model.Dependency, other func(*model.Dependency) string, header string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tCREATED_BY\tCREATED_AT\n", header)
	for _, d := range deps {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", other(d), d.CreatedBy, formatTime(d.CreatedAt))
	}
	tw.Flush()
}

// explain adds a hint to not-found errors for arguments that are not shaped
// like task ids, and spells out cycle paths.
func explain(err error, ids ...string) error {
	if err == nil {
		return nil
	}
	if client.IsNotFound(err) {
		for _, id := range ids {
			if !idgen.LooksLikeTaskID(id) {
				return fmt.Errorf("%w (%q does not look like a task id such as %sxxxxxxxxxx)", err, id, idgen.Prefix)
			}
		}
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Path) > 0 {
		return fmt.Errorf("%s\n  %s", apiErr.Message, renderPath(apiErr.Path))
	}
	return err
}

func renderPath(path []string) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = ui.RenderAccent(id)
	}
	return strings.Join(parts, ui.RenderMuted(" -> "))
}

func termWidth() int {
	return max(ui.TerminalWidth(100)-40, 20)
}
