package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	TaskCount       int       `json:"task_count"`
	DependencyCount int       `json:"dependency_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every task and dependency edge from the store as JSONL
// to w. Tasks are sorted by ID and carry their dependency IDs; edges follow,
// sorted by (task_id, depends_on_id).
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	tasks, _, err := s.ListTasks(ctx, model.TaskFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	deps, err := s.ListDependencies(ctx)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}

	byTask := make(map[string][]string, len(tasks))
	for _, d := range deps {
		byTask[d.TaskID] = append(byTask[d.TaskID], d.DependsOnID)
	}
	for _, t := range tasks {
		ids := byTask[t.ID]
		sort.Strings(ids)
		if ids == nil {
			ids = []string{}
		}
		t.Dependencies = ids
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].TaskID != deps[j].TaskID {
			return deps[i].TaskID < deps[j].TaskID
		}
		return deps[i].DependsOnID < deps[j].DependsOnID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		TaskCount:       len(tasks),
		DependencyCount: len(deps),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}
	for _, d := range deps {
		if err := enc.Encode(record{Type: "dependency", Data: d}); err != nil {
			return fmt.Errorf("encode dependency %s -> %s: %w", d.TaskID, d.DependsOnID, err)
		}
	}

	return nil
}
