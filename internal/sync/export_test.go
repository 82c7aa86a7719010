package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.TaskCount != 0 || h.DependencyCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_TasksAndEdges(t *testing.T) {
	ms := newMockStore()
	// Inserted out of ID order to check sorting.
	ms.addTask("td-zzz", "Deploy", model.StatusBlocked)
	ms.addTask("td-aaa", "Build", model.StatusPending)
	ms.addTask("td-mmm", "Test", model.StatusCompleted)
	ms.addDep("td-zzz", "td-mmm")
	ms.addDep("td-zzz", "td-aaa")

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// header + 3 tasks + 2 edges
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.TaskCount != 3 || h.DependencyCount != 2 {
		t.Fatalf("header counts: task=%d dependency=%d", h.TaskCount, h.DependencyCount)
	}

	var ids []string
	var deploy model.Task
	for _, line := range lines[1:4] {
		var rec struct {
			Type string     `json:"type"`
			Data model.Task `json:"data"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal task line: %v", err)
		}
		if rec.Type != "task" {
			t.Fatalf("expected task record, got %q", rec.Type)
		}
		ids = append(ids, rec.Data.ID)
		if rec.Data.ID == "td-zzz" {
			deploy = rec.Data
		}
	}
	if strings.Join(ids, ",") != "td-aaa,td-mmm,td-zzz" {
		t.Fatalf("tasks not sorted: %v", ids)
	}
	if strings.Join(deploy.Dependencies, ",") != "td-aaa,td-mmm" {
		t.Errorf("td-zzz dependencies = %v", deploy.Dependencies)
	}

	var edges []string
	for _, line := range lines[4:] {
		var rec struct {
			Type string           `json:"type"`
			Data model.Dependency `json:"data"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal edge line: %v", err)
		}
		if rec.Type != "dependency" {
			t.Fatalf("expected dependency record, got %q", rec.Type)
		}
		edges = append(edges, rec.Data.TaskID+">"+rec.Data.DependsOnID)
	}
	if strings.Join(edges, ",") != "td-zzz>td-aaa,td-zzz>td-mmm" {
		t.Errorf("edges = %v", edges)
	}
}

func TestExportJSONL_EmptyDependencyList(t *testing.T) {
	ms := newMockStore()
	ms.addTask("td-1", "Solo", model.StatusPending)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"dependencies":[]`) {
		t.Errorf("expected empty dependency array in %s", buf.String())
	}
}

func TestExportJSONL_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.listErr = errors.New("connection reset")

	err := ExportJSONL(context.Background(), ms, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("err = %v", err)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
