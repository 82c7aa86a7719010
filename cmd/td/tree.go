package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/ui"
)

var treeCmd = &cobra.Command{
	Use:     "tree <task-id>",
	Short:   "Show the dependency tree below a task",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		ctx := cmd.Context()

		root, err := buildTree(ctx, tasksClient.GetTask, args[0], depth)
		if err != nil {
			return explain(err, args[0])
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, root)
		}
		printTree(out, root)
		return nil
	},
}

// treeNode is one task in a dependency tree. Shared dependencies appear
// under every parent; Repeat marks nodes already expanded elsewhere.
type treeNode struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Status       model.Status `json:"status"`
	Repeat       bool         `json:"repeat,omitempty"`
	Dependencies []*treeNode  `json:"dependencies,omitempty"`
}

type taskFetcher func(ctx context.Context, id string) (*model.Task, error)

// buildTree walks dependencies from id down to depth levels (0 = unlimited).
// Each task is fetched once.
func buildTree(ctx context.Context, fetch taskFetcher, id string, depth int) (*treeNode, error) {
	cache := map[string]*model.Task{}
	expanded := map[string]bool{}

	var walk func(id string, level int) (*treeNode, error)
	walk = func(id string, level int) (*treeNode, error) {
		task, ok := cache[id]
		if !ok {
			t, err := fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			cache[id], task = t, t
		}
		node := &treeNode{ID: task.ID, Title: task.Title, Status: task.Status}
		if expanded[id] {
			node.Repeat = len(task.Dependencies) > 0
			return node, nil
		}
		expanded[id] = true
		if depth > 0 && level >= depth {
			return node, nil
		}
		for _, dep := range task.Dependencies {
			child, err := walk(dep, level+1)
			if err != nil {
				return nil, err
			}
			node.Dependencies = append(node.Dependencies, child)
		}
		return node, nil
	}
	return walk(id, 0)
}

func printTree(w io.Writer, root *treeNode) {
	fmt.Fprintf(w, "%s %s %s\n", ui.StatusIcon(root.Status), ui.RenderAccent(root.ID), root.Title)
	printTreeChildren(w, root.Dependencies, "")
}

func printTreeChildren(w io.Writer, nodes []*treeNode, prefix string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		suffix := ""
		if n.Repeat {
			suffix = ui.RenderMuted(" (see above)")
		}
		fmt.Fprintf(w, "%s%s%s %s %s%s\n", prefix, branch, ui.StatusIcon(n.Status), n.ID, n.Title, suffix)
		printTreeChildren(w, n.Dependencies, prefix+next)
	}
}

func init() {
	treeCmd.Flags().Int("depth", 0, "maximum depth to show (0 = unlimited)")
}
