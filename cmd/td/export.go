package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/config"
	"github.com/alfredjeanlab/taskdeps/internal/store/postgres"
	tasksync "github.com/alfredjeanlab/taskdeps/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every task and edge as JSONL (reads TASKDEPS_DATABASE_URL)",
	Long: `Export reads the database directly, in the same JSONL format the
sync scheduler uploads: one header line, then tasks sorted by id, then edges.`,
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		outPath, _ := cmd.Flags().GetString("output")
		w := bufio.NewWriter(cmd.OutOrStdout())
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w = bufio.NewWriter(f)
		}
		if err := tasksync.ExportJSONL(cmd.Context(), store, w); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return w.Flush()
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
