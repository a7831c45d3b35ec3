// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/internal/audit"
	"github.com/pdiddy/evidence-engine/internal/export"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show one",
	Long: `History lists runs recorded with --record, newest first. Given a run id it
prints that run's citations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := audit.Open(appConfig.Audit)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	if len(args) == 1 {
		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %q  (%d ms)\n\n", run.StartedAt.Local().Format("2006-01-02 15:04"), run.Kind, run.Query, run.TookMs)
		b := assemble.EmptyBundle(0)
		b.Citations = run.Citations
		b.TookMs = run.TookMs
		export.BundleTable(os.Stdout, b)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	match, _ := cmd.Flags().GetString("match")
	runs, err := store.Recent(ctx, limit, match)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	fmt.Printf("%-36s  %-16s  %-6s  %-5s  %-7s  %s\n", "ID", "Started", "Kind", "Count", "Widened", "Query")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range runs {
		widened := ""
		if r.Widened {
			widened = "yes"
		}
		fmt.Printf("%-36s  %-16s  %-6s  %-5d  %-7s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Kind, r.Count, widened, r.Query)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().String("match", "", "only runs whose query contains this text")

	rootCmd.AddCommand(historyCmd)
}
