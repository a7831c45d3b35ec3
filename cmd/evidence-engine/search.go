// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/audit"
	"github.com/pdiddy/evidence-engine/internal/export"
	"github.com/pdiddy/evidence-engine/internal/followup"
	"github.com/pdiddy/evidence-engine/internal/research"
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Build a research bundle for a health question",
	Long: `Search runs the recruiting-trial search and the literature search in
parallel, deduplicates and ranks the results, and prints up to six trials
followed by literature, twelve citations in total.

Use --save to keep the bundle in a YAML query file and --load to print a saved
one without querying upstreams again.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	if load, _ := cmd.Flags().GetString("load"); load != "" {
		qf, err := export.ReadQueryFile(load)
		if err != nil {
			return err
		}
		return export.WriteBundle(os.Stdout, qf.Bundle(), format)
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		query = q
	}
	if query == "" {
		return fmt.Errorf("provide a question as arguments or with --query")
	}
	countries, _ := cmd.Flags().GetStringSlice("country")
	audienceFlag, _ := cmd.Flags().GetString("audience")
	audience, err := followup.ParseAudience(audienceFlag)
	if err != nil {
		return err
	}

	engine, _, err := buildEngine(appConfig.Research, nil)
	if err != nil {
		return err
	}
	started := time.Now()
	ctx := context.Background()
	bundle, meta, err := engine.BundleWithMeta(ctx, research.BundleRequest{
		Query:     query,
		Countries: countries,
		Audience:  audience,
	})
	if err != nil {
		return err
	}
	if failed := failedNames(meta); len(failed) > 0 {
		logger.Warn("some sources failed", zap.Strings("sources", failed))
	}
	if meta.Widened {
		logger.Info("no recruiting trials matched; showing trials of any status")
	}

	if err := export.WriteBundle(os.Stdout, bundle, format); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		qf := export.NewQueryFile(export.QueryParams{
			Text:      query,
			Countries: countries,
			Audience:  string(audience),
		}, engine.Ranker().Weights().Version, bundle, failedNames(meta))
		if err := export.WriteQueryFile(save, qf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", save)
	}

	if record, _ := cmd.Flags().GetBool("record"); record {
		filters := map[string]string{"audience": string(audience)}
		if len(countries) > 0 {
			filters["countries"] = strings.Join(countries, ",")
		}
		return recordRun(ctx, audit.Run{
			Kind:      "bundle",
			Query:     query,
			Filters:   filters,
			StartedAt: started,
			TookMs:    bundle.TookMs,
			Widened:   meta.Widened,
			Failed:    failedNames(meta),
			Citations: bundle.Citations,
		})
	}
	return nil
}

// recordRun appends run to the audit log.
func recordRun(ctx context.Context, run audit.Run) error {
	store, err := audit.Open(appConfig.Audit)
	if err != nil {
		return err
	}
	defer store.Close()
	id, err := store.Record(ctx, run)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "recorded run %s\n", id)
	return nil
}

func init() {
	searchCmd.Flags().String("query", "", "question (alternative to positional arguments)")
	searchCmd.Flags().StringSlice("country", nil, "restrict trials to these countries (repeatable)")
	searchCmd.Flags().String("audience", "patient", "follow-up question register: patient or doctor")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().String("save", "", "write the bundle to a YAML query file")
	searchCmd.Flags().String("load", "", "print a saved query file instead of searching")
	searchCmd.Flags().Bool("record", false, "append the run to the audit log")

	rootCmd.AddCommand(searchCmd)
}
