// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/audit"
	"github.com/pdiddy/evidence-engine/internal/export"
	"github.com/pdiddy/evidence-engine/internal/research"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var trialsCmd = &cobra.Command{
	Use:   "trials [query]",
	Short: "Search the trial registries",
	Long: `Trials queries ClinicalTrials.gov, CTRI, EUCTR, and ISRCTN with optional
phase, status, country, and gene filters. When the filters match nothing the
search is repeated without them. Results are deduplicated across registries
and ranked.`,
	RunE: runTrials,
}

func runTrials(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	req := research.TrialRequest{Query: strings.Join(args, " ")}
	req.Phase, _ = cmd.Flags().GetString("phase")
	req.Status, _ = cmd.Flags().GetString("status")
	req.Country, _ = cmd.Flags().GetString("country")
	req.Genes, _ = cmd.Flags().GetStringSlice("gene")
	req.Source, _ = cmd.Flags().GetString("source")

	engine, _, err := buildEngine(appConfig.Research, nil)
	if err != nil {
		return err
	}
	started := time.Now()
	ctx := context.Background()
	res, err := engine.SearchTrials(ctx, req)
	if err != nil {
		return err
	}
	if res.Widened {
		logger.Info("no trials matched the filters; showing unfiltered results")
	}
	if err := export.WriteTrials(os.Stdout, res.Trials, format); err != nil {
		return err
	}

	if record, _ := cmd.Flags().GetBool("record"); record {
		cites := make([]types.Citation, 0, len(res.Trials))
		for _, row := range res.Trials {
			src, err := types.ParseSource(row.Registry)
			if err != nil {
				continue
			}
			c := types.NewCitation(src, row.ID, row.Title, row.URL)
			c.Date = row.Date
			c.Extra = &types.Extra{Phase: row.Phase, Status: row.Status, Recruiting: row.Recruiting, Countries: row.Countries}
			cites = append(cites, c)
		}
		return recordRun(ctx, audit.Run{
			Kind:  "trials",
			Query: strings.TrimSpace(req.Query + " " + strings.Join(req.Genes, " ")),
			Filters: map[string]string{
				"phase": req.Phase, "status": req.Status,
				"country": req.Country, "source": req.Source,
			},
			StartedAt: started,
			TookMs:    res.TookMs,
			Widened:   res.Widened,
			Citations: cites,
		})
	}
	return nil
}

func init() {
	trialsCmd.Flags().String("phase", "", "trial phase: 1, 2, 3, or 4")
	trialsCmd.Flags().String("status", "", "registry status, e.g. recruiting or completed")
	trialsCmd.Flags().String("country", "", "country with at least one site")
	trialsCmd.Flags().StringSlice("gene", nil, "gene symbols appended to the query (repeatable)")
	trialsCmd.Flags().String("source", "", "keep only trials from this registry")
	trialsCmd.Flags().String("format", "table", "output format: table or json")
	trialsCmd.Flags().Bool("record", false, "append the run to the audit log")

	rootCmd.AddCommand(trialsCmd)
}
