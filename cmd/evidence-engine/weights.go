// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/rank"
)

var weightsCmd = &cobra.Command{
	Use:   "weights [file]",
	Short: "Print or check a ranking weight table",
	Long: `Weights prints the active weight table as YAML: the file named by
research.weights_file, or the built-in defaults. Given a file argument it
validates that file instead and prints the table it resolves to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			w   rank.Weights
			err error
		)
		if len(args) == 1 {
			w, err = rank.LoadWeights(args[0])
		} else {
			var r *rank.Ranker
			r, err = loadRanker(appConfig.Research)
			if r != nil {
				w = r.Weights()
			}
		}
		if err != nil {
			return err
		}
		data, err := w.YAML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}
