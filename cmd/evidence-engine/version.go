// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/rank"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of evidence-engine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("evidence-engine %s (weights %s)\n", version, rank.DefaultVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
