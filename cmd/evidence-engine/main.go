// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the evidence-engine CLI. It serves the
// research HTTP API and runs bundle and trial searches from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/logging"
	"github.com/pdiddy/evidence-engine/internal/secrets"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Populated by initConfig and the root PersistentPreRunE.
var (
	appConfig types.AppConfig
	logger    = zap.NewNop()
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "evidence-engine",
	Short: "Aggregate clinical trials and literature for a health question",
	Long: `evidence-engine queries trial registries (ClinicalTrials.gov, CTRI, EUCTR,
ISRCTN) and literature APIs (PubMed, Europe PMC, OpenAlex, Semantic Scholar,
Crossref) concurrently, deduplicates overlapping records, and ranks the merged
set by source, topic match, recruiting status, recency, and evidence tier.

Use serve to expose the HTTP API, or search and trials from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}

		s, err := secrets.Load(secretsDir(cmd), logger)
		if err != nil {
			return err
		}
		secrets.Apply(&cfg.Research, s)
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Int("count", len(s)))
		}
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: evidence-engine.yaml in . or ~/.config/evidence-engine/)")
	rootCmd.PersistentFlags().String("secrets", ".secrets", "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("evidence-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "evidence-engine"))
		}
	}
	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist; the search paths are optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}
}

func secretsDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("secrets")
	if dir == "" {
		dir = ".secrets"
	}
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
