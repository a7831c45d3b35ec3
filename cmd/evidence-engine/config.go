// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const envPrefix = "EVIDENCE_ENGINE"

// configureViper registers every key with its default so environment
// variables such as EVIDENCE_ENGINE_RESEARCH_DEADLINE reach Unmarshal.
func configureViper(v *viper.Viper) {
	d := types.DefaultAppConfig()
	r := d.Research

	v.SetDefault("research.timeout", r.Timeout)
	v.SetDefault("research.user_agent", r.UserAgent)
	v.SetDefault("research.max_retries", r.MaxRetries)
	v.SetDefault("research.requests_per_second", r.RequestsPerSecond)
	v.SetDefault("research.burst", r.Burst)
	v.SetDefault("research.sources", []string{})
	v.SetDefault("research.limits", map[string]int{})
	v.SetDefault("research.deadline", r.Deadline)
	v.SetDefault("research.trial_cap", r.TrialCap)
	v.SetDefault("research.total_cap", r.TotalCap)
	v.SetDefault("research.weights_file", r.WeightsFile)
	v.SetDefault("research.semantic_scholar_api_key", "")
	v.SetDefault("research.ncbi_api_key", "")
	v.SetDefault("research.openalex_email", "")
	v.SetDefault("research.crossref_mailto", "")

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("audit.path", d.Audit.Path)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// loadAppConfig decodes the layered configuration: defaults, config file,
// then environment.
func loadAppConfig() (types.AppConfig, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	// Comma-separated env values arrive as one element.
	var srcs []string
	for _, s := range cfg.Research.Sources {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				srcs = append(srcs, part)
			}
		}
	}
	cfg.Research.Sources = srcs
	if cfg.Research.TrialCap > cfg.Research.TotalCap {
		return cfg, fmt.Errorf("research.trial_cap (%d) exceeds research.total_cap (%d)",
			cfg.Research.TrialCap, cfg.Research.TotalCap)
	}
	return cfg, nil
}
