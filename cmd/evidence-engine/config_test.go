// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	configureViper(v)

	cfg, err := decodeConfig(v)
	require.NoError(t, err)

	want := types.DefaultAppConfig()
	assert.Equal(t, want.Research.Deadline, cfg.Research.Deadline)
	assert.Equal(t, want.Research.Timeout, cfg.Research.Timeout)
	assert.Equal(t, 6, cfg.Research.TrialCap)
	assert.Equal(t, 12, cfg.Research.TotalCap)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/audit.db", cfg.Audit.Path)
	assert.Empty(t, cfg.Research.Sources)
}

func TestDecodeConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evidence-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
research:
  deadline: 5s
  sources: [ctgov, pubmed]
  limits:
    ctgov: 30
log:
  format: json
`), 0o644))

	t.Setenv("EVIDENCE_ENGINE_RESEARCH_TRIAL_CAP", "4")
	t.Setenv("EVIDENCE_ENGINE_SERVER_ADDR", ":9090")

	v := viper.New()
	v.SetConfigFile(path)
	configureViper(v)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Research.Deadline)
	assert.Equal(t, []string{"ctgov", "pubmed"}, cfg.Research.Sources)
	assert.Equal(t, 30, cfg.Research.LimitFor(types.SourceCTGov))
	assert.Equal(t, 4, cfg.Research.TrialCap)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDecodeConfig_SourcesFromEnv(t *testing.T) {
	t.Setenv("EVIDENCE_ENGINE_RESEARCH_SOURCES", "ctgov, europepmc")
	v := viper.New()
	configureViper(v)

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"ctgov", "europepmc"}, cfg.Research.Sources)
}

func TestDecodeConfig_TrialCapAboveTotal(t *testing.T) {
	t.Setenv("EVIDENCE_ENGINE_RESEARCH_TRIAL_CAP", "20")
	v := viper.New()
	configureViper(v)

	_, err := decodeConfig(v)
	assert.Error(t, err)
}

func TestLoadRanker(t *testing.T) {
	r, err := loadRanker(types.ResearchConfig{})
	require.NoError(t, err)
	assert.Equal(t, "2024.1", r.Weights().Version)

	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: test-1\ntopic_match: 40\n"), 0o644))
	r, err = loadRanker(types.ResearchConfig{WeightsFile: path})
	require.NoError(t, err)
	assert.Equal(t, "test-1", r.Weights().Version)
	assert.Equal(t, 40, r.Weights().TopicMatch)

	_, err = loadRanker(types.ResearchConfig{WeightsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
