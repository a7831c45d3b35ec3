// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// QueryFile is the on-disk form of a research bundle and the request that
// produced it. A saved search can be reprinted without querying upstreams
// again.
type QueryFile struct {
	Query     QueryParams      `yaml:"query"`
	Weights   string           `yaml:"weights_version"`
	Citations []types.Citation `yaml:"citations"`
	FollowUps []string         `yaml:"follow_ups,omitempty"`
	Summary   QuerySummary     `yaml:"summary"`
}

// QueryParams stores the bundle request.
type QueryParams struct {
	Text      string   `yaml:"text"`
	Countries []string `yaml:"countries,omitempty"`
	Audience  string   `yaml:"audience,omitempty"`
}

// QuerySummary stores run statistics and a timestamp.
type QuerySummary struct {
	Total         int       `yaml:"total"`
	TookMs        int64     `yaml:"took_ms"`
	FailedSources []string  `yaml:"failed_sources,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// NewQueryFile pairs a request with its bundle.
func NewQueryFile(params QueryParams, weightsVersion string, b assemble.Bundle, failed []string) QueryFile {
	return QueryFile{
		Query:     params,
		Weights:   weightsVersion,
		Citations: b.Citations,
		FollowUps: b.FollowUps,
		Summary: QuerySummary{
			Total:         len(b.Citations),
			TookMs:        b.TookMs,
			FailedSources: failed,
			Timestamp:     time.Now().UTC(),
		},
	}
}

// Bundle rebuilds the bundle a query file was saved from.
func (qf QueryFile) Bundle() assemble.Bundle {
	b := assemble.EmptyBundle(time.Duration(qf.Summary.TookMs) * time.Millisecond)
	b.Citations = append(b.Citations, qf.Citations...)
	b.FollowUps = append(b.FollowUps, qf.FollowUps...)
	return b
}

// WriteQueryFile saves qf as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a saved query file.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if qf.Query.Text == "" {
		return nil, fmt.Errorf("query file %s has no query text", path)
	}
	return &qf, nil
}
