package types

import "time"

// HTTPConfig holds shared HTTP settings for every upstream adapter.
type HTTPConfig struct {
	// Timeout bounds a single upstream request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every upstream request (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces requests per upstream host.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the per-host token bucket size.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// ResearchConfig holds settings for the aggregation engine.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Sources names the enabled adapters; empty enables all of them.
	Sources []string `json:"sources" yaml:"sources" mapstructure:"sources"`

	// Limits overrides the per-source upstream result count. Values are
	// clamped to [MinSourceLimit, MaxSourceLimit].
	Limits map[string]int `json:"limits" yaml:"limits" mapstructure:"limits"`

	// Deadline bounds the wall-clock time of one whole aggregation,
	// regardless of how many upstreams hang. Zero disables it.
	Deadline time.Duration `json:"deadline" yaml:"deadline" mapstructure:"deadline"`

	// TrialCap is the maximum number of trial citations in a bundle (default 6).
	TrialCap int `json:"trial_cap" yaml:"trial_cap" mapstructure:"trial_cap"`

	// TotalCap is the maximum number of citations in a bundle (default 12).
	TotalCap int `json:"total_cap" yaml:"total_cap" mapstructure:"total_cap"`

	// WeightsFile optionally points at a YAML ranking weight table.
	WeightsFile string `json:"weights_file,omitempty" yaml:"weights_file,omitempty" mapstructure:"weights_file"`

	SemanticScholarAPIKey string `json:"-" yaml:"-" mapstructure:"semantic_scholar_api_key"`
	NCBIAPIKey            string `json:"-" yaml:"-" mapstructure:"ncbi_api_key"`
	OpenAlexEmail         string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
	CrossrefMailto        string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty" mapstructure:"crossref_mailto"`
}

// Upstream result count bounds.
const (
	MinSourceLimit = 5
	MaxSourceLimit = 50
)

// DefaultSourceLimits is the per-source upstream result count.
var DefaultSourceLimits = map[Source]int{
	SourceCTGov:           20,
	SourceCTRI:            10,
	SourceEUCTR:           10,
	SourceISRCTN:          10,
	SourcePubMed:          20,
	SourceEuropePMC:       20,
	SourceOpenAlex:        15,
	SourceSemanticScholar: 15,
	SourceCrossref:        10,
}

// LimitFor returns the clamped upstream result count for src.
func (c ResearchConfig) LimitFor(src Source) int {
	n, ok := c.Limits[string(src)]
	if !ok || n <= 0 {
		n = DefaultSourceLimits[src]
	}
	if n < MinSourceLimit {
		n = MinSourceLimit
	}
	if n > MaxSourceLimit {
		n = MaxSourceLimit
	}
	return n
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig selects the logger level ("debug", "info", "warn", "error") and
// format ("json" or "console").
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// AuditConfig locates the optional CLI run log.
type AuditConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	Research ResearchConfig `json:"research" yaml:"research" mapstructure:"research"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Audit    AuditConfig    `json:"audit" yaml:"audit" mapstructure:"audit"`
}

// DefaultAppConfig returns the built-in defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Research: ResearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:           10 * time.Second,
				UserAgent:         "evidence-engine/0.1",
				MaxRetries:        2,
				RequestsPerSecond: 5,
				Burst:             5,
			},
			Deadline: 20 * time.Second,
			TrialCap: 6,
			TotalCap: 12,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			Path: "data/audit.db",
		},
	}
}
