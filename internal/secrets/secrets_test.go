// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "ncbi-api-key", "  nk_abc123  \n")
				writeFile(t, dir, "semantic-scholar-api-key", "sk_xyz789")
				writeFile(t, dir, "openalex-email", "user@example.com\n")
				return dir
			},
			want: map[string]string{
				"ncbi-api-key":             "nk_abc123",
				"semantic-scholar-api-key": "sk_xyz789",
				"openalex-email":           "user@example.com",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "crossref-mailto", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"crossref-mailto": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "semantic-scholar-api-key", "sk_real")
				return dir
			},
			want: map[string]string{
				"semantic-scholar-api-key": "sk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "crossref-mailto", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"crossref-mailto": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, zaptest.NewLogger(t))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestApply(t *testing.T) {
	field := map[string]func(*types.ResearchConfig) *string{
		SemanticScholarAPIKey: func(c *types.ResearchConfig) *string { return &c.SemanticScholarAPIKey },
		NCBIAPIKey:            func(c *types.ResearchConfig) *string { return &c.NCBIAPIKey },
		OpenAlexEmail:         func(c *types.ResearchConfig) *string { return &c.OpenAlexEmail },
		CrossrefMailto:        func(c *types.ResearchConfig) *string { return &c.CrossrefMailto },
	}

	for key, get := range field {
		tests := []struct {
			name       string
			configured string
			secret     string
			want       string
		}{
			{"fills empty field", "", "from-file", "from-file"},
			{"keeps configured value", "from-config", "from-file", "from-config"},
			{"keeps configured value without secret", "from-config", "", "from-config"},
			{"leaves field empty without secret", "", "", ""},
		}
		for _, tt := range tests {
			t.Run(key+"/"+tt.name, func(t *testing.T) {
				var cfg types.ResearchConfig
				*get(&cfg) = tt.configured
				secrets := map[string]string{}
				if tt.secret != "" {
					secrets[key] = tt.secret
				}

				Apply(&cfg, secrets)

				assert.Equal(t, tt.want, *get(&cfg))
				// No other credential is touched.
				for other, otherGet := range field {
					if other != key {
						assert.Empty(t, *otherGet(&cfg), other)
					}
				}
			})
		}
	}
}

func TestApply_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SemanticScholarAPIKey, "sk_file\n")
	writeFile(t, dir, NCBIAPIKey, "nk_file")
	writeFile(t, dir, OpenAlexEmail, "file@example.com")
	writeFile(t, dir, CrossrefMailto, "file@example.org")

	s, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := types.ResearchConfig{NCBIAPIKey: "nk_env", CrossrefMailto: "env@example.org"}
	Apply(&cfg, s)

	assert.Equal(t, "sk_file", cfg.SemanticScholarAPIKey)
	assert.Equal(t, "nk_env", cfg.NCBIAPIKey)
	assert.Equal(t, "file@example.com", cfg.OpenAlexEmail)
	assert.Equal(t, "env@example.org", cfg.CrossrefMailto)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
