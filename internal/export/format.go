// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders bundles and trial rows for the terminal and for
// files: tables, JSON, CSL-YAML bibliographies, and saved query files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSL   Format = "csl"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSL:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json, or csl)", s)
}

// WriteBundle renders b in format f.
func WriteBundle(w io.Writer, b assemble.Bundle, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, b)
	case FormatCSL:
		return WriteCSL(w, b.Citations)
	default:
		BundleTable(w, b)
		return nil
	}
}

// WriteTrials renders trial rows in format f. CSL is not offered for rows.
func WriteTrials(w io.Writer, rows []assemble.TrialRow, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, map[string]any{"trials": rows})
	case FormatCSL:
		return fmt.Errorf("csl output is only available for research bundles")
	default:
		TrialTable(w, rows)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// BundleTable writes citations as a human-readable table followed by the
// follow-up questions.
func BundleTable(w io.Writer, b assemble.Bundle) {
	if len(b.Citations) == 0 {
		fmt.Fprintln(w, "No citations found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-70s  %-6s  %-12s  %-15s  %s\n",
		"Rank", "Title", "Kind", "Date", "Source", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 140))
	for i, c := range b.Citations {
		fmt.Fprintf(w, "%-4d  %-70s  %-6s  %-12s  %-15s  %s\n",
			i+1, truncate(c.Title, 70), c.Kind, c.Date, c.Source, c.URL)
	}

	fmt.Fprintf(w, "\n%d citations in %d ms\n", len(b.Citations), b.TookMs)
	if len(b.FollowUps) > 0 {
		fmt.Fprintln(w, "\nFollow-up questions:")
		for _, q := range b.FollowUps {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}

// TrialTable writes trial rows as a table.
func TrialTable(w io.Writer, rows []assemble.TrialRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No trials found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-22s  %-55s  %-14s  %-24s  %-5s  %s\n",
		"Rank", "ID", "Title", "Phase", "Status", "Score", "Countries")
	fmt.Fprintln(w, strings.Repeat("-", 150))
	for i, r := range rows {
		phase := r.Phase
		if phase == "" {
			phase = types.PhaseUnstated
		}
		fmt.Fprintf(w, "%-4d  %-22s  %-55s  %-14s  %-24s  %-5d  %s\n",
			i+1, truncate(r.Registry+":"+r.ID, 22), truncate(r.Title, 55), phase,
			truncate(r.Status, 24), r.Score, truncate(strings.Join(r.Countries, ", "), 40))
	}
	fmt.Fprintf(w, "\n%d trials\n", len(rows))
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
