// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/dedupe"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form,
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string   `yaml:"id"`
	Type           string   `yaml:"type"`
	Title          string   `yaml:"title"`
	ContainerTitle string   `yaml:"container-title,omitempty"`
	Issued         *CSLDate `yaml:"issued,omitempty"`
	URL            string   `yaml:"URL,omitempty"`
	DOI            string   `yaml:"DOI,omitempty"`
	PMID           string   `yaml:"PMID,omitempty"`
	Number         string   `yaml:"number,omitempty"`
	Publisher      string   `yaml:"publisher,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// registryPublisher names the registry a trial record is published by.
var registryPublisher = map[types.Source]string{
	types.SourceCTGov:  "ClinicalTrials.gov",
	types.SourceCTRI:   "Clinical Trials Registry - India",
	types.SourceEUCTR:  "EU Clinical Trials Register",
	types.SourceISRCTN: "ISRCTN Registry",
}

// WriteCSL writes citations as a CSL-YAML list.
func WriteCSL(w io.Writer, cites []types.Citation) error {
	items := make([]CSLItem, len(cites))
	for i, c := range cites {
		items[i] = ToCSLItem(c)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a citation. Trials become reports numbered by their
// registry id; papers become journal articles.
func ToCSLItem(c types.Citation) CSLItem {
	item := CSLItem{
		ID:    string(c.Source) + ":" + c.ID,
		Type:  "article-journal",
		Title: c.Title,
		URL:   c.URL,
		DOI:   dedupe.DOI(c),
	}
	if c.Kind == types.KindTrial {
		item.Type = "report"
		item.Number = c.ID
		item.Publisher = registryPublisher[c.Source]
	}
	if e := c.Extra; e != nil {
		item.ContainerTitle = e.Journal
		item.PMID = e.PMID
	}
	if c.Source == types.SourcePubMed && item.PMID == "" {
		item.PMID = c.ID
	}
	if p, ok := types.ParseDate(c.Date); ok {
		parts := []int{p.Start.Year()}
		if p.Precision >= types.PrecisionMonth {
			parts = append(parts, int(p.Start.Month()))
		}
		if p.Precision == types.PrecisionDay {
			parts = append(parts, p.Start.Day())
		}
		item.Issued = &CSLDate{DateParts: [][]int{parts}}
	}
	return item
}
