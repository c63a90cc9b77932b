package analysis

import (
	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/report"
)

// ExtractGrounding keeps the web-citation chunks, in source order and without
// de-duplication. Other chunk shapes are dropped silently.
func ExtractGrounding(chunks []inference.GroundingChunk) []report.GroundingSource {
	var out []report.GroundingSource
	for _, c := range chunks {
		if c.Web == nil {
			continue
		}
		out = append(out, report.GroundingSource{Title: c.Web.Title, URI: c.Web.URI})
	}
	return out
}
