package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Placeholder is shown wherever a report value is absent.
const Placeholder = "N/A"

func Display(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func (r Report) WikipediaURL() string {
	if r.Resources.Wikipedia == nil {
		return Placeholder
	}
	return Display(r.Resources.Wikipedia.URL)
}

func (r Report) CaseStudyTitle() string {
	if r.CaseStudy == nil {
		return Placeholder
	}
	return Display(r.CaseStudy.Title)
}

// FilterPins returns the pin table rows whose pin, name or description contain q,
// ignoring case. An empty query returns the whole table.
func (r Report) FilterPins(q string) []PinFunction {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]PinFunction, 0, len(r.Pinout.Table))
	for _, p := range r.Pinout.Table {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Pin), q) ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// Dossier writes a plain-text research dossier: identity block, technical profile
// and, when present, the pin table and citations.
func (r Report) Dossier(w io.Writer) error {
	id := r.Identification
	var b strings.Builder
	fmt.Fprintf(&b, "RESEARCH DOSSIER: %s\n", Display(id.Name))
	fmt.Fprintf(&b, "Part number: %s\n\n", Display(id.PartNumber))
	b.WriteString("1. Component Identity\n")
	fmt.Fprintf(&b, "Manufacturer: %s\n", Display(id.Manufacturer))
	fmt.Fprintf(&b, "Family: %s\n", Display(id.Family))
	fmt.Fprintf(&b, "Confidence Level: %d%%\n\n", id.Confidence)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "2. Technical Profile\n"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Parameter\tFinding")
	for _, c := range r.TechnicalProfile {
		fmt.Fprintf(tw, "%s\t%s\n", Display(c.Label), Display(c.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Pinout.Table) > 0 {
		if _, err := io.WriteString(w, "\n3. Pinout\n"); err != nil {
			return err
		}
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Pin\tName\tFunction")
		for _, p := range r.Pinout.Table {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", Display(p.Pin), Display(p.Name), Display(p.Description))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.GroundingSources) > 0 {
		b.Reset()
		b.WriteString("\nSources\n")
		for _, s := range r.GroundingSources {
			fmt.Fprintf(&b, "- %s %s\n", Display(s.Title), s.URI)
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
