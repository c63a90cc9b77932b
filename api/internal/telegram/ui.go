package telegram

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"chip-scanner/api/internal/history"
	"chip-scanner/api/internal/report"
)

func summaryText(rep report.Report) string {
	id := rep.Identification
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 %s (%s)\n", report.Display(id.Name), report.Display(id.PartNumber))
	fmt.Fprintf(&b, "%s · %s · %d%% confidence\n", report.Display(id.Manufacturer), report.Display(id.Family), id.Confidence)
	fmt.Fprintf(&b, "OCR %.0f / ID %.0f\n", rep.Confidence.OCRScore, rep.Confidence.IDScore)

	if len(rep.TechnicalProfile) > 0 {
		b.WriteString("\nKey specs:\n")
		for _, c := range rep.TechnicalProfile[:min(5, len(rep.TechnicalProfile))] {
			fmt.Fprintf(&b, "• %s: %s\n", report.Display(c.Label), report.Display(c.Value))
		}
	}
	if d := strings.TrimSpace(rep.Pinout.Diagram); d != "" {
		b.WriteString("\nPinout:\n")
		b.WriteString(d)
		b.WriteString("\n")
	}
	mp := rep.MarketPrice
	fmt.Fprintf(&b, "\nPrice: %s – %s (%s)\n", report.Display(mp.MinPrice), report.Display(mp.MaxPrice), report.Display(mp.BulkTrend))
	for _, p := range mp.IndiaRetailers {
		fmt.Fprintf(&b, "• %s: %s, %s\n", report.Display(p.Store), report.Display(p.Price), report.Display(p.Availability))
	}
	if len(rep.Pinout.Warnings) > 0 {
		b.WriteString("\n⚠️ " + strings.Join(rep.Pinout.Warnings, "\n⚠️ ") + "\n")
	}
	if rep.CaseStudy != nil {
		fmt.Fprintf(&b, "\nCase study: %s\n", rep.CaseStudyTitle())
	}
	if w := rep.WikipediaURL(); w != report.Placeholder {
		fmt.Fprintf(&b, "\nWikipedia: %s\n", w)
	}
	if n := len(rep.GroundingSources); n > 0 {
		fmt.Fprintf(&b, "Sources: %d web citations (see dossier)\n", n)
	}
	if d := strings.TrimSpace(rep.Confidence.Disclaimer); d != "" {
		b.WriteString("\n" + d + "\n")
	}
	b.WriteString("\nAsk me anything about this part.")
	return b.String()
}

func historyText(items []history.Item) string {
	if len(items) == 0 {
		return "No scans yet. Send a photo to start."
	}
	var b strings.Builder
	b.WriteString("Recent scans:\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s (%s) · %s\n", i+1, report.Display(it.Name),
			report.Display(it.Report.Identification.PartNumber), it.Time().UTC().Format(time.DateTime))
	}
	b.WriteString("\n/open <n> to reopen one.")
	return b.String()
}

func pinsText(pins []report.PinFunction, q string) string {
	if len(pins) == 0 {
		return fmt.Sprintf("No pins match %q.", q)
	}
	var b strings.Builder
	for _, p := range pins {
		fmt.Fprintf(&b, "Pin %s · %s: %s\n", report.Display(p.Pin), report.Display(p.Name), report.Display(p.Description))
	}
	return b.String()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func dossierName(rep report.Report) string {
	part := rep.Identification.PartNumber
	if part == "" {
		part = rep.Identification.Name
	}
	part = strings.Trim(unsafeName.ReplaceAllString(part, "_"), "_")
	if part == "" {
		part = "component"
	}
	return "dossier-" + part + ".txt"
}
