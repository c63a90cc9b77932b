// Package reporttest builds report payloads for tests.
package reporttest

import (
	"encoding/json"
	"fmt"

	"chip-scanner/api/internal/report"
)

// Payload returns a schema-valid remote payload for a component called name.
func Payload(name string) map[string]any {
	profile := make([]any, 0, report.ProfileSize)
	for i := 1; i <= report.ProfileSize; i++ {
		profile = append(profile, map[string]any{"id": i, "label": fmt.Sprintf("Param %d", i), "value": fmt.Sprintf("%d V", i)})
	}
	price := func(store string) map[string]any {
		return map[string]any{"store": store, "price": "₹25", "availability": "In stock", "url": "https://shop.example/" + store}
	}
	return map[string]any{
		"identification": map[string]any{
			"name": name, "partNumber": name + "N", "manufacturer": "Texas Instruments", "family": "Timer", "confidence": 92,
		},
		"technicalProfile": profile,
		"pinout": map[string]any{
			"diagram": "  +--U--+\n1-|GND VCC|-8\n  +-----+",
			"table": []any{
				map[string]any{"pin": "1", "name": "GND", "description": "Ground reference"},
				map[string]any{"pin": "8", "name": "VCC", "description": "Supply voltage"},
				map[string]any{"pin": "3", "name": "OUT", "description": "Output"},
			},
			"warnings": []any{"Do not exceed 16 V"},
		},
		"testing": map[string]any{
			"multimeter":       []any{"Check VCC to GND"},
			"oscilloscope":     []any{"Probe OUT"},
			"expectedVoltages": "VCC 5 V",
			"faultSymptoms":    []any{"No output"},
			"safety":           []any{"Disconnect power"},
		},
		"marketPrice": map[string]any{
			"prices":         []any{price("mouser")},
			"indiaRetailers": []any{price("robu"), price("element14"), price("digikey"), price("mouser-in")},
			"minPrice":       "₹20",
			"maxPrice":       "₹40",
			"bulkTrend":      "stable",
		},
		"resources": map[string]any{
			"wikipedia":        map[string]any{"platform": "Wikipedia", "title": name, "url": "https://en.wikipedia.org/wiki/" + name},
			"youtubeVideos":    []any{map[string]any{"platform": "YouTube", "title": "Guide", "url": "https://youtu.be/x"}},
			"officialDatasets": []any{map[string]any{"name": "Datasheet", "url": "https://ti.com/" + name}},
		},
		"references": map[string]any{
			"summary":         "Precision timer",
			"youtubeKeywords": []any{name + " tutorial"},
			"datasheetNotes":  "See section 7",
			"datasetLinks":    []any{map[string]any{"name": "Datasheet", "url": "https://ti.com/" + name}},
		},
		"applications": map[string]any{
			"consumer": "Toys", "industrial": "Timers", "automotiveIot": "Blinkers", "typicalCircuits": "Astable",
		},
		"confidence": map[string]any{"ocrScore": 88.5, "idScore": 90, "disclaimer": "Verify with datasheet"},
		"caseStudy":  map[string]any{"title": "Blinker", "description": "Turn signal", "outcome": "Worked"},
		"useCases":   []any{"a", "b", "c", "d", "e"},
	}
}

// JSON is Payload marshalled.
func JSON(name string) []byte {
	b, err := json.Marshal(Payload(name))
	if err != nil {
		panic(err)
	}
	return b
}

// Report is the validated form of Payload.
func Report(name string) report.Report {
	r, err := report.Validate(JSON(name))
	if err != nil {
		panic(err)
	}
	return r
}
