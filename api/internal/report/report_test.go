package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/report/reporttest"
)

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestValidate_Valid(t *testing.T) {
	r, err := report.Validate(reporttest.JSON("NE555"))
	require.NoError(t, err)

	assert.Len(t, r.TechnicalProfile, report.ProfileSize)
	assert.Equal(t, "NE555", r.Identification.Name)
	assert.Equal(t, "NE555N", r.Identification.PartNumber)
	assert.Equal(t, 92, r.Identification.Confidence)
	assert.Equal(t, 88.5, r.Confidence.OCRScore)
	// profile order is kept as sent
	assert.Equal(t, 1, r.TechnicalProfile[0].ID)
	assert.Equal(t, 15, r.TechnicalProfile[14].ID)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]any)
		want   string
	}{
		{
			name:   "top-level key",
			mutate: func(p map[string]any) { delete(p, "pinout") },
			want:   "pinout: missing",
		},
		{
			name:   "nested key",
			mutate: func(p map[string]any) { delete(p["identification"].(map[string]any), "manufacturer") },
			want:   "identification.manufacturer: missing",
		},
		{
			name:   "array item key",
			mutate: func(p map[string]any) { delete(p["pinout"].(map[string]any)["table"].([]any)[1].(map[string]any), "name") },
			want:   "pinout.table[1].name: missing",
		},
		{
			name:   "short profile",
			mutate: func(p map[string]any) { p["technicalProfile"] = p["technicalProfile"].([]any)[:14] },
			want:   "technicalProfile: want exactly 15 entries, got 14",
		},
		{
			name:   "non-numeric score",
			mutate: func(p map[string]any) { p["confidence"].(map[string]any)["idScore"] = "high" },
			want:   "confidence.idScore: want number",
		},
		{
			name:   "confidence above 100",
			mutate: func(p map[string]any) { p["identification"].(map[string]any)["confidence"] = 250 },
			want:   "identification.confidence: 250 out of range 0..100",
		},
		{
			name:   "negative score",
			mutate: func(p map[string]any) { p["confidence"].(map[string]any)["ocrScore"] = -40 },
			want:   "confidence.ocrScore: -40 out of range 0..100",
		},
		{
			name:   "null key",
			mutate: func(p map[string]any) { p["testing"] = nil },
			want:   "testing: missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := reporttest.Payload("NE555")
			tt.mutate(p)

			_, err := report.Validate(marshal(t, p))
			var se *report.SchemaError
			require.True(t, errors.As(err, &se), "want SchemaError, got %v", err)
			assert.Contains(t, se.Problems, tt.want)
		})
	}
}

func TestValidate_NotJSON(t *testing.T) {
	_, err := report.Validate([]byte("Here is your report: {"))
	var se *report.SchemaError
	require.ErrorAs(t, err, &se)

	_, err = report.Validate([]byte("null"))
	require.ErrorAs(t, err, &se)
}

func TestValidate_OptionalSubstructures(t *testing.T) {
	p := reporttest.Payload("LM358")
	delete(p, "caseStudy")
	delete(p, "useCases")
	delete(p["resources"].(map[string]any), "wikipedia")
	delete(p["references"].(map[string]any), "datasetLinks")

	r, err := report.Validate(marshal(t, p))
	require.NoError(t, err)
	assert.Nil(t, r.CaseStudy)
	assert.Equal(t, report.Placeholder, r.WikipediaURL())
	assert.Equal(t, report.Placeholder, r.CaseStudyTitle())

	// partially populated optional parts are tolerated
	p["caseStudy"] = map[string]any{"title": "Only a title"}
	p["resources"].(map[string]any)["wikipedia"] = map[string]any{"platform": "Wikipedia"}
	r, err = report.Validate(marshal(t, p))
	require.NoError(t, err)
	assert.Equal(t, "Only a title", r.CaseStudyTitle())
	assert.Equal(t, report.Placeholder, r.WikipediaURL())
}

func TestValidate_Normalization(t *testing.T) {
	p := reporttest.Payload("NE555")
	id := p["identification"].(map[string]any)
	delete(id, "partNumber")
	id["number"] = "NE555P"
	id["confidence"] = 87.6
	p["groundingSources"] = []any{map[string]any{"title": "made up", "uri": "https://fake"}}

	r, err := report.Validate(marshal(t, p))
	require.NoError(t, err)
	assert.Equal(t, "NE555P", r.Identification.PartNumber)
	assert.Equal(t, 88, r.Identification.Confidence)
	assert.Nil(t, r.GroundingSources)
}

func TestWithGrounding_DoesNotMutate(t *testing.T) {
	r := reporttest.Report("NE555")
	src := []report.GroundingSource{{Title: "TI", URI: "https://ti.com"}}

	g := r.WithGrounding(src)
	src[0].Title = "changed"

	assert.Nil(t, r.GroundingSources)
	require.Len(t, g.GroundingSources, 1)
	assert.Equal(t, "TI", g.GroundingSources[0].Title)

	g.TechnicalProfile[0].Value = "mutated"
	assert.Equal(t, "1 V", r.TechnicalProfile[0].Value)
}

func TestFilterPins(t *testing.T) {
	r := reporttest.Report("NE555")
	assert.Len(t, r.FilterPins(""), 3)
	assert.Equal(t, []report.PinFunction{{Pin: "8", Name: "VCC", Description: "Supply voltage"}}, r.FilterPins("supply"))
	assert.Equal(t, "GND", r.FilterPins("gnd")[0].Name)
	assert.Empty(t, r.FilterPins("clock"))
}

func TestDossier(t *testing.T) {
	r := reporttest.Report("NE555").WithGrounding([]report.GroundingSource{{URI: "https://ti.com"}})
	var buf bytes.Buffer
	require.NoError(t, r.Dossier(&buf))

	out := buf.String()
	assert.Contains(t, out, "RESEARCH DOSSIER: NE555")
	assert.Contains(t, out, "Manufacturer: Texas Instruments")
	assert.Contains(t, out, "Param 15")
	assert.Contains(t, out, "Supply voltage")
	assert.Contains(t, out, "N/A https://ti.com")
}

func TestSchemas(t *testing.T) {
	var js map[string]any
	require.NoError(t, json.Unmarshal(report.JSONSchema(), &js))
	assert.Equal(t, "object", js["type"])
	assert.Contains(t, js["required"], "technicalProfile")
	assert.NotContains(t, js["required"], "caseStudy")

	gs := report.GenaiSchema()
	require.Contains(t, gs.Properties, "identification")
	assert.Contains(t, gs.Properties["identification"].Required, "partNumber")
	assert.NotContains(t, gs.Properties["resources"].Required, "wikipedia")
}
