package report

import (
	"encoding/json"

	"github.com/google/generative-ai-go/genai"
)

type kind int

const (
	kindString kind = iota
	kindNumber
	kindInteger
	kindArray
	kindObject
)

// field describes one key of the report payload. The same tree drives validation
// and the response schema handed to the inference backends.
type field struct {
	name        string
	kind        kind
	optional    bool
	percent     bool // number bounded to 0..100
	description string
	props       []field // kindObject
	items       *field  // kindArray
}

func str(name string) field    { return field{name: name, kind: kindString} }
func optStr(name string) field { return field{name: name, kind: kindString, optional: true} }
func pct(name string) field    { return field{name: name, kind: kindNumber, percent: true} }
func obj(name string, p ...field) field {
	return field{name: name, kind: kindObject, props: p}
}
func arr(name string, item field) field { return field{name: name, kind: kindArray, items: &item} }
func strList(name string) field         { return arr(name, field{kind: kindString}) }

func (f field) opt() field          { f.optional = true; return f }
func (f field) desc(d string) field { f.description = d; return f }

var (
	priceItem   = obj("", str("store"), str("price"), str("availability"), optStr("url"))
	linkItem    = obj("", str("platform"), str("title"), str("url"))
	datasetItem = obj("", str("name"), str("url"))
)

var reportFields = obj("",
	obj("identification",
		str("name"),
		str("partNumber"),
		str("manufacturer"),
		str("family"),
		field{name: "confidence", kind: kindInteger, percent: true, description: "Confidence score as a WHOLE NUMBER from 0 to 100."},
	),
	arr("technicalProfile", obj("", field{name: "id", kind: kindInteger}, str("label"), str("value"))).
		desc("Exactly 15 essential technical characteristics of the IC."),
	obj("pinout",
		str("diagram").desc("Detailed ASCII art pin diagram (blueprint style)"),
		arr("table", obj("", str("pin"), str("name"), str("description"))),
		strList("warnings"),
	),
	obj("testing",
		strList("multimeter"),
		strList("oscilloscope"),
		str("expectedVoltages"),
		strList("faultSymptoms"),
		strList("safety"),
	),
	obj("marketPrice",
		arr("prices", priceItem),
		arr("indiaRetailers", priceItem),
		str("minPrice"),
		str("maxPrice"),
		str("bulkTrend"),
	),
	obj("resources",
		withName(linkItem, "wikipedia").opt(),
		arr("youtubeVideos", linkItem),
		arr("officialDatasets", datasetItem),
	),
	obj("references",
		str("summary"),
		strList("youtubeKeywords"),
		str("datasheetNotes"),
		arr("datasetLinks", datasetItem).opt(),
	),
	obj("applications",
		str("consumer"),
		str("industrial"),
		str("automotiveIot"),
		str("typicalCircuits"),
	),
	obj("confidence",
		pct("ocrScore"),
		pct("idScore"),
		str("disclaimer"),
	),
	obj("caseStudy", str("title"), str("description"), str("outcome")).opt(),
	strList("useCases").opt().desc("List of real-world use cases for this specific IC."),
)

func withName(f field, name string) field { f.name = name; return f }

// GenaiSchema renders the report shape for the generative-ai-go SDK.
func GenaiSchema() *genai.Schema { return reportFields.genai() }

func (f field) genai() *genai.Schema {
	s := &genai.Schema{Description: f.description}
	switch f.kind {
	case kindString:
		s.Type = genai.TypeString
	case kindNumber:
		s.Type = genai.TypeNumber
	case kindInteger:
		s.Type = genai.TypeInteger
	case kindArray:
		s.Type = genai.TypeArray
		s.Items = f.items.genai()
	case kindObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(f.props))
		for _, p := range f.props {
			s.Properties[p.name] = p.genai()
			if !p.optional {
				s.Required = append(s.Required, p.name)
			}
		}
	}
	return s
}

// JSONSchema renders the report shape in the OpenAPI-style subset accepted by the
// Gemini REST responseSchema and by OpenAI json_schema response formats.
func JSONSchema() json.RawMessage {
	b, _ := json.Marshal(reportFields.jsonSchema())
	return b
}

func (f field) jsonSchema() map[string]any {
	m := map[string]any{}
	if f.description != "" {
		m["description"] = f.description
	}
	switch f.kind {
	case kindString:
		m["type"] = "string"
	case kindNumber:
		m["type"] = "number"
	case kindInteger:
		m["type"] = "integer"
	case kindArray:
		m["type"] = "array"
		m["items"] = f.items.jsonSchema()
	case kindObject:
		m["type"] = "object"
		props := make(map[string]any, len(f.props))
		required := make([]string, 0, len(f.props))
		for _, p := range f.props {
			props[p.name] = p.jsonSchema()
			if !p.optional {
				required = append(required, p.name)
			}
		}
		m["properties"] = props
		m["required"] = required
	}
	return m
}

// ResponseSchema hands the report shape to an inference backend.
type ResponseSchema struct{}

func (ResponseSchema) JSONSchema() json.RawMessage { return JSONSchema() }
func (ResponseSchema) GenaiSchema() *genai.Schema  { return GenaiSchema() }
