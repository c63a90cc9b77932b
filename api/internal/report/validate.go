package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// SchemaError lists every structural problem found in a payload.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 0 {
		return "report schema violation"
	}
	return "report schema violation: " + strings.Join(e.Problems, "; ")
}

// Validate checks raw against the report shape and decodes it.
// Any groundingSources carried by the payload are dropped: citations come only
// from response metadata.
func Validate(raw []byte) (Report, error) {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return Report{}, &SchemaError{Problems: []string{"payload is not a JSON object: " + err.Error()}}
	}
	if doc == nil {
		return Report{}, &SchemaError{Problems: []string{"payload is null"}}
	}
	normalize(doc)

	var problems []string
	for _, f := range reportFields.props {
		problems = append(problems, f.check(doc, "", false)...)
	}
	if tp, ok := doc["technicalProfile"].([]any); ok && len(tp) != ProfileSize {
		problems = append(problems, fmt.Sprintf("technicalProfile: want exactly %d entries, got %d", ProfileSize, len(tp)))
	}
	if len(problems) > 0 {
		return Report{}, &SchemaError{Problems: problems}
	}

	clean, err := json.Marshal(doc)
	if err != nil {
		return Report{}, &SchemaError{Problems: []string{err.Error()}}
	}
	var r Report
	if err := json.Unmarshal(clean, &r); err != nil {
		return Report{}, &SchemaError{Problems: []string{err.Error()}}
	}
	return r, nil
}

// normalize applies the tolerated deviations before checking:
// legacy "number" key, fractional whole-number scores, foreign groundingSources.
func normalize(doc map[string]any) {
	delete(doc, "groundingSources")
	id, ok := doc["identification"].(map[string]any)
	if !ok {
		return
	}
	if _, has := id["partNumber"]; !has {
		if n, legacy := id["number"]; legacy {
			id["partNumber"] = n
		}
	}
	delete(id, "number")
	if c, ok := id["confidence"].(float64); ok {
		id["confidence"] = math.Round(c)
	}
	if tp, ok := doc["technicalProfile"].([]any); ok {
		for _, e := range tp {
			if m, ok := e.(map[string]any); ok {
				if v, ok := m["id"].(float64); ok {
					m["id"] = math.Round(v)
				}
			}
		}
	}
}

// check validates f inside parent. Below an optional field (lenient) only types are
// enforced: the remote may return optional substructures partially populated.
func (f field) check(parent map[string]any, prefix string, lenient bool) []string {
	path := f.name
	if prefix != "" {
		path = prefix + "." + f.name
	}
	v, present := parent[f.name]
	if !present || v == nil {
		if f.optional || lenient {
			return nil
		}
		return []string{path + ": missing"}
	}
	return f.checkValue(v, path, lenient || f.optional)
}

func (f field) checkValue(v any, path string, lenient bool) []string {
	switch f.kind {
	case kindString:
		if _, ok := v.(string); !ok {
			return []string{path + ": want string"}
		}
	case kindNumber, kindInteger:
		n, ok := v.(float64)
		if !ok {
			return []string{path + ": want number"}
		}
		if f.percent && (n < 0 || n > 100) {
			return []string{fmt.Sprintf("%s: %v out of range 0..100", path, n)}
		}
	case kindArray:
		list, ok := v.([]any)
		if !ok {
			return []string{path + ": want array"}
		}
		var out []string
		for i, item := range list {
			out = append(out, f.items.checkValue(item, fmt.Sprintf("%s[%d]", path, i), lenient)...)
		}
		return out
	case kindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return []string{path + ": want object"}
		}
		var out []string
		for _, p := range f.props {
			out = append(out, p.check(m, path, lenient)...)
		}
		return out
	}
	return nil
}
