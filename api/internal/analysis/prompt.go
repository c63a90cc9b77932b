package analysis

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// DefaultInstruction is the extraction protocol sent with every photo.
const DefaultInstruction = `SCAN PROTOCOL:
1. OCR: Identify the chip from its markings. If the markings are blurry or illegible, use the packaging type and pin count to narrow it down.
2. TECHNICAL: Provide exactly 15 key electrical and thermal specifications.
3. PINOUT: Generate a visual ASCII pinout diagram and a full functional table covering every pin.
4. RESOURCES: Fetch 1 Wikipedia link, 2 relevant YouTube repair/guide videos, and at least 3 dataset/datasheet links.
5. CASE STUDY: Provide a detailed case study of a real-world scenario where this IC was used, its role, and the outcome/findings.
6. USE CASES: List 5 distinct real-world applications/use cases for this specific integrated circuit.
7. {{upper .Region}} MARKET: Fetch pricing from at least {{atLeast .Retailers}} {{.Region}} retailers ({{join .Retailers ", "}}). Compare all prices in {{.Currency}}.

STRICT JSON OUTPUT AS PER SCHEMA. NO PREAMBLE.`

// MinRetailers is the floor on how many retailers the market step asks for.
const MinRetailers = 4

// PromptData fills the instruction template.
type PromptData struct {
	Region    string
	Currency  string
	Retailers []string
}

func DefaultPromptData() PromptData {
	return PromptData{
		Region:    "India",
		Currency:  "INR",
		Retailers: []string{"Mouser India", "Digikey India", "Robu.in", "Element14 India"},
	}
}

var funcs = template.FuncMap{
	"upper":   strings.ToUpper,
	"join":    strings.Join,
	"atLeast": atLeast,
}

func atLeast(retailers []string) int {
	return max(MinRetailers, len(retailers))
}

func ParseInstruction(text string) (*template.Template, error) {
	t, err := template.New("instruction").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse instruction template: %w", err)
	}
	return t, nil
}

// LoadInstruction reads a template file, falling back to DefaultInstruction when path is empty.
func LoadInstruction(path string) (*template.Template, error) {
	if strings.TrimSpace(path) == "" {
		return ParseInstruction(DefaultInstruction)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instruction %s: %w", path, err)
	}
	return ParseInstruction(string(b))
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
