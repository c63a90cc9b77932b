// Package report holds the intelligence report produced for one component photo
// and the rules a remote payload must satisfy before it becomes one.
package report

// ProfileSize is the exact number of rows in Report.TechnicalProfile.
const ProfileSize = 15

type Report struct {
	Identification   Identification    `json:"identification"`
	TechnicalProfile []Characteristic  `json:"technicalProfile"`
	Pinout           Pinout            `json:"pinout"`
	Testing          Testing           `json:"testing"`
	MarketPrice      MarketPrice       `json:"marketPrice"`
	Resources        Resources         `json:"resources"`
	References       References        `json:"references"`
	Applications     Applications      `json:"applications"`
	Confidence       Confidence        `json:"confidence"`
	CaseStudy        *CaseStudy        `json:"caseStudy,omitempty"`
	UseCases         []string          `json:"useCases,omitempty"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

type Identification struct {
	Name         string `json:"name"`
	PartNumber   string `json:"partNumber"`
	Manufacturer string `json:"manufacturer"`
	Family       string `json:"family"`
	Confidence   int    `json:"confidence"`
}

type Characteristic struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Pinout struct {
	Diagram  string        `json:"diagram"`
	Table    []PinFunction `json:"table"`
	Warnings []string      `json:"warnings"`
}

type PinFunction struct {
	Pin         string `json:"pin"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Testing struct {
	Multimeter       []string `json:"multimeter"`
	Oscilloscope     []string `json:"oscilloscope"`
	ExpectedVoltages string   `json:"expectedVoltages"`
	FaultSymptoms    []string `json:"faultSymptoms"`
	Safety           []string `json:"safety"`
}

type PriceData struct {
	Store        string `json:"store"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	URL          string `json:"url,omitempty"`
}

type MarketPrice struct {
	Prices         []PriceData `json:"prices"`
	IndiaRetailers []PriceData `json:"indiaRetailers"`
	MinPrice       string      `json:"minPrice"`
	MaxPrice       string      `json:"maxPrice"`
	BulkTrend      string      `json:"bulkTrend"`
}

type ResourceLink struct {
	Platform string `json:"platform"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type DatasetLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Resources struct {
	Wikipedia        *ResourceLink  `json:"wikipedia,omitempty"`
	YoutubeVideos    []ResourceLink `json:"youtubeVideos"`
	OfficialDatasets []DatasetLink  `json:"officialDatasets"`
}

type References struct {
	Summary         string        `json:"summary"`
	DatasheetNotes  string        `json:"datasheetNotes"`
	YoutubeKeywords []string      `json:"youtubeKeywords"`
	DatasetLinks    []DatasetLink `json:"datasetLinks,omitempty"`
}

type Applications struct {
	Consumer        string `json:"consumer"`
	Industrial      string `json:"industrial"`
	AutomotiveIot   string `json:"automotiveIot"`
	TypicalCircuits string `json:"typicalCircuits"`
}

// Confidence is independent of Identification.Confidence; neither is derived from the other.
type Confidence struct {
	OCRScore   float64 `json:"ocrScore"`
	IDScore    float64 `json:"idScore"`
	Disclaimer string  `json:"disclaimer"`
}

type CaseStudy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Outcome     string `json:"outcome"`
}

type GroundingSource struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// WithGrounding returns a copy of r carrying sources. r itself is left untouched.
func (r Report) WithGrounding(sources []GroundingSource) Report {
	out := r.Clone()
	if len(sources) == 0 {
		out.GroundingSources = nil
		return out
	}
	out.GroundingSources = append([]GroundingSource(nil), sources...)
	return out
}

// Clone deep-copies every slice and pointer so the copy shares no memory with r.
func (r Report) Clone() Report {
	out := r
	out.TechnicalProfile = cloneSlice(r.TechnicalProfile)
	out.Pinout.Table = cloneSlice(r.Pinout.Table)
	out.Pinout.Warnings = cloneSlice(r.Pinout.Warnings)
	out.Testing.Multimeter = cloneSlice(r.Testing.Multimeter)
	out.Testing.Oscilloscope = cloneSlice(r.Testing.Oscilloscope)
	out.Testing.FaultSymptoms = cloneSlice(r.Testing.FaultSymptoms)
	out.Testing.Safety = cloneSlice(r.Testing.Safety)
	out.MarketPrice.Prices = cloneSlice(r.MarketPrice.Prices)
	out.MarketPrice.IndiaRetailers = cloneSlice(r.MarketPrice.IndiaRetailers)
	if r.Resources.Wikipedia != nil {
		w := *r.Resources.Wikipedia
		out.Resources.Wikipedia = &w
	}
	out.Resources.YoutubeVideos = cloneSlice(r.Resources.YoutubeVideos)
	out.Resources.OfficialDatasets = cloneSlice(r.Resources.OfficialDatasets)
	out.References.YoutubeKeywords = cloneSlice(r.References.YoutubeKeywords)
	out.References.DatasetLinks = cloneSlice(r.References.DatasetLinks)
	if r.CaseStudy != nil {
		cs := *r.CaseStudy
		out.CaseStudy = &cs
	}
	out.UseCases = cloneSlice(r.UseCases)
	out.GroundingSources = cloneSlice(r.GroundingSources)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
