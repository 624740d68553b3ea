package analyzer

import "context"

// DefaultFramework is the structuring framework applied when a request does
// not name one.
const DefaultFramework = "3W1H"

// Row is a single structured finding. Keys are framework-specific column
// names (for 3W1H: "what", "when", "who", "how").
type Row map[string]string

// Result is the normalized outcome of a text analysis.
type Result struct {
	Framework        string `json:"framework"`
	ConfidenceScore  int    `json:"confidenceScore"`
	Rows             []Row  `json:"rows"`
	DetectedLanguage string `json:"detectedLanguage"`
	WasTranslated    bool   `json:"wasTranslated"`
	TranslatedText   string `json:"translatedText,omitempty"`
}

// Analyzer turns free-form text into structured rows for a framework.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text, framework string) (*Result, error)
}
