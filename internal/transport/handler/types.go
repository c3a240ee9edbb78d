package handler

// ImageParams is the normalized form of the image conversion fields. Absent
// or non-numeric values fall back to the configured defaults before
// validation; out-of-range values are rejected, never clamped.
type ImageParams struct {
	OutputFormat string  `form:"outputFormat"`
	Quality      int     `form:"quality" validate:"gte=0,lte=100"`
	Threshold    int     `form:"threshold" validate:"gte=0,lte=255"`
	TurdSize     int     `form:"turdSize" validate:"gte=0"`
	AlphaMax     float64 `form:"alphaMax" validate:"gte=0,lte=1.33"`
	OptCurve     bool    `form:"optCurve"`
	OptTolerance float64 `form:"optTolerance" validate:"gte=0,lte=1"`
}

type APIError struct {
	Message string `json:"message"`
}

type paramRange struct {
	Min     float64  `json:"min"`
	Max     *float64 `json:"max,omitempty"`
	Default float64  `json:"default"`
}

type FormatsResponse struct {
	Image struct {
		Input  []string              `json:"input"`
		Output []string              `json:"output"`
		Params map[string]paramRange `json:"params"`
		// OptCurve defaults to true and is enabled only by the literal "true".
		OptCurve bool `json:"optCurve"`
	} `json:"image"`
	WordToPDF struct {
		Input      []string `json:"input"`
		Output     []string `json:"output"`
		Configured bool     `json:"configured"`
	} `json:"wordToPdf"`
	PDFToWord struct {
		Available bool `json:"available"`
	} `json:"pdfToWord"`
	MaxFileSizeMB int64 `json:"maxFileSizeMb"`
}
