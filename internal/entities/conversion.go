package entities

import (
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatSVG  Format = "svg"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatPDF  Format = "pdf"
)

const (
	MimeWebP = "image/webp"
	MimeSVG  = "image/svg+xml"
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

// ContentType returns the response MIME type for an output format.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return MimeWebP
	case FormatSVG:
		return MimeSVG
	case FormatPDF:
		return MimePDF
	case FormatDOCX:
		return MimeDOCX
	default:
		return "application/octet-stream"
	}
}

// QualityParams holds the tuning knobs of the image path. Quality only applies
// to webp output, the remaining fields to svg tracing.
type QualityParams struct {
	Quality      int     `json:"quality"`
	Threshold    int     `json:"threshold"`
	TurdSize     int     `json:"turdSize"`
	AlphaMax     float64 `json:"alphaMax"`
	OptCurve     bool    `json:"optCurve"`
	OptTolerance float64 `json:"optTolerance"`
}

func DefaultQualityParams() QualityParams {
	return QualityParams{
		Quality:      80,
		Threshold:    128,
		TurdSize:     2,
		AlphaMax:     1,
		OptCurve:     true,
		OptTolerance: 0.2,
	}
}

// ConversionRequest is built once per upload and dropped after the response.
type ConversionRequest struct {
	SourcePath   string
	SourceName   string
	SourceFormat Format
	TargetFormat Format
	Params       QualityParams
}

type ConvertedFile struct {
	Bytes    []byte
	MimeType string
	Filename string
	// PageCount is only known for relayed PDF output.
	PageCount int
}

// SuggestedFilename keeps the base name of the upload and swaps its extension.
func SuggestedFilename(original string, target Format) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "converted"
	}
	return base + "." + string(target)
}
