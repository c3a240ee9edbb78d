package use_case

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
	"github.com/leotorrealba/Kratostech-Converter/internal/processor"
)

type WebPConverter interface {
	ToWebP(reader io.Reader, format entities.Format, quality int) ([]byte, error)
}

type SVGConverter interface {
	ToSVG(ctx context.Context, reader io.Reader, format entities.Format, params entities.QualityParams) ([]byte, error)
}

// DocumentConverter turns a Word document into a PDF and reports its page count.
type DocumentConverter interface {
	Configured() bool
	Convert(ctx context.Context, doc []byte) ([]byte, int, error)
}

type useCase struct {
	webp WebPConverter
	svg  SVGConverter
	docs DocumentConverter
	// maxPixels caps width*height of an image input; 0 means no cap.
	maxPixels int
	logger    *zap.Logger
}

func New(webp WebPConverter, svg SVGConverter, docs DocumentConverter, maxPixels int, logger *zap.Logger) *useCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &useCase{
		webp:      webp,
		svg:       svg,
		docs:      docs,
		maxPixels: maxPixels,
		logger:    logger,
	}
}

// ConvertImage converts the spooled jpeg or png at req.SourcePath into
// req.TargetFormat.
func (c *useCase) ConvertImage(ctx context.Context, req entities.ConversionRequest) (entities.ConvertedFile, error) {
	out := entities.ConvertedFile{}

	if req.TargetFormat != entities.FormatWebP && req.TargetFormat != entities.FormatSVG {
		return out, entities.Errorf(entities.KindUnsupportedOutputFormat, "Unsupported output format: %s", req.TargetFormat)
	}

	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return out, entities.NewError(entities.KindInternal, "Failed to read uploaded file", err)
	}

	format, mime, err := processor.DetectFormat(bytes.NewReader(data))
	if err != nil {
		return out, entities.NewError(entities.KindInternal, "Failed to inspect uploaded file", err)
	}
	if format != entities.FormatJPEG && format != entities.FormatPNG {
		return out, entities.Errorf(entities.KindUnsupportedInputFormat, "Unsupported input format: %s", mime)
	}
	req.SourceFormat = format

	maxSide := 0
	if req.TargetFormat == entities.FormatWebP {
		maxSide = processor.MaxWebPDimension
	}
	if _, err := processor.CheckDimensions(bytes.NewReader(data), c.maxPixels, maxSide); err != nil {
		return out, err
	}

	start := time.Now()
	switch req.TargetFormat {
	case entities.FormatWebP:
		out.Bytes, err = c.webp.ToWebP(bytes.NewReader(data), format, req.Params.Quality)
		if err != nil {
			return out, entities.NewError(entities.KindInternal, fmt.Sprintf("Error converting image: %v", err), err)
		}
	case entities.FormatSVG:
		out.Bytes, err = c.svg.ToSVG(ctx, bytes.NewReader(data), format, req.Params)
		if err != nil {
			return out, entities.NewError(entities.KindTracingFailed, fmt.Sprintf("Failed to convert image to SVG: %v", err), err)
		}
	}

	c.logger.Info("image converted",
		zap.String("from", string(req.SourceFormat)),
		zap.String("to", string(req.TargetFormat)),
		zap.Int("in_bytes", len(data)),
		zap.Int("out_bytes", len(out.Bytes)),
		zap.Duration("took", time.Since(start)),
	)

	out.MimeType = req.TargetFormat.ContentType()
	out.Filename = entities.SuggestedFilename(req.SourceName, req.TargetFormat)
	return out, nil
}

// ConvertWordToPDF relays the spooled Word document at path to the document
// converter.
func (c *useCase) ConvertWordToPDF(ctx context.Context, path, name string) (entities.ConvertedFile, error) {
	out := entities.ConvertedFile{}

	if c.docs == nil || !c.docs.Configured() {
		return out, entities.ErrServiceNotConfigured
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return out, entities.NewError(entities.KindInternal, "Failed to read uploaded file", err)
	}

	format, mime, err := processor.DetectFormat(bytes.NewReader(data))
	if err != nil {
		return out, entities.NewError(entities.KindInternal, "Failed to inspect uploaded file", err)
	}
	if format != entities.FormatDOCX && format != entities.FormatDOC {
		return out, entities.Errorf(entities.KindUnsupportedInputFormat, "Unsupported input format: %s", mime)
	}

	start := time.Now()
	pdf, pages, err := c.docs.Convert(ctx, data)
	if err != nil {
		return out, err
	}

	c.logger.Info("document converted",
		zap.String("from", string(format)),
		zap.Int("in_bytes", len(data)),
		zap.Int("out_bytes", len(pdf)),
		zap.Int("pages", pages),
		zap.Duration("took", time.Since(start)),
	)

	out.Bytes = pdf
	out.PageCount = pages
	out.MimeType = entities.MimePDF
	out.Filename = entities.SuggestedFilename(name, entities.FormatPDF)
	return out, nil
}
