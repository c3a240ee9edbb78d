package svg_converter

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
	"github.com/leotorrealba/Kratostech-Converter/internal/processor"
	"github.com/leotorrealba/Kratostech-Converter/internal/tracer"
)

type Converter struct {
	TurnPolicy tracer.TurnPolicy
}

// ToSVG binarizes the image at params.Threshold and traces the black areas
// into an SVG document drawn black on white.
func (c Converter) ToSVG(ctx context.Context, reader io.Reader, format entities.Format, params entities.QualityParams) ([]byte, error) {
	if params.Threshold < 0 || params.Threshold > 255 {
		return nil, fmt.Errorf("threshold %d out of range 0-255", params.Threshold)
	}

	imgp := &processor.ImageProcessor{}
	if err := imgp.Load(reader, format); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}
	imgp.Apply(processor.Binarizer{Threshold: uint8(params.Threshold)})

	width, height := imgp.GetBounds()
	paths, err := tracer.Trace(ctx, imgp.Image(), tracer.Params{
		TurdSize:     params.TurdSize,
		TurnPolicy:   c.TurnPolicy,
		AlphaMax:     params.AlphaMax,
		OptCurve:     params.OptCurve,
		OptTolerance: params.OptTolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("error tracing image: %w", err)
	}

	var buf bytes.Buffer
	if err := tracer.WriteSVG(&buf, width, height, paths, tracer.DefaultSVGOptions()); err != nil {
		return nil, fmt.Errorf("error writing svg: %w", err)
	}
	return buf.Bytes(), nil
}
