package webp_converter

import (
	"fmt"
	"io"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
	"github.com/leotorrealba/Kratostech-Converter/internal/processor"
)

type Converter struct{}

// ToWebP decodes a jpeg or png stream and re-encodes it as lossy WebP.
// Output is deterministic for a given input and quality.
func (Converter) ToWebP(reader io.Reader, format entities.Format, quality int) ([]byte, error) {
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("quality %d out of range 0-100", quality)
	}

	imgp := &processor.ImageProcessor{}
	if err := imgp.Load(reader, format); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	out, err := imgp.GetWEBP(quality)
	if err != nil {
		return nil, fmt.Errorf("error encoding to webp: %w", err)
	}

	return out, nil
}
