package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
)

// ImageModifier defines an image modifier
type ImageModifier interface {
	Modify(img image.Image) image.Image
}

// Binarizer reduces an image to pure black and white: greyscale first, then
// every pixel darker than Threshold becomes black. Transparent areas are
// treated as white.
type Binarizer struct {
	Threshold uint8
}

// Modify to implement ImageModifier interface. The result is an *image.Gray
// holding only 0 and 255.
func (b Binarizer) Modify(img image.Image) image.Image {
	grey := imaging.Grayscale(img)
	bounds := grey.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		row := grey.Pix[y*grey.Stride : y*grey.Stride+bounds.Dx()*4]
		for x := 0; x < bounds.Dx(); x++ {
			v := uint32(row[x*4])
			a := uint32(row[x*4+3])
			// composite over white
			v = (v*a + 255*(255-a)) / 255
			if v < uint32(b.Threshold) {
				out.Pix[y*out.Stride+x] = 0
			} else {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// MaxWebPDimension is the largest width or height a WebP image can carry.
const MaxWebPDimension = 16383

// CheckDimensions reads only the image header and rejects images whose
// decoded raster would exceed maxPixels or whose sides exceed maxSide.
// Zero disables either limit.
func CheckDimensions(r io.Reader, maxPixels, maxSide int) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return cfg, entities.NewError(entities.KindBadRequest, "Failed to read image header", err)
	}
	if maxSide > 0 && (cfg.Width > maxSide || cfg.Height > maxSide) {
		return cfg, entities.Errorf(entities.KindBadRequest,
			"Image dimensions %dx%d exceed the maximum side of %d px", cfg.Width, cfg.Height, maxSide)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return cfg, entities.Errorf(entities.KindBadRequest,
			"Image dimensions %dx%d exceed the limit of %d pixels", cfg.Width, cfg.Height, maxPixels)
	}
	return cfg, nil
}

var detectable = map[string]entities.Format{
	"image/jpeg":      entities.FormatJPEG,
	"image/png":       entities.FormatPNG,
	"image/webp":      entities.FormatWebP,
	"image/svg+xml":   entities.FormatSVG,
	"application/pdf": entities.FormatPDF,
	entities.MimeDOCX: entities.FormatDOCX,
	entities.MimeDOC:  entities.FormatDOC,
}

// DetectFormat sniffs the content of r. The returned MIME string is always
// set, the Format only for types this service knows about.
func DetectFormat(r io.Reader) (entities.Format, string, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", fmt.Errorf("detect content type: %w", err)
	}
	for m := mime; m != nil; m = m.Parent() {
		if f, ok := detectable[m.String()]; ok {
			return f, mime.String(), nil
		}
	}
	return "", mime.String(), nil
}

// Load images, apply actions on them and then encode
type ImageProcessor struct {
	img image.Image
}

// Load decodes r with the decoder matching the detected format.
func (i *ImageProcessor) Load(r io.Reader, format entities.Format) error {
	switch format {
	case entities.FormatPNG:
		return i.LoadPNG(r)
	case entities.FormatJPEG:
		return i.LoadJPEG(r)
	default:
		return fmt.Errorf("unsupported image format: %q", format)
	}
}

func (i *ImageProcessor) LoadPNG(r io.Reader) error {
	img, err := png.Decode(r)
	i.img = img
	return err
}

func (i *ImageProcessor) LoadJPEG(r io.Reader) error {
	img, err := jpeg.Decode(r)
	i.img = img

	return err
}

func (i *ImageProcessor) Apply(modifiers ...ImageModifier) {
	for _, m := range modifiers {
		i.img = m.Modify(i.img)
	}
}

func (i *ImageProcessor) Image() image.Image {
	return i.img
}

// GetWEBP encodes lossy WebP; quality is 0-100.
func (i *ImageProcessor) GetWEBP(quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := webp.Encode(buf, i.img, &webp.Options{
		Lossless: false,
		Quality:  float32(quality),
	})
	return buf.Bytes(), err
}

func (i *ImageProcessor) GetBounds() (int, int) {
	return i.img.Bounds().Size().X, i.img.Bounds().Size().Y
}
