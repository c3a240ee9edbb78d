package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
	"github.com/leotorrealba/Kratostech-Converter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch format {
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	case "gif":
		require.NoError(t, gif.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	img := gradient(16, 16)

	tests := []struct {
		name   string
		data   []byte
		format entities.Format
		mime   string
	}{
		{"png", encode(t, img, "png"), entities.FormatPNG, "image/png"},
		{"jpeg", encode(t, img, "jpeg"), entities.FormatJPEG, "image/jpeg"},
		{"gif", encode(t, img, "gif"), "", "image/gif"},
		{"pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), entities.FormatPDF, "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, mime, err := DetectFormat(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.mime, mime)
		})
	}
}

func TestDetectFormatUnknown(t *testing.T) {
	format, mime, err := DetectFormat(bytes.NewReader([]byte("just some text")))
	require.NoError(t, err)
	assert.Empty(t, format)
	assert.Contains(t, mime, "text/plain")
}

func TestBinarizerProducesOnlyBlackAndWhite(t *testing.T) {
	out := Binarizer{Threshold: 128}.Modify(gradient(256, 4))

	g, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 256, 4), g.Bounds())

	for _, v := range g.Pix {
		assert.Contains(t, []uint8{0, 255}, v)
	}
	assert.Equal(t, uint8(0), g.GrayAt(100, 0).Y)
	assert.Equal(t, uint8(255), g.GrayAt(200, 0).Y)
}

func TestBinarizerTreatsTransparencyAsWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{A: 255})

	g := Binarizer{Threshold: 128}.Modify(img).(*image.Gray)
	assert.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), g.GrayAt(1, 0).Y)
}

func TestBinarizerThresholdExtremes(t *testing.T) {
	img := gradient(64, 1)

	allWhite := Binarizer{Threshold: 0}.Modify(img).(*image.Gray)
	for _, v := range allWhite.Pix {
		assert.Equal(t, uint8(255), v)
	}

	mostlyBlack := Binarizer{Threshold: 255}.Modify(img).(*image.Gray)
	assert.Equal(t, uint8(0), mostlyBlack.GrayAt(62, 0).Y)
	assert.Equal(t, uint8(255), mostlyBlack.GrayAt(63, 0).Y)
}

func TestImageProcessorLoad(t *testing.T) {
	img := gradient(20, 10)

	p := &ImageProcessor{}
	require.NoError(t, p.Load(bytes.NewReader(encode(t, img, "png")), entities.FormatPNG))
	w, h := p.GetBounds()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	require.NoError(t, p.Load(bytes.NewReader(encode(t, img, "jpeg")), entities.FormatJPEG))

	assert.Error(t, p.Load(bytes.NewReader(encode(t, img, "png")), entities.FormatJPEG))
	assert.Error(t, p.Load(bytes.NewReader(nil), entities.FormatSVG))
}

func TestImageProcessorApply(t *testing.T) {
	p := &ImageProcessor{}
	require.NoError(t, p.Load(bytes.NewReader(encode(t, gradient(8, 8), "png")), entities.FormatPNG))

	p.Apply(Binarizer{Threshold: 128})
	_, ok := p.Image().(*image.Gray)
	assert.True(t, ok)
}

func TestCheckDimensions(t *testing.T) {
	small := encode(t, gradient(40, 30), "png")

	cfg, err := CheckDimensions(bytes.NewReader(small), 40*30, MaxWebPDimension)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)

	_, err = CheckDimensions(bytes.NewReader(small), 40*30-1, 0)
	require.Error(t, err)
	assert.Equal(t, entities.KindBadRequest, entities.KindOf(err))
	assert.Contains(t, entities.MessageOf(err), "40x30")

	_, err = CheckDimensions(bytes.NewReader(small), 0, 39)
	require.Error(t, err)
	assert.Contains(t, entities.MessageOf(err), "maximum side of 39 px")

	_, err = CheckDimensions(bytes.NewReader([]byte("not an image")), 0, 0)
	assert.Equal(t, entities.KindBadRequest, entities.KindOf(err))
}

// A huge canvas compresses to a tiny upload; only the header may be read.
func TestCheckDimensionsRejectsHugeCanvasCheaply(t *testing.T) {
	data := testutil.PNGHeader(100000, 100000)

	_, err := CheckDimensions(bytes.NewReader(data), 40<<20, 0)
	require.Error(t, err)
	assert.Contains(t, entities.MessageOf(err), "100000x100000")
}
