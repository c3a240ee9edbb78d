package tracer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canvas(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

func fillRect(g *image.Gray, x0, y0, x1, y1 int, black bool) {
	v := uint8(255)
	if black {
		v = 0
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func TestTraceEmptyImage(t *testing.T) {
	_, err := Trace(context.Background(), image.NewGray(image.Rect(0, 0, 0, 10)), DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyBitmap)

	_, err = Trace(context.Background(), nil, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyBitmap)
}

func TestTraceRejectsInvalidParams(t *testing.T) {
	img := canvas(4, 4)

	tests := map[string]func(*Params){
		"negative turd size": func(p *Params) { p.TurdSize = -1 },
		"alpha max":          func(p *Params) { p.AlphaMax = 2 },
		"opt tolerance":      func(p *Params) { p.OptTolerance = -0.1 },
		"turn policy":        func(p *Params) { p.TurnPolicy = TurnPolicy(42) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			_, err := Trace(context.Background(), img, p)
			assert.Error(t, err)
		})
	}
}

func TestTraceBlankImageHasNoPaths(t *testing.T) {
	paths, err := Trace(context.Background(), canvas(16, 16), DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTraceSquare(t *testing.T) {
	img := canvas(40, 40)
	fillRect(img, 10, 10, 30, 30, true)

	paths, err := Trace(context.Background(), img, DefaultParams())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.NotEmpty(t, paths[0].Segments)

	for _, s := range paths[0].Segments {
		for _, c := range s.C[1:] {
			assert.InDelta(t, 20, c.X, 11, "x within the square")
			assert.InDelta(t, 20, c.Y, 11, "y within the square")
		}
	}
}

func TestTraceSquareWithHole(t *testing.T) {
	img := canvas(50, 50)
	fillRect(img, 10, 10, 40, 40, true)
	fillRect(img, 20, 20, 30, 30, false)

	paths, err := Trace(context.Background(), img, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestTraceTurdSizeSuppressesSpeckles(t *testing.T) {
	img := canvas(30, 30)
	fillRect(img, 2, 2, 3, 3, true)
	fillRect(img, 10, 10, 20, 20, true)

	paths, err := Trace(context.Background(), img, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	p := DefaultParams()
	p.TurdSize = 200
	paths, err = Trace(context.Background(), img, p)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTracePolygonWhenAlphaMaxIsZero(t *testing.T) {
	img := canvas(40, 40)
	fillRect(img, 5, 5, 35, 25, true)

	p := DefaultParams()
	p.AlphaMax = 0
	p.OptCurve = false

	paths, err := Trace(context.Background(), img, p)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	for _, s := range paths[0].Segments {
		assert.Equal(t, Corner, s.Kind)
	}
}

func TestTraceIsDeterministic(t *testing.T) {
	img := canvas(64, 64)
	fillRect(img, 4, 4, 40, 20, true)
	fillRect(img, 20, 10, 60, 60, true)
	fillRect(img, 30, 30, 40, 40, false)

	render := func() string {
		paths, err := Trace(context.Background(), img, DefaultParams())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteSVG(&buf, 64, 64, paths, DefaultSVGOptions()))
		return buf.String()
	}
	assert.Equal(t, render(), render())
}

func TestTraceHonoursCancellation(t *testing.T) {
	img := canvas(20, 20)
	fillRect(img, 5, 5, 15, 15, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Trace(ctx, img, DefaultParams())
	assert.True(t, errors.Is(err, context.Canceled))
}

var colorAttr = regexp.MustCompile(`(?:fill|stroke)="([^"]*)"`)

func TestWriteSVGUsesOnlyBlackAndWhite(t *testing.T) {
	img := canvas(32, 32)
	fillRect(img, 4, 4, 28, 28, true)
	fillRect(img, 12, 12, 20, 20, false)

	paths, err := Trace(context.Background(), img, DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, 32, 32, paths, DefaultSVGOptions()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, `viewBox="0 0 32 32"`)
	assert.Contains(t, out, `fill-rule="evenodd"`)
	assert.Equal(t, 2, strings.Count(out, "M "))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))

	for _, m := range colorAttr.FindAllStringSubmatch(out, -1) {
		assert.Contains(t, []string{"#000000", "#FFFFFF", "none"}, m[1])
	}
}

func TestWriteSVGWithoutPaths(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, 8, 4, nil, DefaultSVGOptions()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="8" height="4"`))
	assert.Contains(t, out, `fill="#FFFFFF"`)
	assert.NotContains(t, out, "<path")
}

func TestParseTurnPolicy(t *testing.T) {
	p, err := ParseTurnPolicy("majority")
	require.NoError(t, err)
	assert.Equal(t, TurnMajority, p)
	assert.Equal(t, "majority", p.String())

	p, err = ParseTurnPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TurnMinority, p)

	_, err = ParseTurnPolicy("sideways")
	assert.Error(t, err)
	assert.Equal(t, "TurnPolicy(9)", TurnPolicy(9).String())
}
