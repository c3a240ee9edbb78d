// Package tracer turns a two-colour raster into smooth vector outlines with
// potrace and renders them as SVG.
package tracer

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/dennwc/gotrace"
)

// MaxPixels bounds the raster size accepted by Trace.
const MaxPixels = 64 << 20

// SegmentKind tells how a segment reaches its end point.
type SegmentKind int

const (
	// Bezier is a cubic curve through C[0], C[1] to C[2].
	Bezier SegmentKind = iota
	// Corner is two straight lines, to C[1] and then to C[2].
	Corner
)

type Point struct {
	X, Y float64
}

type Segment struct {
	Kind SegmentKind
	C    [3]Point
}

// Path is one closed outline. Holes are separate paths; an even-odd fill
// renders them without knowing which is which.
type Path struct {
	Segments []Segment
}

// Start is the point the outline begins and ends at.
func (p Path) Start() Point {
	if len(p.Segments) == 0 {
		return Point{}
	}
	return p.Segments[len(p.Segments)-1].C[2]
}

// IsForeground reports whether c is traced, i.e. darker than mid-grey.
func IsForeground(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}

// Trace vectorizes the dark pixels of img. The returned paths are in image
// coordinates relative to img.Bounds().Min.
func Trace(ctx context.Context, img image.Image, p Params) (paths []Path, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyBitmap
	}
	b := img.Bounds()
	if b.Dx()*b.Dy() > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrBitmapTooLarge, b.Dx(), b.Dy())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bm := gotrace.NewBitmap(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if IsForeground(img.At(b.Min.X+x, b.Min.Y+y)) {
				bm.Set(x, y, true)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			paths = nil
			err = fmt.Errorf("tracer panic: %v", r)
		}
	}()

	traced, err := gotrace.Trace(bm, p.lib())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return flatten(nil, traced), nil
}

// flatten walks the outline tree depth first, parents before their holes.
func flatten(dst []Path, src []gotrace.Path) []Path {
	for _, p := range src {
		out := Path{Segments: make([]Segment, len(p.Curve))}
		for i, s := range p.Curve {
			kind := Bezier
			if s.Type == gotrace.TypeCorner {
				kind = Corner
			}
			out.Segments[i] = Segment{Kind: kind, C: [3]Point{
				{X: s.Pnt[0].X, Y: s.Pnt[0].Y},
				{X: s.Pnt[1].X, Y: s.Pnt[1].Y},
				{X: s.Pnt[2].X, Y: s.Pnt[2].Y},
			}}
		}
		if len(out.Segments) > 0 {
			dst = append(dst, out)
		}
		dst = flatten(dst, p.Childs)
	}
	return dst
}
