package tracer

import (
	"bufio"
	"io"
	"strconv"
)

type SVGOptions struct {
	// Foreground fills the traced outlines, Background the whole canvas.
	// An empty Background leaves the canvas transparent.
	Foreground string
	Background string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Foreground: "#000000", Background: "#FFFFFF"}
}

// WriteSVG renders paths as a single even-odd filled path on a width x height canvas.
func WriteSVG(w io.Writer, width, height int, paths []Path, opts SVGOptions) error {
	if opts.Foreground == "" {
		opts.Foreground = "#000000"
	}

	bw := bufio.NewWriter(w)
	ws := strconv.Itoa(width)
	hs := strconv.Itoa(height)

	bw.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + ws + `" height="` + hs +
		`" viewBox="0 0 ` + ws + ` ` + hs + `" version="1.1">` + "\n")
	if opts.Background != "" {
		bw.WriteString("\t" + `<rect x="0" y="0" width="100%" height="100%" fill="` + opts.Background + `" />` + "\n")
	}
	if len(paths) > 0 {
		bw.WriteString("\t" + `<path d="`)
		for i, p := range paths {
			if i > 0 {
				bw.WriteByte(' ')
			}
			writePathData(bw, p)
		}
		bw.WriteString(`" stroke="none" fill="` + opts.Foreground + `" fill-rule="evenodd"/>` + "\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writePathData(bw *bufio.Writer, p Path) {
	if len(p.Segments) == 0 {
		return
	}
	start := p.Start()
	bw.WriteString("M " + coord(start.X) + " " + coord(start.Y))
	for _, s := range p.Segments {
		switch s.Kind {
		case Bezier:
			bw.WriteString(" C " + coord(s.C[0].X) + " " + coord(s.C[0].Y) + ", " +
				coord(s.C[1].X) + " " + coord(s.C[1].Y) + ", " +
				coord(s.C[2].X) + " " + coord(s.C[2].Y))
		case Corner:
			bw.WriteString(" L " + coord(s.C[1].X) + " " + coord(s.C[1].Y) +
				" " + coord(s.C[2].X) + " " + coord(s.C[2].Y))
		}
	}
	bw.WriteString(" Z")
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
