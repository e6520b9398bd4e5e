package analysis

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Style configures chart rendering for an Explorer.
type Style struct {
	// Width and Height size a single plot; grids scale from them.
	Width, Height vg.Length
	// Palette colors groups in order; empty uses the plotutil defaults.
	Palette   []color.Color
	Bar       color.Color
	Accent    color.Color
	Reference color.Color
	// Bins for histograms; 0 lets the plotter pick sqrt(n).
	Bins int
	// LogScale puts the long-form multivariate comparison on a log Y axis.
	LogScale bool
	// Jitter is the half-width of strip plot spread, in category units.
	Jitter float64
}

// DefaultStyle returns the chart style used when the caller does not supply one.
func DefaultStyle() Style {
	return Style{
		Width:     8 * vg.Inch,
		Height:    6 * vg.Inch,
		Palette:   plotutil.SoftColors,
		Bar:       color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		Accent:    color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		Reference: color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff},
		Bins:      20,
		LogScale:  true,
		Jitter:    0.15,
	}
}

func (s Style) color(i int) color.Color {
	if len(s.Palette) == 0 {
		return plotutil.Color(i)
	}
	return s.Palette[i%len(s.Palette)]
}

// Explorer runs the exploration sweep over a prepared dataset.
type Explorer struct {
	Style Style
	// Log receives one progress line per sweep. Nil discards.
	Log io.Writer
}

// NewExplorer returns an Explorer with the default style.
func NewExplorer(log io.Writer) *Explorer {
	return &Explorer{Style: DefaultStyle(), Log: log}
}

func (e *Explorer) logf(format string, args ...interface{}) {
	if e.Log == nil {
		return
	}
	fmt.Fprintf(e.Log, format, args...)
}

// withAlpha returns c with its alpha replaced, for overlaid fills.
func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}
