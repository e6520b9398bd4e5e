package analysis

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/sajari/regression"
	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/edakit/internal/utils"
)

// Chart is a named grid of plots rendered together. A single plot is a 1x1 grid; nil
// cells are left blank.
type Chart struct {
	Name   string
	Plots  [][]*plot.Plot
	Width  vg.Length
	Height vg.Length
}

// Formats lists the image formats SaveCharts accepts.
var Formats = []string{"png", "svg", "pdf"}

func (e *Explorer) chart(name string, grid [][]*plot.Plot) Chart {
	rows, cols := len(grid), 0
	for _, r := range grid {
		if len(r) > cols {
			cols = len(r)
		}
	}
	w := e.Style.Width * vg.Length(maxInt(cols, 2)) / 2
	h := e.Style.Height * vg.Length(maxInt(rows, 2)) / 2
	return Chart{Name: name, Plots: grid, Width: w, Height: h}
}

// Render draws the chart in the given format ("png", "svg" or "pdf") to w.
func (c Chart) Render(w io.Writer, format string) error {
	if len(c.Plots) == 0 {
		return fmt.Errorf("chart %q has no plots", c.Name)
	}
	cols := 0
	for _, r := range c.Plots {
		cols = maxInt(cols, len(r))
	}
	if cols == 0 {
		return fmt.Errorf("chart %q has no plots", c.Name)
	}
	// Align needs a rectangular grid.
	grid := make([][]*plot.Plot, len(c.Plots))
	for i, r := range c.Plots {
		grid[i] = make([]*plot.Plot, cols)
		copy(grid[i], r)
	}
	cw, err := draw.NewFormattedCanvas(c.Width, c.Height, format)
	if err != nil {
		return fmt.Errorf("chart %q: %w", c.Name, err)
	}
	tiles := draw.Tiles{
		Rows: len(grid), Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(grid, tiles, draw.New(cw))
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
	if _, err := cw.WriteTo(w); err != nil {
		return fmt.Errorf("write chart %q: %w", c.Name, err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SaveCharts renders every chart into dir as <name>.<format> and returns the paths written.
func SaveCharts(dir string, charts []Chart, format string) ([]string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "png"
	}
	ok := false
	for _, f := range Formats {
		if f == format {
			ok = true
		}
	}
	if !ok {
		return nil, fmt.Errorf("unsupported chart format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		var buf bytes.Buffer
		if err := c.Render(&buf, format); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, unsafeName.ReplaceAllString(c.Name, "_")+"."+format)
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

func (e *Explorer) barPlot(title string, labels []string, values []float64, ylabel string) (*plot.Plot, error) {
	p := newPlot(title, "", ylabel)
	p.Add(plotter.NewGrid())
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", title, err)
	}
	bars.Color = e.Style.Bar
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

func (e *Explorer) addHist(p *plot.Plot, values []float64, fill color.Color) error {
	if len(values) == 0 {
		return nil
	}
	h, err := plotter.NewHist(plotter.Values(values), e.Style.Bins)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", p.Title.Text, err)
	}
	h.FillColor = fill
	p.Add(h)
	return nil
}

// boxPlot draws one box per group at x = 0, 1, ...; empty groups are left out.
func (e *Explorer) boxPlot(title string, labels []string, groups [][]float64) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(g))
		if err != nil {
			return nil, fmt.Errorf("box plot %s: %w", title, err)
		}
		b.FillColor = e.Style.color(i)
		p.Add(b)
	}
	p.NominalX(labels...)
	return p, nil
}

// stripPoints spreads values around x with a deterministic golden-ratio jitter.
func stripPoints(x float64, values []float64, width float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for j, v := range values {
		f := math.Mod(float64(j)*0.6180339887498949, 1)
		xys[j] = plotter.XY{X: x + (f-0.5)*2*width, Y: v}
	}
	return xys
}

func scatter(xys plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// stripPlot draws one jittered column of points per group.
func (e *Explorer) stripPlot(title string, labels []string, groups [][]float64) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		s, err := scatter(stripPoints(float64(i), g, e.Style.Jitter), e.Style.color(i))
		if err != nil {
			return nil, fmt.Errorf("strip plot %s: %w", title, err)
		}
		p.Add(s)
	}
	p.NominalX(labels...)
	return p, nil
}

// addReference draws a dashed horizontal line at y across [xmin, xmax].
func (e *Explorer) addReference(p *plot.Plot, y, xmin, xmax float64, label string) error {
	l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: y}, {X: xmax, Y: y}})
	if err != nil {
		return err
	}
	l.LineStyle.Color = e.Style.Reference
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	p.Add(l)
	if label != "" {
		p.Legend.Add(label, l)
		p.Legend.Top = true
	}
	return nil
}

// addViolinHalf draws a kernel density outline for values on one side of x. side is -1 for
// the left half and +1 for the right. Samples with fewer than two distinct values are skipped.
func addViolinHalf(p *plot.Plot, x float64, values []float64, lo, hi float64, side float64, fill color.Color) error {
	if len(values) < 2 || gstat.StdDev(values, nil) == 0 || hi <= lo {
		return nil
	}
	kde := stats.KDE{Sample: stats.Sample{Xs: values}}
	const steps = 60
	ys := make([]float64, steps)
	floats.Span(ys, lo, hi)
	dens := make([]float64, steps)
	for i, y := range ys {
		dens[i] = kde.PDF(y)
	}
	peak := floats.Max(dens)
	if peak <= 0 || math.IsNaN(peak) {
		return nil
	}
	xys := make(plotter.XYs, 0, 2*steps)
	for i, y := range ys {
		xys = append(xys, plotter.XY{X: x + side*0.4*dens[i]/peak, Y: y})
	}
	for i := steps - 1; i >= 0; i-- {
		xys = append(xys, plotter.XY{X: x, Y: ys[i]})
	}
	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return err
	}
	poly.Color = fill
	p.Add(poly)
	return nil
}

// Fit is a least-squares line y = Intercept + Slope*x.
type Fit struct {
	X, Y      string
	Intercept float64
	Slope     float64
	R2        float64
}

func fitLine(xname, yname string, xs, ys []float64) (Fit, error) {
	r := new(regression.Regression)
	r.SetObserved(yname)
	r.SetVar(0, xname)
	n := 0
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		r.Train(regression.DataPoint(ys[i], []float64{xs[i]}))
		n++
	}
	if n < 3 {
		return Fit{}, fmt.Errorf("fit %s ~ %s: need at least 3 points, have %d", yname, xname, n)
	}
	if err := r.Run(); err != nil {
		return Fit{}, fmt.Errorf("fit %s ~ %s: %w", yname, xname, err)
	}
	f := Fit{X: xname, Y: yname, Intercept: r.Coeff(0), Slope: r.Coeff(1), R2: r.R2}
	if math.IsNaN(f.Slope) || math.IsInf(f.Slope, 0) {
		return Fit{}, fmt.Errorf("fit %s ~ %s: degenerate data", yname, xname)
	}
	return f, nil
}

// pairGrid draws scatter plots off the diagonal and histograms on it. groups assigns each
// row to a color; nil draws a single group. With fit set, every scatter gets its
// least-squares line.
func (e *Explorer) pairGrid(cols []string, data [][]float64, groups []int, ngroups int, fit bool) ([][]*plot.Plot, []Fit, error) {
	if ngroups < 1 {
		ngroups = 1
	}
	split := func(vals []float64) [][]float64 {
		out := make([][]float64, ngroups)
		for i, v := range vals {
			g := 0
			if groups != nil {
				g = groups[i]
			}
			if !math.IsNaN(v) {
				out[g] = append(out[g], v)
			}
		}
		return out
	}
	var fits []Fit
	grid := make([][]*plot.Plot, len(cols))
	for i := range cols {
		grid[i] = make([]*plot.Plot, len(cols))
		for j := range cols {
			xl, yl := "", ""
			if i == len(cols)-1 {
				xl = cols[j]
			}
			if j == 0 {
				yl = cols[i]
			}
			p := newPlot("", xl, yl)
			if i == j {
				for g, vals := range split(data[i]) {
					if err := e.addHist(p, vals, withAlpha(e.Style.color(g), 0x99)); err != nil {
						return nil, nil, err
					}
				}
				grid[i][j] = p
				continue
			}
			pts := make([]plotter.XYs, ngroups)
			for k := range data[j] {
				x, y := data[j][k], data[i][k]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				g := 0
				if groups != nil {
					g = groups[k]
				}
				pts[g] = append(pts[g], plotter.XY{X: x, Y: y})
			}
			for g, xys := range pts {
				if len(xys) == 0 {
					continue
				}
				s, err := scatter(xys, e.Style.color(g))
				if err != nil {
					return nil, nil, fmt.Errorf("pair %s/%s: %w", cols[i], cols[j], err)
				}
				p.Add(s)
			}
			if fit {
				f, err := fitLine(cols[j], cols[i], data[j], data[i])
				if err != nil {
					e.logf("⚠ %v\n", err)
				} else {
					fits = append(fits, f)
					xmin, xmax := floatRange(data[j])
					l, err := plotter.NewLine(plotter.XYs{
						{X: xmin, Y: f.Intercept + f.Slope*xmin},
						{X: xmax, Y: f.Intercept + f.Slope*xmax},
					})
					if err != nil {
						return nil, nil, err
					}
					l.LineStyle.Color = e.Style.Accent
					l.LineStyle.Width = vg.Points(1.5)
					p.Add(l)
				}
			}
			grid[i][j] = p
		}
	}
	return grid, fits, nil
}

func floatRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// levels returns the sorted distinct values of a categorical column, skipping missing ones.
func levels(values []string, missing []bool) []string {
	set := map[string]bool{}
	for i, v := range values {
		if !missing[i] {
			set[v] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
