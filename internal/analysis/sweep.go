// Package analysis implements the exploration sweep: univariate, bivariate and
// multivariate summaries of a prepared dataset, each returning a markdown report and a set
// of charts.
package analysis

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/edakit/internal/frame"
)

// CategoricalSummary is the frequency table of one categorical column.
type CategoricalSummary struct {
	Column string
	Freq   []FreqRow
}

// QuantSummary is the description of one quantitative column.
type QuantSummary struct {
	Column  string
	Summary Summary
}

// UnivariateReport holds per-column summaries and charts.
type UnivariateReport struct {
	RunID        string
	Rows         int
	Categorical  []CategoricalSummary
	Quantitative []QuantSummary
	Charts       []Chart
}

// CategoricalTest relates one categorical column to the target.
type CategoricalTest struct {
	Column string
	Table  *Crosstab
	Test   ChiSquareResult
	// Rates is the share of target=1 rows per level, aligned with Table.RowLevels.
	Rates []float64
}

// QuantTest compares one quantitative column across the two target groups.
type QuantTest struct {
	Column string
	Groups [2]Summary
	Test   MannWhitneyResult
}

// BivariateReport holds the per-column tests against a binary target.
type BivariateReport struct {
	RunID  string
	Rows   int
	Target string
	Labels [2]string
	// Rate is the overall share of target=1 rows.
	Rate         float64
	Categorical  []CategoricalTest
	Quantitative []QuantTest
	Charts       []Chart
}

// MultivariateReport holds the target-colored comparison charts.
type MultivariateReport struct {
	RunID  string
	Rows   int
	Target string
	Labels [2]string
	Notes  []string
	Charts []Chart
}

// PairsReport holds the regression fits drawn on a pair grid.
type PairsReport struct {
	RunID   string
	Rows    int
	Columns []string
	Fits    []Fit
	Charts  []Chart
}

// LevelSummary describes a continuous column within one level of a categorical column.
type LevelSummary struct {
	Category   string
	Continuous string
	Level      string
	Summary    Summary
}

// CatContReport holds per-level summaries for categorical/continuous pairs.
type CatContReport struct {
	RunID  string
	Rows   int
	Groups []LevelSummary
	Charts []Chart
}

// Univariate summarizes each column on its own: a frequency table and bar chart per
// categorical column, a description plus histogram and box plot per quantitative one.
func (e *Explorer) Univariate(ds dataframe.DataFrame, catCols, quantCols []string) (*UnivariateReport, error) {
	if err := frame.RequireColumns(ds, concat(catCols, quantCols)...); err != nil {
		return nil, err
	}
	rep := &UnivariateReport{RunID: uuid.NewString(), Rows: ds.Nrow()}
	e.logf("univariate %s: %d categorical, %d quantitative\n", rep.RunID, len(catCols), len(quantCols))
	for _, col := range catCols {
		freq, err := FreqTable(ds, col)
		if err != nil {
			return nil, err
		}
		labels := make([]string, len(freq))
		counts := make([]float64, len(freq))
		for i, f := range freq {
			labels[i], counts[i] = f.Value, float64(f.Count)
		}
		p, err := e.barPlot(col, labels, counts, "count")
		if err != nil {
			return nil, err
		}
		rep.Categorical = append(rep.Categorical, CategoricalSummary{Column: col, Freq: freq})
		rep.Charts = append(rep.Charts, e.chart("univariate_"+col, [][]*plot.Plot{{p}}))
	}
	for _, col := range quantCols {
		xs, err := numeric(ds, col)
		if err != nil {
			return nil, err
		}
		h := newPlot(col, col, "count")
		if err := e.addHist(h, xs, e.Style.Bar); err != nil {
			return nil, err
		}
		b, err := e.boxPlot(col, []string{col}, [][]float64{xs})
		if err != nil {
			return nil, err
		}
		rep.Quantitative = append(rep.Quantitative, QuantSummary{Column: col, Summary: Summarize(xs)})
		rep.Charts = append(rep.Charts, e.chart("univariate_"+col, [][]*plot.Plot{{h, b}}))
	}
	return rep, nil
}

// Bivariate relates each column to a binary target: a chi-square test and target-rate bar
// chart per categorical column, a Mann-Whitney test with box and strip plots per
// quantitative one.
func (e *Explorer) Bivariate(ds dataframe.DataFrame, target string, catCols, quantCols []string) (*BivariateReport, error) {
	if err := frame.RequireColumns(ds, concat([]string{target}, catCols, quantCols)...); err != nil {
		return nil, err
	}
	labels, codes, err := binaryTarget(ds, target)
	if err != nil {
		return nil, err
	}
	rep := &BivariateReport{RunID: uuid.NewString(), Rows: ds.Nrow(), Target: target, Labels: labels, Rate: rate(codes)}
	e.logf("bivariate %s: target %s, %d categorical, %d quantitative\n", rep.RunID, target, len(catCols), len(quantCols))

	for _, col := range catCols {
		ct, err := NewCrosstab(ds, col, target)
		if err != nil {
			return nil, err
		}
		test, err := ChiSquare(ct.Counts)
		if err != nil {
			return nil, fmt.Errorf("%s vs %s: %w", col, target, err)
		}
		one := -1
		for j, l := range ct.ColLevels {
			if l == labels[1] {
				one = j
			}
		}
		rates := make([]float64, len(ct.RowLevels))
		for i := range ct.RowLevels {
			if one >= 0 && ct.RowTotals[i] > 0 {
				rates[i] = float64(ct.Counts[i][one]) / float64(ct.RowTotals[i])
			}
		}
		p, err := e.barPlot(fmt.Sprintf("%s rate by %s", target, col), ct.RowLevels, rates, target+" rate")
		if err != nil {
			return nil, err
		}
		if err := e.addReference(p, rep.Rate, -0.5, float64(len(rates))-0.5, "overall rate"); err != nil {
			return nil, err
		}
		rep.Categorical = append(rep.Categorical, CategoricalTest{Column: col, Table: ct, Test: test, Rates: rates})
		rep.Charts = append(rep.Charts, e.chart("bivariate_"+col, [][]*plot.Plot{{p}}))
	}

	for _, col := range quantCols {
		vals, err := frame.Floats(ds, col)
		if err != nil {
			return nil, err
		}
		groups := byCode(vals, codes, 2)
		test, err := MannWhitney(groups[0], groups[1])
		if err != nil {
			return nil, fmt.Errorf("%s by %s: %w", col, target, err)
		}
		box, err := e.boxPlot(fmt.Sprintf("%s by %s", col, target), labels[:], groups)
		if err != nil {
			return nil, err
		}
		strip, err := e.stripPlot(fmt.Sprintf("%s by %s", col, target), labels[:], groups)
		if err != nil {
			return nil, err
		}
		mean := stat.Mean(dropNaN(vals), nil)
		for _, p := range []*plot.Plot{box, strip} {
			if err := e.addReference(p, mean, -0.5, 1.5, "overall mean"); err != nil {
				return nil, err
			}
		}
		rep.Quantitative = append(rep.Quantitative, QuantTest{
			Column: col,
			Groups: [2]Summary{Summarize(groups[0]), Summarize(groups[1])},
			Test:   test,
		})
		rep.Charts = append(rep.Charts, e.chart("bivariate_"+col, [][]*plot.Plot{{box, strip}}))
	}
	return rep, nil
}

// Multivariate compares quantitative columns across categorical ones with the target as
// color: strip and split-violin rows per quantitative column, a pair grid, and a
// long-form box plot of every quantitative column side by side.
func (e *Explorer) Multivariate(ds dataframe.DataFrame, target string, catCols, quantCols []string) (*MultivariateReport, error) {
	if err := frame.RequireColumns(ds, concat([]string{target}, catCols, quantCols)...); err != nil {
		return nil, err
	}
	if len(quantCols) == 0 {
		return nil, fmt.Errorf("multivariate needs at least one quantitative column")
	}
	labels, codes, err := binaryTarget(ds, target)
	if err != nil {
		return nil, err
	}
	rep := &MultivariateReport{RunID: uuid.NewString(), Rows: ds.Nrow(), Target: target, Labels: labels}
	e.logf("multivariate %s: target %s, %d categorical, %d quantitative\n", rep.RunID, target, len(catCols), len(quantCols))

	data := make([][]float64, len(quantCols))
	for i, q := range quantCols {
		if data[i], err = frame.Floats(ds, q); err != nil {
			return nil, err
		}
	}
	cats := make([][]string, len(catCols))
	catMissing := make([][]bool, len(catCols))
	for i, c := range catCols {
		if cats[i], catMissing[i], err = categorical(ds, c); err != nil {
			return nil, err
		}
	}

	for qi, q := range quantCols {
		if len(catCols) == 0 {
			break
		}
		lo, hi := floatRange(data[qi])
		pad := (hi - lo) * 0.05
		strips := make([]*plot.Plot, len(catCols))
		violins := make([]*plot.Plot, len(catCols))
		for ci, c := range catCols {
			lv := levels(cats[ci], catMissing[ci])
			strip := newPlot(fmt.Sprintf("%s by %s", q, c), "", q)
			violin := newPlot(fmt.Sprintf("%s by %s", q, c), "", q)
			for g := 0; g < 2; g++ {
				var xys plotter.XYs
				for li, level := range lv {
					var vals []float64
					for k, v := range data[qi] {
						if codes[k] == g && !catMissing[ci][k] && cats[ci][k] == level && !math.IsNaN(v) {
							vals = append(vals, v)
						}
					}
					offset := (float64(g) - 0.5) * 0.4
					xys = append(xys, stripPoints(float64(li)+offset, vals, e.Style.Jitter/2)...)
					side := -1.0
					if g == 1 {
						side = 1
					}
					if err := addViolinHalf(violin, float64(li), vals, lo, hi, side, withAlpha(e.Style.color(g), 0xcc)); err != nil {
						return nil, err
					}
				}
				if len(xys) == 0 {
					continue
				}
				s, err := scatter(xys, e.Style.color(g))
				if err != nil {
					return nil, err
				}
				strip.Add(s)
				strip.Legend.Add(labels[g], s)
			}
			strip.Legend.Top = true
			strip.NominalX(lv...)
			violin.NominalX(lv...)
			if hi > lo {
				strip.Y.Min, strip.Y.Max = lo-pad, hi+pad
				violin.Y.Min, violin.Y.Max = lo-pad, hi+pad
			}
			strips[ci], violins[ci] = strip, violin
		}
		rep.Charts = append(rep.Charts, e.chart("multivariate_"+q, [][]*plot.Plot{strips, violins}))
	}

	grid, _, err := e.pairGrid(quantCols, data, codes, 2, false)
	if err != nil {
		return nil, err
	}
	rep.Charts = append(rep.Charts, e.chart("multivariate_pairs", grid))

	long, notes, err := e.longFormBoxes(target, labels, quantCols, data, codes)
	if err != nil {
		return nil, err
	}
	rep.Notes = append(rep.Notes, notes...)
	if long != nil {
		rep.Charts = append(rep.Charts, e.chart("multivariate_long", [][]*plot.Plot{{long}}))
	}
	return rep, nil
}

// longFormBoxes draws every quantitative column on one axis with a box per target group.
// On a log axis non-positive values are excluded and reported in the notes.
func (e *Explorer) longFormBoxes(target string, labels [2]string, cols []string, data [][]float64, codes []int) (*plot.Plot, []string, error) {
	p := newPlot(fmt.Sprintf("by %s (%s | %s)", target, labels[0], labels[1]), "variable", "value")
	var notes []string
	added := 0
	for qi, q := range cols {
		groups := byCode(data[qi], codes, 2)
		for g, vals := range groups {
			if e.Style.LogScale {
				kept := vals[:0:0]
				for _, v := range vals {
					if v > 0 {
						kept = append(kept, v)
					}
				}
				if n := len(vals) - len(kept); n > 0 {
					notes = append(notes, fmt.Sprintf("%s (%s=%s): %d non-positive values excluded from the log-scale plot", q, target, labels[g], n))
				}
				vals = kept
			}
			if len(vals) == 0 {
				continue
			}
			b, err := plotter.NewBoxPlot(vg.Points(20), float64(qi)+(float64(g)-0.5)*0.4, plotter.Values(vals))
			if err != nil {
				return nil, nil, fmt.Errorf("long-form %s: %w", q, err)
			}
			b.FillColor = e.Style.color(g)
			p.Add(b)
			added++
		}
	}
	if added == 0 {
		notes = append(notes, "long-form plot skipped: no plottable values")
		return nil, notes, nil
	}
	p.NominalX(cols...)
	if e.Style.LogScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
	}
	return p, notes, nil
}

// VariablePairs draws a pair grid of the given columns with a least-squares line on every
// off-diagonal scatter.
func (e *Explorer) VariablePairs(ds dataframe.DataFrame, cols []string) (*PairsReport, error) {
	if err := frame.RequireColumns(ds, cols...); err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("variable pairs needs at least 2 columns, got %d", len(cols))
	}
	rep := &PairsReport{RunID: uuid.NewString(), Rows: ds.Nrow(), Columns: cols}
	e.logf("pairs %s: %d columns\n", rep.RunID, len(cols))
	data := make([][]float64, len(cols))
	for i, c := range cols {
		var err error
		if data[i], err = frame.Floats(ds, c); err != nil {
			return nil, err
		}
	}
	grid, fits, err := e.pairGrid(cols, data, nil, 1, true)
	if err != nil {
		return nil, err
	}
	rep.Fits = fits
	rep.Charts = append(rep.Charts, e.chart("pairs", grid))
	return rep, nil
}

// CategoricalAndContinuous draws, for each categorical/continuous pair, a box plot by
// level, overlaid per-level histograms and a strip plot.
func (e *Explorer) CategoricalAndContinuous(ds dataframe.DataFrame, catCols, contCols []string) (*CatContReport, error) {
	if err := frame.RequireColumns(ds, concat(catCols, contCols)...); err != nil {
		return nil, err
	}
	rep := &CatContReport{RunID: uuid.NewString(), Rows: ds.Nrow()}
	e.logf("catcont %s: %d categorical, %d continuous\n", rep.RunID, len(catCols), len(contCols))
	for _, c := range catCols {
		cats, missing, err := categorical(ds, c)
		if err != nil {
			return nil, err
		}
		lv := levels(cats, missing)
		index := make(map[string]int, len(lv))
		for i, l := range lv {
			index[l] = i
		}
		for _, q := range contCols {
			vals, err := frame.Floats(ds, q)
			if err != nil {
				return nil, err
			}
			groups := make([][]float64, len(lv))
			for k, v := range vals {
				if missing[k] || math.IsNaN(v) {
					continue
				}
				g := index[cats[k]]
				groups[g] = append(groups[g], v)
			}
			for i, l := range lv {
				rep.Groups = append(rep.Groups, LevelSummary{Category: c, Continuous: q, Level: l, Summary: Summarize(groups[i])})
			}
			title := fmt.Sprintf("%s by %s", q, c)
			box, err := e.boxPlot(title, lv, groups)
			if err != nil {
				return nil, err
			}
			hist := newPlot(title, q, "count")
			for i, g := range groups {
				if err := e.addHist(hist, g, withAlpha(e.Style.color(i), 0x80)); err != nil {
					return nil, err
				}
			}
			strip, err := e.stripPlot(title, lv, groups)
			if err != nil {
				return nil, err
			}
			rep.Charts = append(rep.Charts, e.chart(fmt.Sprintf("catcont_%s_%s", c, q), [][]*plot.Plot{{box, hist, strip}}))
		}
	}
	return rep, nil
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// numeric returns the non-missing values of a quantitative column.
func numeric(ds dataframe.DataFrame, col string) ([]float64, error) {
	vals, err := frame.Floats(ds, col)
	if err != nil {
		return nil, err
	}
	xs := dropNaN(vals)
	if len(xs) == 0 {
		return nil, fmt.Errorf("column %q has no values", col)
	}
	return xs, nil
}

func categorical(ds dataframe.DataFrame, col string) ([]string, []bool, error) {
	s, err := frame.Column(ds, col)
	if err != nil {
		return nil, nil, err
	}
	return frame.Texts(s), s.IsNaN(), nil
}

// byCode splits values into n groups by code, dropping NaN.
func byCode(values []float64, codes []int, n int) [][]float64 {
	out := make([][]float64, n)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[codes[i]] = append(out[codes[i]], v)
	}
	return out
}

func rate(codes []int) float64 {
	if len(codes) == 0 {
		return 0
	}
	n := 0
	for _, c := range codes {
		n += c
	}
	return float64(n) / float64(len(codes))
}
