package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/edakit/internal/frame"
)

// FreqRow is one line of a frequency table.
type FreqRow struct {
	Value   string
	Count   int
	Percent float64
}

// FreqTable counts the distinct values of a column. Rows are ordered by count descending,
// ties by first appearance; percents are rounded to 2 decimals. Missing values are skipped.
func FreqTable(ds dataframe.DataFrame, col string) ([]FreqRow, error) {
	s, err := frame.Column(ds, col)
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	var rows []FreqRow
	total := 0
	for i, v := range frame.Texts(s) {
		if s.Elem(i).IsNA() {
			continue
		}
		total++
		if j, ok := idx[v]; ok {
			rows[j].Count++
			continue
		}
		idx[v] = len(rows)
		rows = append(rows, FreqRow{Value: v, Count: 1})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	for i := range rows {
		rows[i].Percent = round2(float64(rows[i].Count) * 100 / float64(total))
	}
	return rows, nil
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// Summary is the pandas-style description of a numeric sample.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Summarize describes values, ignoring NaN. Std uses n-1 and is NaN for a single value.
func Summarize(values []float64) Summary {
	xs := dropNaN(values)
	if len(xs) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	}
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = math.NaN()
	}
	return Summary{
		Count: len(xs),
		Mean:  mean,
		Std:   std,
		Min:   xs[0],
		Q25:   quantile(xs, 0.25),
		Q50:   quantile(xs, 0.5),
		Q75:   quantile(xs, 0.75),
		Max:   xs[len(xs)-1],
	}
}

// Describe summarizes a quantitative column.
func Describe(ds dataframe.DataFrame, col string) (Summary, error) {
	vals, err := frame.Floats(ds, col)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(vals), nil
}

// Crosstab is a contingency table of two categorical columns with margins.
type Crosstab struct {
	Row, Col   string
	RowLevels  []string
	ColLevels  []string
	Counts     [][]int
	RowTotals  []int
	ColTotals  []int
	GrandTotal int
}

// NewCrosstab counts co-occurrences of the values of row and col. Levels are sorted and
// rows with a missing value in either column are skipped.
func NewCrosstab(ds dataframe.DataFrame, row, col string) (*Crosstab, error) {
	rs, err := frame.Column(ds, row)
	if err != nil {
		return nil, err
	}
	cs, err := frame.Column(ds, col)
	if err != nil {
		return nil, err
	}
	rv, cv := frame.Texts(rs), frame.Texts(cs)
	type key struct{ r, c string }
	counts := map[key]int{}
	rset, cset := map[string]bool{}, map[string]bool{}
	for i := range rv {
		if rs.Elem(i).IsNA() || cs.Elem(i).IsNA() {
			continue
		}
		counts[key{rv[i], cv[i]}]++
		rset[rv[i]] = true
		cset[cv[i]] = true
	}
	ct := &Crosstab{Row: row, Col: col, RowLevels: sortedKeys(rset), ColLevels: sortedKeys(cset)}
	ct.Counts = make([][]int, len(ct.RowLevels))
	ct.RowTotals = make([]int, len(ct.RowLevels))
	ct.ColTotals = make([]int, len(ct.ColLevels))
	for i, r := range ct.RowLevels {
		ct.Counts[i] = make([]int, len(ct.ColLevels))
		for j, c := range ct.ColLevels {
			n := counts[key{r, c}]
			ct.Counts[i][j] = n
			ct.RowTotals[i] += n
			ct.ColTotals[j] += n
			ct.GrandTotal += n
		}
	}
	return ct, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ChiSquareResult is the outcome of a chi-square test of independence.
type ChiSquareResult struct {
	Stat     float64
	P        float64
	DOF      int
	Expected [][]float64
}

// ChiSquare tests independence on an observed contingency table. A Yates continuity
// correction is applied when there is one degree of freedom.
func ChiSquare(observed [][]int) (ChiSquareResult, error) {
	if len(observed) == 0 || len(observed[0]) == 0 {
		return ChiSquareResult{}, errors.New("chi-square: empty table")
	}
	nr, nc := len(observed), len(observed[0])
	rowSum := make([]float64, nr)
	colSum := make([]float64, nc)
	total := 0.0
	for i, row := range observed {
		if len(row) != nc {
			return ChiSquareResult{}, errors.New("chi-square: ragged table")
		}
		for j, n := range row {
			if n < 0 {
				return ChiSquareResult{}, errors.New("chi-square: negative count")
			}
			rowSum[i] += float64(n)
			colSum[j] += float64(n)
			total += float64(n)
		}
	}
	res := ChiSquareResult{DOF: (nr - 1) * (nc - 1), Expected: make([][]float64, nr)}
	for i := range observed {
		res.Expected[i] = make([]float64, nc)
		for j := range observed[i] {
			e := rowSum[i] * colSum[j] / total
			if e == 0 || math.IsNaN(e) {
				return ChiSquareResult{}, errors.New("chi-square: expected frequencies contain a zero")
			}
			res.Expected[i][j] = e
		}
	}
	if res.DOF == 0 {
		res.P = 1
		return res, nil
	}
	for i, row := range observed {
		for j, n := range row {
			o, e := float64(n), res.Expected[i][j]
			if res.DOF == 1 {
				d := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(d)), d)
			}
			res.Stat += (o - e) * (o - e) / e
		}
	}
	res.P = distuv.ChiSquared{K: float64(res.DOF)}.Survival(res.Stat)
	return res, nil
}

// MannWhitneyResult is the outcome of a two-sided Mann-Whitney U test.
type MannWhitneyResult struct {
	N1, N2 int
	U      float64
	P      float64
}

// MannWhitney compares two samples; U is reported for x. Empty samples are an error.
func MannWhitney(x, y []float64) (MannWhitneyResult, error) {
	r, err := stats.MannWhitneyUTest(dropNaN(x), dropNaN(y), stats.LocationDiffers)
	if err != nil {
		return MannWhitneyResult{}, fmt.Errorf("mann-whitney: %w", err)
	}
	return MannWhitneyResult{N1: r.N1, N2: r.N2, U: r.U, P: r.P}, nil
}

// binaryTarget maps a two-valued column to 0/1 codes. The lexically first value is 0.
func binaryTarget(ds dataframe.DataFrame, target string) (labels [2]string, codes []int, err error) {
	s, err := frame.Column(ds, target)
	if err != nil {
		return labels, nil, err
	}
	vals := frame.Texts(s)
	set := map[string]bool{}
	for i, v := range vals {
		if s.Elem(i).IsNA() {
			return labels, nil, fmt.Errorf("target %q has missing values", target)
		}
		set[v] = true
	}
	distinct := sortedKeys(set)
	if len(distinct) != 2 {
		return labels, nil, fmt.Errorf("target %q must have exactly 2 distinct values, found %d", target, len(distinct))
	}
	// Sorted text order already puts "0" before "1" for numeric targets.
	labels = [2]string{distinct[0], distinct[1]}
	codes = make([]int, len(vals))
	for i, v := range vals {
		if v == labels[1] {
			codes[i] = 1
		}
	}
	return labels, codes, nil
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// quantile interpolates linearly between closest ranks, as pandas does by default.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
