package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/edakit/internal/frame"
)

// churnFrame builds a small telco-like dataset with a binary target.
func churnFrame(t *testing.T) dataframe.DataFrame {
	t.Helper()
	recs := [][]string{{"churn", "contract", "tenure", "monthly_charges"}}
	contracts := []string{"month", "year", "two_year"}
	for i := 0; i < 30; i++ {
		churn := "No"
		if i%3 == 0 || i%7 == 0 {
			churn = "Yes"
		}
		tenure := (i*7)%40 + 1
		charges := 20.5 + float64((i*13)%70)
		recs = append(recs, []string{churn, contracts[i%3], fmt.Sprint(tenure), fmt.Sprint(charges)})
	}
	df, err := frame.FromRecords(recs)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return df
}

func TestUnivariate(t *testing.T) {
	var log bytes.Buffer
	e := NewExplorer(&log)
	rep, err := e.Univariate(churnFrame(t), []string{"contract"}, []string{"tenure", "monthly_charges"})
	if err != nil {
		t.Fatalf("Univariate: %v", err)
	}
	if rep.RunID == "" || rep.Rows != 30 {
		t.Fatalf("report header = %q/%d", rep.RunID, rep.Rows)
	}
	if len(rep.Charts) != 3 {
		t.Fatalf("charts = %d, want 3", len(rep.Charts))
	}
	freq := rep.Categorical[0].Freq
	if len(freq) != 3 || freq[0].Count != 10 {
		t.Fatalf("freq = %+v", freq)
	}
	if rep.Quantitative[1].Summary.Count != 30 {
		t.Fatalf("describe = %+v", rep.Quantitative[1])
	}
	md := rep.Markdown()
	for _, want := range []string{"[UNIVARIATE]", "[FREQUENCY] contract", "33.33", "[DESCRIBE]", "monthly_charges", "[CHARTS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if !strings.Contains(log.String(), rep.RunID) {
		t.Fatalf("log = %q", log.String())
	}
}

func TestBivariate(t *testing.T) {
	rep, err := NewExplorer(nil).Bivariate(churnFrame(t), "churn", []string{"contract"}, []string{"tenure"})
	if err != nil {
		t.Fatalf("Bivariate: %v", err)
	}
	if rep.Labels != [2]string{"No", "Yes"} {
		t.Fatalf("labels = %v", rep.Labels)
	}
	// i%3==0 gives 10 rows, i%7==0 adds 7, 14 and 28.
	if want := 13.0 / 30; !near(rep.Rate, want, 1e-9) {
		t.Fatalf("rate = %v, want %v", rep.Rate, want)
	}
	ct := rep.Categorical[0]
	if ct.Test.DOF != 2 || ct.Test.P <= 0 || ct.Test.P > 1 {
		t.Fatalf("chi-square = %+v", ct.Test)
	}
	q := rep.Quantitative[0]
	if q.Test.N1+q.Test.N2 != 30 || q.Groups[1].Count != 13 {
		t.Fatalf("quant test = %+v", q)
	}
	if len(rep.Charts) != 2 {
		t.Fatalf("charts = %d", len(rep.Charts))
	}
	md := rep.Markdown()
	for _, want := range []string{"[CROSSTAB] contract x churn", "chi2 =", "Mann-Whitney U", "All"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBivariateRejectsNonBinaryTarget(t *testing.T) {
	_, err := NewExplorer(nil).Bivariate(churnFrame(t), "contract", nil, []string{"tenure"})
	if err == nil {
		t.Fatalf("expected error for three-valued target")
	}
}

func TestMultivariate(t *testing.T) {
	rep, err := NewExplorer(nil).Multivariate(churnFrame(t), "churn", []string{"contract"}, []string{"tenure", "monthly_charges"})
	if err != nil {
		t.Fatalf("Multivariate: %v", err)
	}
	// one per quantitative column, the pair grid and the long-form plot
	if len(rep.Charts) != 4 {
		t.Fatalf("charts = %d, want 4", len(rep.Charts))
	}
	pairs := rep.Charts[2]
	if pairs.Name != "multivariate_pairs" || len(pairs.Plots) != 2 || len(pairs.Plots[0]) != 2 {
		t.Fatalf("pair grid = %s %dx%d", pairs.Name, len(pairs.Plots), len(pairs.Plots[0]))
	}
	if len(rep.Notes) != 0 {
		t.Fatalf("notes = %v", rep.Notes)
	}
}

func TestMultivariateLogExcludesNonPositive(t *testing.T) {
	df, err := frame.FromRecords([][]string{
		{"y", "x"},
		{"a", "0"}, {"a", "2"}, {"a", "3"}, {"b", "-1"}, {"b", "5"}, {"b", "8"},
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	rep, err := NewExplorer(nil).Multivariate(df, "y", nil, []string{"x"})
	if err != nil {
		t.Fatalf("Multivariate: %v", err)
	}
	if len(rep.Notes) != 2 {
		t.Fatalf("notes = %v", rep.Notes)
	}
	if !strings.Contains(rep.Markdown(), "non-positive") {
		t.Fatalf("markdown lacks exclusion note")
	}
}

func TestVariablePairs(t *testing.T) {
	df, err := frame.FromRecords([][]string{
		{"x", "y", "z"},
		{"1", "3", "10"}, {"2", "5", "8"}, {"3", "7", "9"}, {"4", "9", "4"}, {"5", "11", "5"},
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	rep, err := NewExplorer(nil).VariablePairs(df, []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("VariablePairs: %v", err)
	}
	if len(rep.Fits) != 6 {
		t.Fatalf("fits = %d, want 6", len(rep.Fits))
	}
	for _, f := range rep.Fits {
		if f.X == "x" && f.Y == "y" {
			if !near(f.Slope, 2, 1e-9) || !near(f.Intercept, 1, 1e-9) || !near(f.R2, 1, 1e-9) {
				t.Fatalf("y ~ x fit = %+v", f)
			}
		}
	}
	if !strings.Contains(rep.Markdown(), "[REGRESSION]") {
		t.Fatalf("markdown lacks regression section")
	}
	if _, err := NewExplorer(nil).VariablePairs(df, []string{"x"}); err == nil {
		t.Fatalf("expected error for a single column")
	}
}

func TestCategoricalAndContinuous(t *testing.T) {
	rep, err := NewExplorer(nil).CategoricalAndContinuous(churnFrame(t), []string{"contract"}, []string{"tenure", "monthly_charges"})
	if err != nil {
		t.Fatalf("CategoricalAndContinuous: %v", err)
	}
	if len(rep.Charts) != 2 || len(rep.Groups) != 6 {
		t.Fatalf("charts = %d, groups = %d", len(rep.Charts), len(rep.Groups))
	}
	if len(rep.Charts[0].Plots[0]) != 3 {
		t.Fatalf("expected box, histogram and strip plot")
	}
	if !strings.Contains(rep.Markdown(), "[GROUPS] tenure by contract") {
		t.Fatalf("markdown = %s", rep.Markdown())
	}
}

func TestSweepColumnErrors(t *testing.T) {
	e := NewExplorer(nil)
	_, err := e.Univariate(churnFrame(t), []string{"nope"}, nil)
	var uc *frame.UnknownColumnError
	if !errors.As(err, &uc) || uc.Column != "nope" {
		t.Fatalf("err = %v, want UnknownColumnError", err)
	}
	_, err = e.Univariate(churnFrame(t), nil, []string{"contract"})
	var ce *frame.CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CoercionError", err)
	}
}

func TestSaveCharts(t *testing.T) {
	e := NewExplorer(nil)
	rep, err := e.Univariate(churnFrame(t), []string{"contract"}, []string{"tenure"})
	if err != nil {
		t.Fatalf("Univariate: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "run")
	for _, format := range []string{"png", "svg"} {
		paths, err := SaveCharts(dir, rep.Charts, format)
		if err != nil {
			t.Fatalf("SaveCharts %s: %v", format, err)
		}
		if len(paths) != 2 {
			t.Fatalf("paths = %v", paths)
		}
		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil || info.Size() == 0 {
				t.Fatalf("chart %s not written: %v", p, err)
			}
			if filepath.Ext(p) != "."+format {
				t.Fatalf("extension of %s", p)
			}
		}
	}
	if _, err := SaveCharts(dir, rep.Charts, "bmp"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestRenderMultivariateGrid(t *testing.T) {
	rep, err := NewExplorer(nil).Multivariate(churnFrame(t), "churn", []string{"contract"}, []string{"tenure"})
	if err != nil {
		t.Fatalf("Multivariate: %v", err)
	}
	for _, c := range rep.Charts {
		var buf bytes.Buffer
		if err := c.Render(&buf, "png"); err != nil {
			t.Fatalf("render %s: %v", c.Name, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("render %s produced no bytes", c.Name)
		}
	}
}

func TestSweepsLeaveInputUnchanged(t *testing.T) {
	ds := churnFrame(t)
	before := ds.Records()
	e := NewExplorer(nil)
	cats, quants := []string{"contract"}, []string{"tenure", "monthly_charges"}
	sweeps := map[string]func() error{
		"univariate": func() error { _, err := e.Univariate(ds, cats, quants); return err },
		"bivariate":  func() error { _, err := e.Bivariate(ds, "churn", cats, quants); return err },
		"multivariate": func() error {
			_, err := e.Multivariate(ds, "churn", cats, quants)
			return err
		},
		"pairs":   func() error { _, err := e.VariablePairs(ds, quants); return err },
		"catcont": func() error { _, err := e.CategoricalAndContinuous(ds, cats, quants); return err },
	}
	for name, run := range sweeps {
		if err := run(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		after := ds.Records()
		if len(after) != len(before) {
			t.Fatalf("%s changed row count: %d -> %d", name, len(before), len(after))
		}
		for i := range before {
			if strings.Join(after[i], ",") != strings.Join(before[i], ",") {
				t.Fatalf("%s changed row %d: %v -> %v", name, i, before[i], after[i])
			}
		}
	}
}

func TestBivariateBoxPlotCarriesMeanLine(t *testing.T) {
	rep, err := NewExplorer(nil).Bivariate(churnFrame(t), "churn", nil, []string{"tenure"})
	if err != nil {
		t.Fatalf("Bivariate: %v", err)
	}
	ch := rep.Charts[len(rep.Charts)-1]
	if ch.Name != "bivariate_tenure" || len(ch.Plots[0]) != 2 {
		t.Fatalf("chart = %s with %d plots", ch.Name, len(ch.Plots[0]))
	}
	// the dashed mean line spans [-0.5, 1.5], wider than the boxes and the jittered points
	for _, p := range ch.Plots[0] {
		if p.X.Min > -0.5 || p.X.Max < 1.5 {
			t.Fatalf("plot %q x range = [%v, %v], want the mean line", p.Title.Text, p.X.Min, p.X.Max)
		}
	}
}
