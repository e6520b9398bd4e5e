package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// writeTable renders a markdown table into b.
func writeTable(b *strings.Builder, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(b)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	tw.AppendBulk(rows)
	tw.Render()
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func summaryHeader(first string) []string {
	return []string{first, "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
}

func summaryRow(first string, s Summary) []string {
	return []string{safeVal(first), strconv.Itoa(s.Count), num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max)}
}

func writeRun(b *strings.Builder, kind, runID string, rows int) {
	b.WriteString(fmt.Sprintf("[%s]\n", kind))
	b.WriteString(fmt.Sprintf("Run: %s\n", runID))
	b.WriteString(fmt.Sprintf("Rows: %d\n", rows))
}

func writeCharts(b *strings.Builder, charts []Chart) {
	if len(charts) == 0 {
		return
	}
	b.WriteString("\n[CHARTS]\n")
	for _, c := range charts {
		b.WriteString("- ")
		b.WriteString(c.Name)
		b.WriteString("\n")
	}
}

// Markdown renders the report as [SECTION] blocks with markdown tables.
func (r *UnivariateReport) Markdown() string {
	var b strings.Builder
	writeRun(&b, "UNIVARIATE", r.RunID, r.Rows)
	for _, c := range r.Categorical {
		b.WriteString(fmt.Sprintf("\n[FREQUENCY] %s\n", safeName(c.Column)))
		rows := make([][]string, len(c.Freq))
		for i, f := range c.Freq {
			rows[i] = []string{safeVal(f.Value), strconv.Itoa(f.Count), strconv.FormatFloat(f.Percent, 'f', 2, 64)}
		}
		writeTable(&b, []string{c.Column, "count", "percent"}, rows)
	}
	if len(r.Quantitative) > 0 {
		b.WriteString("\n[DESCRIBE]\n")
		rows := make([][]string, len(r.Quantitative))
		for i, q := range r.Quantitative {
			rows[i] = summaryRow(q.Column, q.Summary)
		}
		writeTable(&b, summaryHeader("column"), rows)
	}
	writeCharts(&b, r.Charts)
	return b.String()
}

// Markdown renders the report as [SECTION] blocks with markdown tables.
func (r *BivariateReport) Markdown() string {
	var b strings.Builder
	writeRun(&b, "BIVARIATE", r.RunID, r.Rows)
	b.WriteString(fmt.Sprintf("Target: %s (0=%s, 1=%s), overall rate %.4f\n", r.Target, safeVal(r.Labels[0]), safeVal(r.Labels[1]), r.Rate))
	for _, c := range r.Categorical {
		b.WriteString(fmt.Sprintf("\n[CROSSTAB] %s x %s\n", safeName(c.Column), safeName(r.Target)))
		header := append([]string{c.Column}, c.Table.ColLevels...)
		header = append(header, "All", "rate")
		rows := make([][]string, 0, len(c.Table.RowLevels)+1)
		for i, level := range c.Table.RowLevels {
			row := []string{safeVal(level)}
			for _, n := range c.Table.Counts[i] {
				row = append(row, strconv.Itoa(n))
			}
			row = append(row, strconv.Itoa(c.Table.RowTotals[i]), num(c.Rates[i]))
			rows = append(rows, row)
		}
		all := []string{"All"}
		for _, n := range c.Table.ColTotals {
			all = append(all, strconv.Itoa(n))
		}
		all = append(all, strconv.Itoa(c.Table.GrandTotal), num(r.Rate))
		rows = append(rows, all)
		writeTable(&b, header, rows)
		b.WriteString(fmt.Sprintf("chi2 = %s, p = %s, dof = %d\n", num(c.Test.Stat), num(c.Test.P), c.Test.DOF))
	}
	for _, q := range r.Quantitative {
		b.WriteString(fmt.Sprintf("\n[GROUPS] %s by %s\n", safeName(q.Column), safeName(r.Target)))
		writeTable(&b, summaryHeader(r.Target), [][]string{
			summaryRow(r.Labels[0], q.Groups[0]),
			summaryRow(r.Labels[1], q.Groups[1]),
		})
		b.WriteString(fmt.Sprintf("Mann-Whitney U = %s, p = %s (n1=%d, n2=%d)\n", num(q.Test.U), num(q.Test.P), q.Test.N1, q.Test.N2))
	}
	writeCharts(&b, r.Charts)
	return b.String()
}

// Markdown renders the report as [SECTION] blocks.
func (r *MultivariateReport) Markdown() string {
	var b strings.Builder
	writeRun(&b, "MULTIVARIATE", r.RunID, r.Rows)
	b.WriteString(fmt.Sprintf("Target: %s (0=%s, 1=%s)\n", r.Target, safeVal(r.Labels[0]), safeVal(r.Labels[1])))
	if len(r.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range r.Notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	writeCharts(&b, r.Charts)
	return b.String()
}

// Markdown renders the report as [SECTION] blocks with markdown tables.
func (r *PairsReport) Markdown() string {
	var b strings.Builder
	writeRun(&b, "VARIABLE PAIRS", r.RunID, r.Rows)
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(r.Columns, ", ")))
	if len(r.Fits) > 0 {
		b.WriteString("\n[REGRESSION]\n")
		rows := make([][]string, len(r.Fits))
		for i, f := range r.Fits {
			rows[i] = []string{f.Y, f.X, num(f.Intercept), num(f.Slope), num(f.R2)}
		}
		writeTable(&b, []string{"y", "x", "intercept", "slope", "r2"}, rows)
	}
	writeCharts(&b, r.Charts)
	return b.String()
}

// Markdown renders the report as [SECTION] blocks with markdown tables.
func (r *CatContReport) Markdown() string {
	var b strings.Builder
	writeRun(&b, "CATEGORICAL AND CONTINUOUS", r.RunID, r.Rows)
	var last string
	var rows [][]string
	flush := func() {
		if len(rows) > 0 {
			writeTable(&b, summaryHeader("level"), rows)
			rows = nil
		}
	}
	for _, g := range r.Groups {
		key := g.Continuous + " by " + g.Category
		if key != last {
			flush()
			b.WriteString(fmt.Sprintf("\n[GROUPS] %s\n", key))
			last = key
		}
		rows = append(rows, summaryRow(g.Level, g.Summary))
	}
	flush()
	writeCharts(&b, r.Charts)
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
