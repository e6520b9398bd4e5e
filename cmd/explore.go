package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/edakit/internal/analysis"
	"github.com/KaramelBytes/edakit/internal/cache"
	"github.com/KaramelBytes/edakit/internal/utils"
	"github.com/KaramelBytes/edakit/internal/wrangle"
)

var (
	expTarget   string
	expCat      []string
	expQuant    []string
	expOut      string
	expFormat   string
	expNoCharts bool
	expQuiet    bool
)

// Sweep kinds accepted by explore.
var sweepKinds = []string{"univariate", "bivariate", "multivariate", "pairs", "catcont"}

var exploreCmd = &cobra.Command{
	Use:   "explore <univariate|bivariate|multivariate|pairs|catcont> <dataset>",
	Short: "Run an exploration sweep over a prepared dataset",
	Long: `Acquire and prepare a dataset, run one exploration sweep, print the markdown report and
write it with its charts under <out>/<run id>/.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, name := strings.ToLower(args[0]), args[1]
		if err := validateSweep(kind); err != nil {
			return err
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		raw, err := loadDataset(cmd, c, name, cache.NewLoader(debugWriter(cmd)))
		if err != nil {
			return err
		}
		df, err := wrangle.Prepare(name, raw)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}

		ex := analysis.NewExplorer(debugWriter(cmd))
		if c.ChartWidthIn > 0 {
			ex.Style.Width = vg.Length(c.ChartWidthIn) * vg.Inch
		}
		if c.ChartHeightIn > 0 {
			ex.Style.Height = vg.Length(c.ChartHeightIn) * vg.Inch
		}

		var (
			md     string
			runID  string
			charts []analysis.Chart
		)
		switch kind {
		case "univariate":
			rep, err := ex.Univariate(df, expCat, expQuant)
			if err != nil {
				return err
			}
			md, runID, charts = rep.Markdown(), rep.RunID, rep.Charts
		case "bivariate":
			rep, err := ex.Bivariate(df, expTarget, expCat, expQuant)
			if err != nil {
				return err
			}
			md, runID, charts = rep.Markdown(), rep.RunID, rep.Charts
		case "multivariate":
			rep, err := ex.Multivariate(df, expTarget, expCat, expQuant)
			if err != nil {
				return err
			}
			md, runID, charts = rep.Markdown(), rep.RunID, rep.Charts
		case "pairs":
			rep, err := ex.VariablePairs(df, expQuant)
			if err != nil {
				return err
			}
			md, runID, charts = rep.Markdown(), rep.RunID, rep.Charts
		case "catcont":
			rep, err := ex.CategoricalAndContinuous(df, expCat, expQuant)
			if err != nil {
				return err
			}
			md, runID, charts = rep.Markdown(), rep.RunID, rep.Charts
		}

		if !expQuiet {
			fmt.Fprintln(out, md)
		}
		outDir := expOut
		if outDir == "" {
			outDir = c.OutputDir
		}
		runDir := filepath.Join(expandPath(outDir), runID)
		if err := utils.EnsureDir(runDir); err != nil {
			return err
		}
		reportPath := filepath.Join(runDir, "report.md")
		if err := utils.SafeWriteFile(reportPath, []byte(md)); err != nil {
			return err
		}
		success(out, "wrote %s", reportPath)
		if expNoCharts {
			return nil
		}
		format := expFormat
		if format == "" {
			format = c.ChartFormat
		}
		paths, err := analysis.SaveCharts(runDir, charts, format)
		if err != nil {
			return err
		}
		success(out, "wrote %d charts to %s", len(paths), runDir)
		return nil
	},
}

func validateSweep(kind string) error {
	known := false
	for _, k := range sweepKinds {
		if k == kind {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown sweep %q (use one of %s)", kind, strings.Join(sweepKinds, ", "))
	}
	switch kind {
	case "bivariate", "multivariate":
		if expTarget == "" {
			return fmt.Errorf("--target is required for %s", kind)
		}
	case "pairs":
		if len(expQuant) < 2 {
			return fmt.Errorf("pairs needs at least two --quant columns")
		}
	case "catcont":
		if len(expCat) == 0 || len(expQuant) == 0 {
			return fmt.Errorf("catcont needs --cat and --quant columns")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVarP(&expTarget, "target", "t", "", "binary target column (bivariate, multivariate)")
	exploreCmd.Flags().StringSliceVar(&expCat, "cat", nil, "categorical columns (comma-separated)")
	exploreCmd.Flags().StringSliceVar(&expQuant, "quant", nil, "quantitative columns (comma-separated)")
	exploreCmd.Flags().StringVar(&expOut, "out", "", "output directory (default from config output_dir)")
	exploreCmd.Flags().StringVar(&expFormat, "format", "", "chart format: png, svg or pdf (default from config)")
	exploreCmd.Flags().BoolVar(&expNoCharts, "no-charts", false, "write only the markdown report")
	exploreCmd.Flags().BoolVarP(&expQuiet, "quiet", "q", false, "do not print the report")
}
