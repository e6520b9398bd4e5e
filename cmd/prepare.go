package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/cache"
	"github.com/KaramelBytes/edakit/internal/utils"
	"github.com/KaramelBytes/edakit/internal/wrangle"
)

var (
	prepSplit  bool
	prepSeed   int64
	prepOutput string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <dataset>",
	Short: "Acquire and clean a dataset, optionally splitting it into train/validate/test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		name := args[0]
		raw, err := loadDataset(cmd, c, name, cache.NewLoader(debugWriter(cmd)))
		if err != nil {
			return err
		}
		df, err := wrangle.Prepare(name, raw)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
		success(out, "prepared %s: %d rows x %d columns (%d dropped)", name, df.Nrow(), df.Ncol(), raw.Nrow()-df.Nrow())

		if !prepSplit {
			if prepOutput != "" {
				if err := writeCSV(prepOutput, df); err != nil {
					return err
				}
				success(out, "wrote %s", prepOutput)
			}
			return nil
		}

		seed := c.Seed
		if cmd.Flags().Changed("seed") {
			seed = prepSeed
		}
		s, err := wrangle.SplitDataset(df, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "train: %d, validate: %d, test: %d (seed %d)\n", s.Train.Nrow(), s.Validate.Nrow(), s.Test.Nrow(), seed)
		if prepOutput != "" {
			parts := []struct {
				suffix string
				df     dataframe.DataFrame
			}{{"train", s.Train}, {"validate", s.Validate}, {"test", s.Test}}
			for _, p := range parts {
				path := splitPath(prepOutput, p.suffix)
				if err := writeCSV(path, p.df); err != nil {
					return err
				}
				success(out, "wrote %s", path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().BoolVar(&prepSplit, "split", false, "split into train/validate/test (60/20/20)")
	prepareCmd.Flags().Int64Var(&prepSeed, "seed", 123, "random seed for the split (default from config)")
	prepareCmd.Flags().StringVarP(&prepOutput, "output", "o", "", "write the prepared dataset as CSV; with --split, one file per partition")
}

// splitPath turns out.csv into out_train.csv.
func splitPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}

func writeCSV(path string, df dataframe.DataFrame) error {
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
