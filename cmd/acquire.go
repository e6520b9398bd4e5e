package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/cache"
	"github.com/KaramelBytes/edakit/internal/wrangle"
)

var (
	acqRefresh bool
	acqQuiet   bool
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <dataset...>",
	Short: "Load datasets through the local cache, querying the source on a miss",
	Long: fmt.Sprintf(`Load each dataset from its cache file, or query the configured source and write the
cache file when it does not exist yet. Known datasets: %v`, wrangle.Names()),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		loader := cache.NewLoader(debugWriter(cmd))
		dir := resolveCacheDir(c)
		total := len(args)
		for i, name := range args {
			e, err := wrangle.Lookup(name)
			if err != nil {
				return err
			}
			path := e.CachePath(dir)
			if acqRefresh {
				if err := loader.Invalidate(path); err != nil {
					return fmt.Errorf("refresh %s: %w", e.Name, err)
				}
			}
			if !acqQuiet {
				fmt.Fprintf(out, "[%d/%d] Acquiring %s...\n", i+1, total, e.Name)
			}
			df, err := loadDataset(cmd, c, name, loader)
			if err != nil {
				return err
			}
			success(out, "%s: %d rows x %d columns (%s)", e.Name, df.Nrow(), df.Ncol(), path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(acquireCmd)
	acquireCmd.Flags().BoolVar(&acqRefresh, "refresh", false, "delete the cache file first so the source is queried again")
	acquireCmd.Flags().BoolVarP(&acqQuiet, "quiet", "q", false, "suppress progress lines")
}
