package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/cache"
	cfgpkg "github.com/KaramelBytes/edakit/internal/config"
	"github.com/KaramelBytes/edakit/internal/source"
	"github.com/KaramelBytes/edakit/internal/utils"
	"github.com/KaramelBytes/edakit/internal/wrangle"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagCacheDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "edakit",
	Short: "edakit: acquire, clean and explore coursework datasets",
	Long: `edakit fetches tabular datasets from a relational source (cached to disk on first use),
applies per-dataset cleaning rules, and produces univariate, bivariate and multivariate
summaries with charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		errColor.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edakit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print cache hit/miss and sweep progress")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "directory holding cache files (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config load it again and report the error
		warn("failed to load config: %v", err)
		return
	}
	cfg = c
}

// ensureConfig returns the loaded configuration, loading it if OnInitialize did not run.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func resolveCacheDir(c *cfgpkg.Global) string {
	dir := c.CacheDir
	if flagCacheDir != "" {
		dir = flagCacheDir
	}
	return expandPath(dir)
}

// expandPath resolves a leading "~"; an empty path means the working directory.
func expandPath(p string) string {
	if p == "" {
		return "."
	}
	if x, err := utils.ExpandHome(p); err == nil {
		return x
	}
	return p
}

// debugWriter returns stderr when --debug is set and nil otherwise.
func debugWriter(cmd *cobra.Command) io.Writer {
	if debug {
		return cmd.ErrOrStderr()
	}
	return nil
}

// lazySource opens the database on the first query so cache hits never touch the network.
type lazySource struct {
	driver, dsn string
	sql         *source.SQL
}

func (l *lazySource) Query(ctx context.Context, query string) ([][]string, error) {
	if l.sql == nil {
		s, err := source.Open(l.driver, l.dsn)
		if err != nil {
			return nil, err
		}
		l.sql = s
	}
	return l.sql.Query(ctx, query)
}

func (l *lazySource) Close() error {
	if l.sql == nil {
		return nil
	}
	return l.sql.Close()
}

// loadDataset acquires the named dataset through the cache.
func loadDataset(cmd *cobra.Command, c *cfgpkg.Global, name string, loader *cache.Loader) (dataframe.DataFrame, error) {
	e, err := wrangle.Lookup(name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	dir := resolveCacheDir(c)
	if err := utils.EnsureDir(dir); err != nil {
		return dataframe.DataFrame{}, err
	}
	src := &lazySource{driver: c.DBDriver, dsn: c.URL(e.Database)}
	defer src.Close()
	df, err := wrangle.Acquire(cmd.Context(), name, loader, src, dir)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("acquire %s: %w", e.Name, err)
	}
	return df, nil
}
