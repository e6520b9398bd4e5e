package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/analysis"
	cfgpkg "github.com/KaramelBytes/edakit/internal/config"
	"github.com/KaramelBytes/edakit/internal/source"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set edakit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "db_driver: %s\n", c.DBDriver)
		fmt.Fprintf(out, "db_host: %s\n", c.DBHost)
		if c.DBPort > 0 {
			fmt.Fprintf(out, "db_port: %d\n", c.DBPort)
		}
		fmt.Fprintf(out, "db_user: %s\n", c.DBUser)
		fmt.Fprintf(out, "db_password: %s\n", mask(c.DBPassword))
		if c.DBDriver == "sqlite" {
			fmt.Fprintf(out, "sqlite_path: %s\n", c.SQLitePath)
		}
		fmt.Fprintf(out, "cache_dir: %s\n", resolveCacheDir(c))
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "seed: %d\n", c.Seed)
		fmt.Fprintf(out, "chart_format: %s\n", c.ChartFormat)
		fmt.Fprintf(out, "chart_size_in: %.1fx%.1f\n", c.ChartWidthIn, c.ChartHeightIn)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		switch key {
		case "db_driver":
			d := strings.ToLower(val)
			ok := false
			for _, known := range source.Drivers {
				if d == known {
					ok = true
				}
			}
			if !ok {
				return fmt.Errorf("invalid db_driver: %s (use one of %s)", val, strings.Join(source.Drivers, ", "))
			}
			c.DBDriver = d
		case "db_host":
			c.DBHost = val
		case "db_port":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for db_port: %v", val)
			}
			c.DBPort = i
		case "db_user":
			c.DBUser = val
		case "db_password":
			c.DBPassword = val
		case "sqlite_path":
			c.SQLitePath = val
		case "cache_dir":
			c.CacheDir = val
		case "output_dir":
			c.OutputDir = val
		case "seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for seed: %w", err)
			}
			c.Seed = i
		case "chart_format":
			f := strings.ToLower(val)
			ok := false
			for _, known := range analysis.Formats {
				if f == known {
					ok = true
				}
			}
			if !ok {
				return fmt.Errorf("invalid chart_format: %s (use one of %s)", val, strings.Join(analysis.Formats, ", "))
			}
			c.ChartFormat = f
		case "chart_width_in", "chart_height_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid size for %s: %v", key, val)
			}
			if key == "chart_width_in" {
				c.ChartWidthIn = f
			} else {
				c.ChartHeightIn = f
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
