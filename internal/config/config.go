package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Data source credentials; usually supplied through .env or EDAKIT_* variables.
	DBDriver   string `mapstructure:"db_driver" yaml:"db_driver"`
	DBHost     string `mapstructure:"db_host" yaml:"db_host"`
	DBPort     int    `mapstructure:"db_port" yaml:"db_port"`
	DBUser     string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword string `mapstructure:"db_password" yaml:"db_password"`
	// SQLitePath is used when db_driver is sqlite; "{db}" expands to the database name.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	CacheDir  string `mapstructure:"cache_dir" yaml:"cache_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Seed      int64  `mapstructure:"seed" yaml:"seed"`

	// Chart output
	ChartFormat   string  `mapstructure:"chart_format" yaml:"chart_format"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
}

// URL builds the connection descriptor for the named database.
func (c *Global) URL(db string) string {
	switch c.DBDriver {
	case "postgres":
		port := c.DBPort
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     c.DBHost + ":" + strconv.Itoa(port),
			Path:     "/" + db,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case "sqlite":
		return strings.ReplaceAll(c.SQLitePath, "{db}", db)
	default:
		port := c.DBPort
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.DBUser, c.DBPassword, c.DBHost, port, db)
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edakit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".edakit")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including .env) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A .env in the working directory plays the role of the credentials module.
	// Variables already set in the environment win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("EDAKIT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 0)
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("sqlite_path", "{db}.db")
	v.SetDefault("cache_dir", ".")
	v.SetDefault("output_dir", "reports")
	v.SetDefault("seed", 123)
	v.SetDefault("chart_format", "png")
	v.SetDefault("chart_width_in", 8.0)
	v.SetDefault("chart_height_in", 6.0)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".edakit")
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
