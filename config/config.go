package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	SMA      SMAConfig      `mapstructure:"sma"`
	Plot     PlotConfig     `mapstructure:"plot"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type ProviderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type FetchConfig struct {
	Tickers      []string      `mapstructure:"tickers"`
	LookbackDays int           `mapstructure:"lookback_days"`
	Pause        time.Duration `mapstructure:"pause"`
}

type SMAConfig struct {
	Window int `mapstructure:"window"`
}

type PlotConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// Precedence, lowest to highest: built-in defaults, config.yaml, environment
// variables (dot notation, e.g. FETCH_LOOKBACK_DAYS). A .env file in the
// working directory is loaded first so local runs can set DATABASE_URI
// without exporting it.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if ex, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Defaults also register the keys so environment overrides survive
	// Unmarshal even without a config file.
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The deployment convention is a single connection string under this name.
	if err := v.BindEnv("postgres.uri", "DATABASE_URI"); err != nil {
		log.Fatalf("failed to bind DATABASE_URI: %v", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("failed to read config: %v", err)
		}
		// No config.yaml is fine, defaults plus environment carry it.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.user_agent", "Mozilla/5.0")

	v.SetDefault("fetch.tickers", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "SPY", "BTC-USD"})
	v.SetDefault("fetch.lookback_days", 10)
	v.SetDefault("fetch.pause", "500ms")

	v.SetDefault("sma.window", 20)
	v.SetDefault("plot.output_dir", "output_plots")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.uri", "")
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.environment", "dev")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", "1h")
}

// Validate reports the first configuration problem it finds. Called by the
// commands after the logger exists, so failures land in the log.
func (c *Config) Validate() error {
	if len(c.Fetch.Tickers) == 0 {
		return errors.New("fetch.tickers must not be empty")
	}
	for _, t := range c.Fetch.Tickers {
		if strings.TrimSpace(t) == "" {
			return errors.New("fetch.tickers contains a blank entry")
		}
	}
	if c.Fetch.LookbackDays <= 0 {
		return fmt.Errorf("fetch.lookback_days must be positive, got %d", c.Fetch.LookbackDays)
	}
	if c.SMA.Window <= 0 {
		return fmt.Errorf("sma.window must be positive, got %d", c.SMA.Window)
	}
	if c.Plot.OutputDir == "" {
		return errors.New("plot.output_dir must not be empty")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", c.Provider.Timeout)
	}
	if err := c.Postgres.validate(); err != nil {
		return err
	}
	return nil
}
