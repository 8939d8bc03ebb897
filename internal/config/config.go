// Package config provides configuration management for yieldrank.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/logging"
	"github.com/Skythrill256/yield-ranker-sub006/internal/normalization"
	"github.com/Skythrill256/yield-ranker-sub006/internal/zscore"
)

// EnvPrefix is the prefix of environment overrides, e.g. YIELDRANK_STORAGE_POSTGRES_DSN.
const EnvPrefix = "YIELDRANK"

// Storage modes.
const (
	StorageMemory = "memory"
	StorageDB     = "db"
)

// Config holds all application configuration.
type Config struct {
	Storage    StorageConfig        `mapstructure:"storage"`
	Pipeline   PipelineConfig       `mapstructure:"pipeline"`
	Classifier normalization.Config `mapstructure:"classifier"`
	Ranking    RankingConfig        `mapstructure:"ranking"`
	ZScore     zscore.Config        `mapstructure:"zscore"`
	Server     ServerConfig         `mapstructure:"server"`
	Logging    logging.Config       `mapstructure:"logging"`
	OutputDir  string               `mapstructure:"output_dir" validate:"required"`
}

// StorageConfig selects and configures the storage backends.
type StorageConfig struct {
	Mode          string `mapstructure:"mode" validate:"oneof=memory db"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Mode db"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional analytics store
	MaxConns      int32  `mapstructure:"max_conns" validate:"gte=0"`
}

// PipelineConfig holds batch run parameters.
type PipelineConfig struct {
	Workers          int `mapstructure:"workers" validate:"gte=1"`
	VolatilityWindow int `mapstructure:"volatility_window" validate:"gte=2"`
}

// RankingConfig holds ranking parameters.
type RankingConfig struct {
	Weights          domain.RankWeights `mapstructure:"weights"`
	Epsilon          float64            `mapstructure:"epsilon" validate:"gte=0"`
	VolatilitySource string             `mapstructure:"volatility_source" validate:"oneof=dvi zscore"`
	Categories       []string           `mapstructure:"categories"`
}

// ServerConfig holds the status server and scheduler parameters.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Schedule        string        `mapstructure:"schedule"` // cron expression, empty disables
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Default returns the configuration used when no file or env override is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Mode:     StorageMemory,
			MaxConns: 10,
		},
		Pipeline: PipelineConfig{
			Workers:          4,
			VolatilityWindow: 12,
		},
		Classifier: normalization.DefaultConfig(),
		Ranking: RankingConfig{
			Weights:          domain.DefaultRankWeights(),
			Epsilon:          0.0001,
			VolatilitySource: "dvi",
		},
		ZScore: zscore.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			Schedule:        "0 22 * * 1-5",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging:   logging.DefaultConfig(),
		OutputDir: "reports",
	}
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "yieldrank")
	}
	return filepath.Join(home, ".config", "yieldrank")
}

// Load reads configuration from path, or searches for yieldrank.yaml in the
// working directory and DefaultConfigDir when path is empty. A missing file
// in search mode is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("yieldrank")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

// UsesDatabase reports whether persistent stores are configured.
func (c *Config) UsesDatabase() bool {
	return c.Storage.Mode == StorageDB
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.mode", d.Storage.Mode)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.clickhouse_dsn", d.Storage.ClickhouseDSN)
	v.SetDefault("storage.max_conns", d.Storage.MaxConns)

	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.volatility_window", d.Pipeline.VolatilityWindow)

	v.SetDefault("classifier.weekly_max_gap", d.Classifier.WeeklyMaxGap)
	v.SetDefault("classifier.monthly_max_gap", d.Classifier.MonthlyMaxGap)
	v.SetDefault("classifier.quarterly_max_gap", d.Classifier.QuarterlyMaxGap)
	v.SetDefault("classifier.jitter_days", d.Classifier.JitterDays)
	v.SetDefault("classifier.special_amount_ratio", d.Classifier.SpecialAmountRatio)
	v.SetDefault("classifier.day_of_month_tolerance", d.Classifier.DayOfMonthTolerance)
	v.SetDefault("classifier.weekday_tolerance", d.Classifier.WeekdayTolerance)
	v.SetDefault("classifier.anchor_lookback", d.Classifier.AnchorLookback)
	v.SetDefault("classifier.min_anchor_events", d.Classifier.MinAnchorEvents)
	v.SetDefault("classifier.require_one_off", d.Classifier.RequireOneOff)
	v.SetDefault("classifier.known_weekly_payers", d.Classifier.KnownWeeklyPayers)
	v.SetDefault("classifier.known_weekly_max_gap", d.Classifier.KnownWeeklyMaxGap)

	v.SetDefault("ranking.weights.yield", d.Ranking.Weights.Yield)
	v.SetDefault("ranking.weights.volatility", d.Ranking.Weights.Volatility)
	v.SetDefault("ranking.weights.return", d.Ranking.Weights.Return)
	v.SetDefault("ranking.epsilon", d.Ranking.Epsilon)
	v.SetDefault("ranking.volatility_source", d.Ranking.VolatilitySource)
	v.SetDefault("ranking.categories", d.Ranking.Categories)

	v.SetDefault("zscore.lookback_years", d.ZScore.LookbackYears)
	v.SetDefault("zscore.min_points", d.ZScore.MinPoints)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.schedule", d.Server.Schedule)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)

	v.SetDefault("output_dir", d.OutputDir)
}
