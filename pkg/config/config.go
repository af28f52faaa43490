// Package config loads run settings from an optional YAML file, DYNCOMM_*
// environment variables and command-line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/gml"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

// EnvPrefix prefixes every environment override, e.g. DYNCOMM_SWEEP_KMAX
const EnvPrefix = "DYNCOMM"

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete run configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Producer ProducerConfig `mapstructure:"producer"`
	K        int            `mapstructure:"k" validate:"min=1"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Baseline BaselineConfig `mapstructure:"baseline"`
	// Workers bounds concurrent producer calls; 0 means one per CPU
	Workers  int           `mapstructure:"workers" validate:"min=0,max=1024"`
	Output   OutputConfig  `mapstructure:"output"`
	Store    StoreConfig   `mapstructure:"store"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Events   EventsConfig  `mapstructure:"events"`
	Log      LogConfig     `mapstructure:"log"`
	Progress bool          `mapstructure:"progress"`
}

// InputConfig locates and decodes the per-window GML files
type InputConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	LabelKey  string `mapstructure:"label_key" validate:"required"`
	WeightKey string `mapstructure:"weight_key" validate:"required"`
	// Binary ignores edge weights
	Binary bool `mapstructure:"binary"`
}

// ProducerConfig selects and tunes the partition producer
type ProducerConfig struct {
	Name           string  `mapstructure:"name" validate:"required"`
	Seed           int64   `mapstructure:"seed"`
	Restarts       int     `mapstructure:"restarts" validate:"min=1"`
	MaxIterations  int     `mapstructure:"max_iterations" validate:"min=1"`
	Tolerance      float64 `mapstructure:"tolerance" validate:"gt=0"`
	Quantile       float64 `mapstructure:"quantile" validate:"gt=0,lte=1"`
	AssignmentsDir string  `mapstructure:"assignments_dir" validate:"required_if=Name file"`
}

// SweepConfig bounds the community-count sweep
type SweepConfig struct {
	KMin int `mapstructure:"kmin" validate:"min=1"`
	KMax int `mapstructure:"kmax" validate:"gtefield=KMin"`
}

// BaselineConfig lists the methods compared by the baseline command
type BaselineConfig struct {
	Methods []string `mapstructure:"methods" validate:"min=1,dive,required"`
}

// OutputConfig selects where reports go
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
	// LabelWidth shortens node labels in tables; 0 keeps them whole
	LabelWidth int `mapstructure:"label_width" validate:"min=0"`
	// Graphs writes community-annotated GML for every valid window
	Graphs bool     `mapstructure:"graphs"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config mirrors report.S3Config
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
}

// StoreConfig selects the results database; an empty driver disables it
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required_with=Driver"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// EventsConfig enables the slice-event PUB socket when Addr is set
type EventsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// SetDefaults registers every default on v. The values mirror the
// research scripts: four communities, a 3..10 sweep and seed 42.
func SetDefaults(v *viper.Viper) {
	opts := producer.DefaultOptions()
	gmlOpts := gml.DefaultOptions()

	v.SetDefault("input.dir", "gml")
	v.SetDefault("input.label_key", gmlOpts.LabelKey)
	v.SetDefault("input.weight_key", gmlOpts.WeightKey)
	v.SetDefault("input.binary", false)

	v.SetDefault("producer.name", "kmeans")
	v.SetDefault("producer.seed", opts.Seed)
	v.SetDefault("producer.restarts", opts.Restarts)
	v.SetDefault("producer.max_iterations", opts.MaxIterations)
	v.SetDefault("producer.tolerance", opts.Tolerance)
	v.SetDefault("producer.quantile", opts.Quantile)
	v.SetDefault("producer.assignments_dir", "")

	v.SetDefault("k", 4)
	v.SetDefault("sweep.kmin", 3)
	v.SetDefault("sweep.kmax", 10)
	v.SetDefault("baseline.methods", []string{"spectral", "kmeans", "gmm", "meanshift"})
	v.SetDefault("workers", 0)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.label_width", 6)
	v.SetDefault("output.graphs", false)
	v.SetDefault("output.s3.bucket", "")
	v.SetDefault("output.s3.prefix", "")
	v.SetDefault("output.s3.region", "")
	v.SetDefault("output.s3.endpoint", "")
	v.SetDefault("output.s3.access_key", "")
	v.SetDefault("output.s3.secret_key", "")

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("events.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("progress", false)
}

// New returns a viper instance with defaults and environment binding.
// Every key has a default so AutomaticEnv sees it during Unmarshal.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (when non-empty) into v, then decodes and validates
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProducerOptions converts the producer settings
func (c *Config) ProducerOptions() producer.Options {
	return producer.Options{
		Seed:           c.Producer.Seed,
		Restarts:       c.Producer.Restarts,
		MaxIterations:  c.Producer.MaxIterations,
		Tolerance:      c.Producer.Tolerance,
		Quantile:       c.Producer.Quantile,
		AssignmentsDir: c.Producer.AssignmentsDir,
	}
}

// GMLOptions converts the input settings
func (c *Config) GMLOptions() gml.Options {
	return gml.Options{
		LabelKey:  c.Input.LabelKey,
		WeightKey: c.Input.WeightKey,
		Binary:    c.Input.Binary,
	}
}

// S3 converts the bucket settings; ok is false when no bucket is set
func (c *Config) S3() (cfg report.S3Config, ok bool) {
	s := c.Output.S3
	if s.Bucket == "" {
		return report.S3Config{}, false
	}
	return report.S3Config{
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
	}, true
}

// EffectiveWorkers resolves Workers = 0 to the CPU count
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Logger builds the structured logger described by Log
func (c *Config) Logger(w io.Writer) logging.Logger {
	return logging.NewLogger(w, logging.Format(c.Log.Format), logging.ParseLevel(c.Log.Level))
}
