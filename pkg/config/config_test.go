package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, 3, cfg.Sweep.KMin)
	assert.Equal(t, 10, cfg.Sweep.KMax)
	assert.Equal(t, "kmeans", cfg.Producer.Name)
	assert.Equal(t, int64(42), cfg.Producer.Seed)
	assert.Equal(t, []string{"spectral", "kmeans", "gmm", "meanshift"}, cfg.Baseline.Methods)
	assert.Equal(t, "label", cfg.Input.LabelKey)
	assert.Equal(t, 6, cfg.Output.LabelWidth)
	assert.False(t, cfg.Output.Graphs)
	assert.Greater(t, cfg.EffectiveWorkers(), 0)

	opts := cfg.ProducerOptions()
	assert.Equal(t, 10, opts.Restarts)
	assert.InDelta(t, 0.3, opts.Quantile, 1e-12)

	_, ok := cfg.S3()
	assert.False(t, ok)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dyncomm.yaml")
	yaml := `
k: 6
producer:
  name: spectral
sweep:
  kmin: 2
  kmax: 5
output:
  s3:
    bucket: results
    prefix: runs
store:
  driver: sqlite
  dsn: runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DYNCOMM_K", "7")
	t.Setenv("DYNCOMM_BASELINE_METHODS", "kmeans,lpa")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.K, "environment overrides the file")
	assert.Equal(t, "spectral", cfg.Producer.Name)
	assert.Equal(t, 2, cfg.Sweep.KMin)
	assert.Equal(t, []string{"kmeans", "lpa"}, cfg.Baseline.Methods)
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	s3, ok := cfg.S3()
	require.True(t, ok)
	assert.Equal(t, "results", s3.Bucket)
	assert.Equal(t, "runs", s3.Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"k below one", func(c *Config) { c.K = 0 }, "Config.K: must be at least 1"},
		{"sweep reversed", func(c *Config) { c.Sweep.KMin, c.Sweep.KMax = 5, 3 }, "Config.Sweep.KMax"},
		{"unknown producer", func(c *Config) { c.Producer.Name = "dbscan" }, `unknown producer "dbscan"`},
		{"file needs a directory", func(c *Config) { c.Producer.Name = "file" }, "AssignmentsDir: field is required when"},
		{"quantile range", func(c *Config) { c.Producer.Quantile = 1.5 }, "Config.Producer.Quantile"},
		{"bad store driver", func(c *Config) { c.Store.Driver = "mysql"; c.Store.DSN = "x" }, "must be one of [postgres sqlite]"},
		{"store without dsn", func(c *Config) { c.Store.Driver = "sqlite" }, "Config.Store.DSN"},
		{"no output", func(c *Config) { c.Output.Dir = "" }, "either dir or s3.bucket"},
		{"bucket instead of dir", func(c *Config) { c.Output.Dir = ""; c.Output.S3.Bucket = "b" }, ""},
		{"unknown baseline method", func(c *Config) { c.Baseline.Methods = []string{"kmeans", "svm"} }, `unknown producer "svm"`},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "Config.Log.Format"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "not an address" }, "Config.Metrics.Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New(), "")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	cfg.K = 0
	cfg.Workers = -1

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.K")
	assert.Contains(t, err.Error(), "Config.Workers")
}

func TestLogger(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	cfg.Log.Format = "text"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", logging.K(4))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=4")
}

func TestProducerNames(t *testing.T) {
	names := ProducerNames()
	for _, want := range []string{"file", "gmm", "kmeans", "lpa", "meanshift", "modularity", "spectral"} {
		assert.Contains(t, names, want)
	}
}
