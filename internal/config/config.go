// Package config loads pdfsuite settings from a TOML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Lllllllleong/pdfsuite/internal/gcp"
	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/registry"
	"github.com/Lllllllleong/pdfsuite/internal/services"
)

// Environment variables that override file settings.
const (
	EnvGCSBucket = "PDFSUITE_GCS_BUCKET"
	EnvLogFormat = "PDFSUITE_LOG_FORMAT"
)

type Config struct {
	Log         LogConfig                `toml:"log"`
	Ingest      IngestConfig             `toml:"ingest"`
	Watermark   models.WatermarkOptions  `toml:"watermark"`
	PageNumbers models.PageNumberOptions `toml:"page_numbers"`
	Text        TextConfig               `toml:"text"`
	Export      ExportConfig             `toml:"export"`
	Storage     StorageConfig            `toml:"storage"`
}

type LogConfig struct {
	Format string `toml:"format"` // json or text
	Level  string `toml:"level"`
}

type IngestConfig struct {
	ProbeConcurrency int `toml:"probe_concurrency"`
}

type TextConfig struct {
	RowTolerance float64 `toml:"row_tolerance"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type StorageConfig struct {
	Bucket      string `toml:"bucket"`
	Prefix      string `toml:"prefix"`
	Concurrency int    `toml:"concurrency"`
	MaxRetries  int    `toml:"max_retries"`
	Backoff     string `toml:"backoff"`
}

// Default returns the built-in configuration.
func Default() Config {
	tk := services.DefaultToolkitConfig()
	return Config{
		Log:         LogConfig{Format: "json", Level: "warn"},
		Ingest:      IngestConfig{ProbeConcurrency: 4},
		Watermark:   tk.Watermark,
		PageNumbers: tk.PageNumbers,
		Text:        TextConfig{RowTolerance: tk.RowTolerance},
		Export:      ExportConfig{Dir: "."},
		Storage:     StorageConfig{Concurrency: 10, MaxRetries: 4, Backoff: "1s"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var sme *toml.StrictMissingError
			if errors.As(err, &sme) {
				return Config{}, fmt.Errorf("failed to parse config %s: %s", path, sme.String())
			}
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Storage.Bucket = gcp.GetEnv(EnvGCSBucket, cfg.Storage.Bucket)
	cfg.Log.Format = gcp.GetEnv(EnvLogFormat, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Ingest.ProbeConcurrency < 0 {
		return fmt.Errorf("ingest.probe_concurrency must not be negative")
	}
	if c.Text.RowTolerance < 0 {
		return fmt.Errorf("text.row_tolerance must not be negative")
	}
	if _, err := c.backoff(); err != nil {
		return err
	}
	return nil
}

func (c Config) backoff() (time.Duration, error) {
	if c.Storage.Backoff == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Storage.Backoff)
	if err != nil {
		return 0, fmt.Errorf("storage.backoff: %w", err)
	}
	return d, nil
}

// Toolkit returns the operation defaults. password applies to every load.
func (c Config) Toolkit(password string) services.ToolkitConfig {
	return services.ToolkitConfig{
		Password:     password,
		Watermark:    c.Watermark,
		PageNumbers:  c.PageNumbers,
		RowTolerance: c.Text.RowTolerance,
	}
}

func (c Config) Registry(password string) registry.Config {
	return registry.Config{ProbeConcurrency: c.Ingest.ProbeConcurrency, Password: password}
}

func (c Config) Bucket() gcp.BucketConfig {
	backoff, _ := c.backoff()
	return gcp.BucketConfig{
		Bucket:         c.Storage.Bucket,
		Prefix:         c.Storage.Prefix,
		Concurrency:    c.Storage.Concurrency,
		MaxRetries:     c.Storage.MaxRetries,
		InitialBackoff: backoff,
	}
}
