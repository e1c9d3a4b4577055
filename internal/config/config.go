package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/imagebatch/internal/archive"
	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/images"
	"github.com/lehigh-university-libraries/imagebatch/internal/search"
)

// Config carries every path and setting a run needs. Nothing is read from
// the process working directory beyond the relative paths given here.
type Config struct {
	OutputDir   string `yaml:"output_dir"`
	ScratchDir  string `yaml:"scratch_dir"`
	ArchiveName string `yaml:"archive_name"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	RequestDelay time.Duration `yaml:"request_delay"`
	BatchSize    int           `yaml:"batch_size"`
	BatchDelay   time.Duration `yaml:"batch_delay"`

	Provider     string        `yaml:"provider"`
	WebSearchURL string        `yaml:"web_search_url"`
	GoogleAPIKey string        `yaml:"google_api_key"`
	GoogleCX     string        `yaml:"google_cx"`
	UserAgent    string        `yaml:"user_agent"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`

	Addr string `yaml:"addr"`
}

// Default returns the settings used when nothing else is configured
func Default() Config {
	return Config{
		OutputDir:    "images",
		ScratchDir:   "",
		ArchiveName:  archive.FileName,
		Width:        images.DefaultWidth,
		Height:       images.DefaultHeight,
		RequestDelay: batch.DefaultRequestDelay,
		BatchSize:    batch.DefaultBatchSize,
		BatchDelay:   batch.DefaultBatchDelay,
		Provider:     "web",
		WebSearchURL: search.DefaultWebSearchURL,
		UserAgent:    search.DefaultUserAgent,
		HTTPTimeout:  30 * time.Second,
		Addr:         ":8888",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then IMAGEBATCH_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	cfg.OutputDir = getenv("IMAGEBATCH_OUTPUT_DIR", cfg.OutputDir)
	cfg.ScratchDir = getenv("IMAGEBATCH_SCRATCH_DIR", cfg.ScratchDir)
	cfg.ArchiveName = getenv("IMAGEBATCH_ARCHIVE_NAME", cfg.ArchiveName)
	cfg.Provider = getenv("IMAGEBATCH_PROVIDER", cfg.Provider)
	cfg.WebSearchURL = getenv("IMAGEBATCH_WEB_SEARCH_URL", cfg.WebSearchURL)
	cfg.GoogleAPIKey = getenv("IMAGEBATCH_GOOGLE_API_KEY", cfg.GoogleAPIKey)
	cfg.GoogleCX = getenv("IMAGEBATCH_GOOGLE_CX", cfg.GoogleCX)
	cfg.UserAgent = getenv("IMAGEBATCH_USER_AGENT", cfg.UserAgent)
	cfg.Addr = getenv("IMAGEBATCH_ADDR", cfg.Addr)

	var errs []error
	var err error
	if cfg.Width, err = getenvInt("IMAGEBATCH_WIDTH", cfg.Width); err != nil {
		errs = append(errs, err)
	}
	if cfg.Height, err = getenvInt("IMAGEBATCH_HEIGHT", cfg.Height); err != nil {
		errs = append(errs, err)
	}
	if cfg.BatchSize, err = getenvInt("IMAGEBATCH_BATCH_SIZE", cfg.BatchSize); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequestDelay, err = getenvDuration("IMAGEBATCH_REQUEST_DELAY", cfg.RequestDelay); err != nil {
		errs = append(errs, err)
	}
	if cfg.BatchDelay, err = getenvDuration("IMAGEBATCH_BATCH_DELAY", cfg.BatchDelay); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTPTimeout, err = getenvDuration("IMAGEBATCH_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

// getenvDuration accepts Go durations ("1m30s") or plain seconds ("5")
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Validate rejects settings a run cannot work with
func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("image size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.RequestDelay < 0 || c.BatchDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	switch c.Provider {
	case "web", "google":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (supported: web, google)", c.Provider))
	}
	return errors.Join(errs...)
}

// Batch returns the pacing settings
func (c Config) Batch() batch.Config {
	return batch.Config{
		RequestDelay: c.RequestDelay,
		BatchSize:    c.BatchSize,
		BatchDelay:   c.BatchDelay,
	}
}

// Search returns the search provider settings
func (c Config) Search() search.Config {
	return search.Config{
		Provider:     c.Provider,
		UserAgent:    c.UserAgent,
		Timeout:      c.HTTPTimeout,
		WebSearchURL: c.WebSearchURL,
		GoogleAPIKey: c.GoogleAPIKey,
		GoogleCX:     c.GoogleCX,
	}
}

// Store returns the fetch-resize-store settings
func (c Config) Store() images.StoreConfig {
	return images.StoreConfig{
		OutputDir:  c.OutputDir,
		ScratchDir: c.ScratchDir,
		Width:      c.Width,
		Height:     c.Height,
	}
}
