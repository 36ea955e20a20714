// Package config loads the server's JSON configuration file.
//
// Every field is optional. Fields left out of the file fall back to the
// defaults returned by the Get* accessors, so a partial file is safe and an
// empty Config is a valid configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/spore-measure-mcp/internal/detection"
	"github.com/ironsheep/spore-measure-mcp/internal/store"
)

// Config is the root configuration.
type Config struct {
	DataDir       *string `json:"data_dir,omitempty"`
	StoreBackend  *string `json:"store_backend,omitempty"`
	LogLevel      *string `json:"log_level,omitempty"`
	WatchImages   *bool   `json:"watch_images,omitempty"`
	WatchDebounce *string `json:"watch_debounce,omitempty"` // duration string like "250ms"
	OCRLanguage   *string `json:"ocr_language,omitempty"`

	Detection *DetectionConfig `json:"detection,omitempty"`
}

// DetectionConfig overrides detection.DefaultParams.
type DetectionConfig struct {
	BlurRadius     *float64 `json:"blur_radius,omitempty"`
	Threshold      *int     `json:"threshold,omitempty"`
	Invert         *bool    `json:"invert,omitempty"`
	MinArea        *int     `json:"min_area,omitempty"`
	MaxArea        *int     `json:"max_area,omitempty"`
	MinCircularity *float64 `json:"min_circularity,omitempty"`
}

func ptrString(v string) *string { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// LoadConfig reads a Config from a .json file of at most 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.StoreBackend != nil {
		switch *c.StoreBackend {
		case store.BackendJSON, store.BackendSQLite, store.BackendMemory:
		default:
			return fmt.Errorf("store_backend must be json, sqlite or memory, got %q", *c.StoreBackend)
		}
	}

	if c.LogLevel != nil {
		switch strings.ToLower(*c.LogLevel) {
		case "", "info", "debug":
		default:
			return fmt.Errorf("log_level must be info or debug, got %q", *c.LogLevel)
		}
	}

	if c.WatchDebounce != nil && *c.WatchDebounce != "" {
		d, err := time.ParseDuration(*c.WatchDebounce)
		if err != nil {
			return fmt.Errorf("invalid watch_debounce '%s': %w", *c.WatchDebounce, err)
		}
		if d < 0 {
			return fmt.Errorf("watch_debounce must be non-negative, got %s", d)
		}
	}

	if d := c.Detection; d != nil {
		if d.Threshold != nil && (*d.Threshold < 0 || *d.Threshold > 255) {
			return fmt.Errorf("detection.threshold must be between 0 and 255, got %d", *d.Threshold)
		}
		if d.MinArea != nil && *d.MinArea < 0 {
			return fmt.Errorf("detection.min_area must be non-negative, got %d", *d.MinArea)
		}
		if d.MaxArea != nil && *d.MaxArea < 0 {
			return fmt.Errorf("detection.max_area must be non-negative, got %d", *d.MaxArea)
		}
		if d.MinArea != nil && d.MaxArea != nil && *d.MaxArea > 0 && *d.MaxArea < *d.MinArea {
			return fmt.Errorf("detection.max_area %d is below min_area %d", *d.MaxArea, *d.MinArea)
		}
		if d.MinCircularity != nil && (*d.MinCircularity < 0 || *d.MinCircularity > 1) {
			return fmt.Errorf("detection.min_circularity must be between 0 and 1, got %f", *d.MinCircularity)
		}
	}
	return nil
}

// GetDataDir returns data_dir or <user config dir>/spore-measure.
func (c *Config) GetDataDir() string {
	if c.DataDir != nil && *c.DataDir != "" {
		return *c.DataDir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".spore-measure"
	}
	return filepath.Join(dir, "spore-measure")
}

// GetStoreBackend returns store_backend or json.
func (c *Config) GetStoreBackend() string {
	if c.StoreBackend == nil || *c.StoreBackend == "" {
		return store.BackendJSON
	}
	return *c.StoreBackend
}

// GetLogLevel returns log_level or info.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info"
	}
	return strings.ToLower(*c.LogLevel)
}

// GetWatchImages returns watch_images or true.
func (c *Config) GetWatchImages() bool {
	if c.WatchImages == nil {
		return true
	}
	return *c.WatchImages
}

// GetWatchDebounce parses watch_debounce, defaulting to 250ms.
func (c *Config) GetWatchDebounce() time.Duration {
	if c.WatchDebounce == nil || *c.WatchDebounce == "" {
		return 250 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.WatchDebounce)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// GetOCRLanguage returns ocr_language or eng.
func (c *Config) GetOCRLanguage() string {
	if c.OCRLanguage == nil || *c.OCRLanguage == "" {
		return "eng"
	}
	return *c.OCRLanguage
}

// GetDetectionParams overlays the detection section on the detector
// defaults.
func (c *Config) GetDetectionParams() detection.Params {
	p := detection.DefaultParams()
	d := c.Detection
	if d == nil {
		return p
	}
	if d.BlurRadius != nil {
		p.BlurRadius = *d.BlurRadius
	}
	if d.Threshold != nil {
		p.Threshold = uint8(*d.Threshold)
	}
	if d.Invert != nil {
		p.Invert = *d.Invert
	}
	if d.MinArea != nil {
		p.MinArea = *d.MinArea
	}
	if d.MaxArea != nil {
		p.MaxArea = *d.MaxArea
	}
	if d.MinCircularity != nil {
		p.MinCircularity = *d.MinCircularity
	}
	return p
}

// Override applies non-empty command line values on top of the file.
func (c *Config) Override(dataDir, backend string) {
	if dataDir != "" {
		c.DataDir = ptrString(dataDir)
	}
	if backend != "" {
		c.StoreBackend = ptrString(backend)
	}
}
