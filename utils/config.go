package utils

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Config holds the configuration for a game session
type Config struct {
	// Selected range on the sheet, in zero-based cell coordinates
	SheetName string `json:"sheet_name"`
	RangeRow  int    `json:"range_row"`
	RangeCol  int    `json:"range_col"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`

	LiveColor string `json:"live_color"`
	DeadColor string `json:"dead_color"`

	Interval            time.Duration `json:"interval"`
	UseMemoryPool       bool          `json:"use_memory_pool"`
	UseBoundedGrid      bool          `json:"use_bounded_grid"`
	MaxGenerations      int           `json:"max_generations"`
	StagnationThreshold int           `json:"stagnation_threshold"`
	StopOnExtinction    bool          `json:"stop_on_extinction"`

	SeedPattern   string  `json:"seed_pattern"`
	RandomDensity float64 `json:"random_density"`
	RandomSeed    int64   `json:"random_seed"`

	DBPath   string `json:"db_path"`
	HTTPAddr string `json:"http_addr"`
	LogLevel string `json:"log_level"`
	Render   bool   `json:"render"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SheetName:           "Sheet1",
		Width:               40,
		Height:              20,
		LiveColor:           "#000000",
		DeadColor:           "#FFFFFF",
		Interval:            time.Second,
		UseMemoryPool:       true,
		UseBoundedGrid:      true,
		MaxGenerations:      0,
		StagnationThreshold: 0,
		StopOnExtinction:    false,
		SeedPattern:         "mixed",
		RandomDensity:       0.15,
		DBPath:              "./data/sheet.db",
		LogLevel:            "info",
		Render:              true,
	}
}

// Validate reports settings the session cannot run with
func (c Config) Validate() error {
	switch {
	case c.Interval <= 0:
		return errors.Errorf("[Validate] interval must be positive, got %v", c.Interval)
	case c.Width < 0 || c.Height < 0:
		return errors.Errorf("[Validate] range size must not be negative, got %dx%d", c.Width, c.Height)
	case c.RangeRow < 0 || c.RangeCol < 0:
		return errors.Errorf("[Validate] range origin must not be negative, got (%d,%d)", c.RangeRow, c.RangeCol)
	case c.LiveColor == "" || c.DeadColor == "":
		return errors.New("[Validate] live and dead colors are required")
	case c.RandomDensity < 0 || c.RandomDensity > 1:
		return errors.Errorf("[Validate] random density must be within [0,1], got %v", c.RandomDensity)
	}
	return nil
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}
