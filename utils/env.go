package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables that override the config file
const (
	EnvSheetName  = "GOL_SHEET"
	EnvWidth      = "GOL_WIDTH"
	EnvHeight     = "GOL_HEIGHT"
	EnvInterval   = "GOL_INTERVAL"
	EnvMaxGens    = "GOL_MAX_GENERATIONS"
	EnvSeed       = "GOL_SEED_PATTERN"
	EnvDBPath     = "GOL_DB_PATH"
	EnvHTTPAddr   = "GOL_HTTP_ADDR"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLiveColor  = "GOL_LIVE_COLOR"
	EnvDeadColor  = "GOL_DEAD_COLOR"
	EnvRender     = "GOL_RENDER"
	EnvStagnation = "GOL_STAGNATION_THRESHOLD"
)

// LoadEnv loads .env files into the process environment. Missing files are not an error.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "[LoadEnv] failed to load %v", files)
	}
	return nil
}

// ApplyEnv overrides config fields with the non-empty values returned by getenv
func ApplyEnv(config Config, getenv func(string) string) (Config, error) {
	strs := map[string]*string{
		EnvSheetName: &config.SheetName,
		EnvSeed:      &config.SeedPattern,
		EnvDBPath:    &config.DBPath,
		EnvHTTPAddr:  &config.HTTPAddr,
		EnvLogLevel:  &config.LogLevel,
		EnvLiveColor: &config.LiveColor,
		EnvDeadColor: &config.DeadColor,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		EnvWidth:      &config.Width,
		EnvHeight:     &config.Height,
		EnvMaxGens:    &config.MaxGenerations,
		EnvStagnation: &config.StagnationThreshold,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return config, errors.Wrapf(err, "[ApplyEnv] invalid %s: %q", key, v)
		}
		*dst = n
	}

	if v := getenv(EnvInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config, errors.Wrapf(err, "[ApplyEnv] invalid %s: %q", EnvInterval, v)
		}
		config.Interval = d
	}

	if v := getenv(EnvRender); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return config, errors.Wrapf(err, "[ApplyEnv] invalid %s: %q", EnvRender, v)
		}
		config.Render = b
	}

	return config, nil
}
