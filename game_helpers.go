package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iso2022jp/game-of-life-addin/model"
	"github.com/iso2022jp/game-of-life-addin/scheduler"
	"github.com/iso2022jp/game-of-life-addin/session"
	"github.com/iso2022jp/game-of-life-addin/sheet"
	"github.com/iso2022jp/game-of-life-addin/utils"
)

const configFile = "config.json"

// loadConfig reads config.json (falling back to defaults), then applies .env and environment overrides
func loadConfig() (utils.Config, error) {
	config, err := utils.LoadConfig(configFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config, err
		}
		config = utils.DefaultConfig()
	}

	if err := utils.LoadEnv(); err != nil {
		return config, err
	}
	config, err = utils.ApplyEnv(config, os.Getenv)
	if err != nil {
		return config, err
	}
	return config, config.Validate()
}

// setupLogging sets the global level; headless rendering owns stdout so logs go to stderr
func setupLogging(config utils.Config) {
	if lvl, err := zerolog.ParseLevel(config.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if config.Render && config.HTTPAddr == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

func rangeFrom(config utils.Config) sheet.Range {
	return sheet.Range{Row: config.RangeRow, Col: config.RangeCol, Rows: config.Height, Cols: config.Width}
}

// openSheet opens the sheet database and seeds the range when it holds no colors yet
func openSheet(ctx context.Context, config utils.Config) (*sheet.SQLiteCells, *sheet.Sheet, error) {
	cells, err := sheet.OpenSQLite(config.DBPath, config.SheetName)
	if err != nil {
		return nil, nil, err
	}

	palette := sheet.Palette{Live: config.LiveColor, Dead: config.DeadColor}
	src := sheet.New(cells, rangeFrom(config), palette)

	blank, err := cells.IsBlank(ctx, src.Range())
	if err != nil {
		_ = cells.Close()
		return nil, nil, err
	}
	if blank && config.SeedPattern != "" && !src.Range().IsEmpty() {
		var rng *rand.Rand
		if config.RandomSeed != 0 {
			rng = rand.New(rand.NewSource(config.RandomSeed))
		}
		g, err := model.Seed(config.SeedPattern, config.Width, config.Height, config.RandomDensity, rng)
		if err != nil {
			_ = cells.Close()
			return nil, nil, err
		}
		if err := src.Paint(ctx, g); err != nil {
			_ = cells.Close()
			return nil, nil, err
		}
		log.Info().
			Str("pattern", config.SeedPattern).
			Int("population", g.CountLivingCells()).
			Msg("blank range seeded")
	}

	return cells, src, nil
}

// newSession wires the sheet, scheduler and optional pool into a session
func newSession(config utils.Config, src sheet.Source, opts ...session.Option) *session.Session {
	if config.UseMemoryPool {
		opts = append(opts, session.WithPool(model.NewGridPool()))
	}
	return session.New(src, scheduler.NewTicker(), config, opts...)
}

// displayGameStatus shows the current game status
func displayGameStatus(out io.Writer, snap session.Snapshot) {
	population := 0
	density := 0.0
	if snap.Grid != nil {
		population = snap.Grid.CountLivingCells()
		if cells := snap.Grid.Width() * snap.Grid.Height(); cells > 0 {
			density = float64(population) / float64(cells) * 100
		}
	}

	fmt.Fprintf(out, "Gen: %d | Living: %d | Density: %.1f%% | Changed: %d | Status: %s\n",
		snap.Generation, population, density, snap.Stats.LastChanges, snap.State)
	fmt.Fprintf(out, "Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		snap.Stats.GenerationsPerSecond, snap.Stats.AveragePopulation, time.Since(snap.Stats.StartTime).Seconds())
	fmt.Fprintln(out)
}

// renderStep returns a step callback that redraws the terminal
func renderStep(renderer *model.TerminalRenderer) func(session.Snapshot) {
	return func(snap session.Snapshot) {
		if err := renderer.Clear(); err != nil {
			log.Warn().Err(err).Msg("clear terminal")
		}
		displayGameStatus(renderer.Out, snap)
		if snap.Grid != nil {
			if err := renderer.Display(snap.Grid); err != nil {
				log.Warn().Err(err).Msg("render grid")
			}
		}
	}
}
