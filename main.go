package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iso2022jp/game-of-life-addin/httpserver"
	"github.com/iso2022jp/game-of-life-addin/model"
	"github.com/iso2022jp/game-of-life-addin/session"
	"github.com/iso2022jp/game-of-life-addin/sheet"
	"github.com/iso2022jp/game-of-life-addin/utils"
)

func main() {
	config, err := loadConfig()
	setupLogging(config)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Handle Ctrl+C gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cells, src, err := openSheet(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open sheet")
	}
	defer cells.Close()

	if config.HTTPAddr != "" {
		sess := newSession(config, src)
		defer sess.Stop()

		srv := httpserver.New(sess, src, config.RandomDensity)
		if err := srv.Serve(ctx, config.HTTPAddr); err != nil {
			log.Error().Err(err).Msg("server exited")
		}
		return
	}

	runHeadless(ctx, config, src)
}

// runHeadless plays the range until interrupted or the session stops on its own
func runHeadless(ctx context.Context, config utils.Config, src sheet.Source) {
	stopped := make(chan string, 1)
	opts := []session.Option{
		session.WithOnStop(func(reason string) {
			select {
			case stopped <- reason:
			default:
			}
		}),
	}
	if config.Render {
		opts = append(opts, session.WithOnStep(renderStep(&model.TerminalRenderer{Out: os.Stdout})))
	}

	sess := newSession(config, src, opts...)
	if err := sess.Start(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down gracefully")
		sess.Stop()
	case reason := <-stopped:
		log.Info().Str("reason", reason).Msg("session finished")
	}

	snap := sess.Snapshot()
	log.Info().
		Int("generations", snap.Generation).
		Float64("runtime_sec", time.Since(snap.Stats.StartTime).Seconds()).
		Float64("avg_population", snap.Stats.AveragePopulation).
		Int("cells_written", snap.Stats.TotalChanges).
		Msg("final stats")
}
