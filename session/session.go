// Package session owns one game: the current generation, its run state and the
// periodic advance-and-write cycle against a sheet.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/iso2022jp/game-of-life-addin/model"
	"github.com/iso2022jp/game-of-life-addin/scheduler"
	"github.com/iso2022jp/game-of-life-addin/sheet"
	"github.com/iso2022jp/game-of-life-addin/utils"
)

// State is the run state of a session
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Reasons a running session stopped
const (
	ReasonUser           = "stopped"
	ReasonMaxGenerations = "max generations reached"
	ReasonExtinction     = "extinction"
	ReasonStagnation     = "stagnation detected"
)

var (
	ErrAlreadyRunning = errors.New("session is already running")
	ErrNotLoaded      = errors.New("no grid loaded")
)

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	State      State
	Generation int
	Grid       *model.Grid
	Stats      utils.Stats
	StopReason string
}

// Option configures a Session
type Option func(*Session)

// WithPool recycles retired generations through pool
func WithPool(pool *model.GridPool) Option {
	return func(s *Session) { s.pool = pool }
}

// WithOnStep registers a callback invoked after every successful advance
func WithOnStep(fn func(Snapshot)) Option {
	return func(s *Session) { s.onStep = fn }
}

// WithOnStop registers a callback invoked whenever a running session stops
func WithOnStop(fn func(reason string)) Option {
	return func(s *Session) { s.onStop = fn }
}

// Session is owned by its caller; all methods are safe for concurrent use
type Session struct {
	source    sheet.Source
	scheduler scheduler.Scheduler
	config    utils.Config
	pool      *model.GridPool
	onStep    func(Snapshot)
	onStop    func(string)

	// stepMu serializes Start, Load and Step so only one advance is ever in flight
	stepMu sync.Mutex

	mu            sync.Mutex
	state         State
	current       *model.Grid
	generation    int
	handle        scheduler.Handle
	history       model.History
	stagnantCount int
	stats         *utils.Stats
	stopReason    string
}

// New returns a stopped session with no grid loaded
func New(source sheet.Source, sched scheduler.Scheduler, config utils.Config, opts ...Option) *Session {
	s := &Session{
		source:    source,
		scheduler: sched,
		config:    config,
		stats:     utils.NewStats(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the first generation from the source and resets counters.
// A load failure leaves the previous grid in place.
func (s *Session) Load(ctx context.Context) error {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	g, err := s.source.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "[Load] failed to load grid")
	}

	s.mu.Lock()
	old := s.current
	s.current = g
	s.generation = 0
	s.history.Reset()
	s.stagnantCount = 0
	s.stats = utils.NewStats()
	s.stats.ActiveCells = g.CountLivingCells()
	s.mu.Unlock()

	model.GridToPool(old, s.pool)

	log.Info().
		Int("width", g.Width()).
		Int("height", g.Height()).
		Int("population", g.CountLivingCells()).
		Msg("grid loaded")
	return nil
}

// Start loads the grid and begins advancing it every configured interval.
// On a load failure the session stays stopped.
func (s *Session) Start(ctx context.Context) error {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if s.State() == Running {
		return ErrAlreadyRunning
	}
	if s.config.Interval <= 0 {
		return errors.Errorf("[Start] interval must be positive, got %v", s.config.Interval)
	}

	if err := s.load(ctx); err != nil {
		return errors.Wrap(err, "[Start] session not started")
	}

	s.mu.Lock()
	s.state = Running
	s.stopReason = ""
	// the periodic task outlives the request that started it
	s.handle = s.scheduler.Start(context.WithoutCancel(ctx), s.tick, s.config.Interval)
	s.mu.Unlock()

	log.Info().Dur("interval", s.config.Interval).Msg("session started")
	return nil
}

// Stop revokes the periodic trigger. Stopping a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	stopped := s.stopLocked(ReasonUser)
	s.mu.Unlock()

	if stopped {
		s.notifyStop(ReasonUser)
	}
}

func (s *Session) stopLocked(reason string) bool {
	if s.state != Running {
		return false
	}
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
	s.state = Stopped
	s.stopReason = reason
	return true
}

func (s *Session) notifyStop(reason string) {
	log.Info().Str("reason", reason).Msg("session stopped")
	if s.onStop != nil {
		s.onStop(reason)
	}
}

// tick is the periodic step. A tick that was queued behind Load or a manual
// Step when the session stopped does nothing.
func (s *Session) tick(ctx context.Context) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if ctx.Err() != nil || s.State() != Running {
		log.Debug().Msg("tick after stop ignored")
		return
	}

	// a run that has begun finishes its write even if Stop lands meanwhile,
	// otherwise the sheet falls a generation behind the session
	if err := s.step(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Msg("advance failed")
	}
}

// Step advances one generation and writes only the changed cells to the source.
// When the write fails the error is returned and the session still moves to the
// new generation; the sheet may then lag behind.
func (s *Session) Step(ctx context.Context) error {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.step(ctx)
}

func (s *Session) step(ctx context.Context) error {
	start := time.Now()

	s.mu.Lock()
	prev := s.current
	s.mu.Unlock()
	if prev == nil {
		return ErrNotLoaded
	}

	next := prev.NextGeneration(s.config, s.pool)
	changes, err := model.Diff(next, prev)
	if err != nil {
		model.GridToPool(next, s.pool)
		return errors.Wrap(err, "[Step] diff failed")
	}

	writeErr := s.source.Write(ctx, changes)

	population := next.CountLivingCells()

	s.mu.Lock()
	s.current = next
	s.generation++
	generation := s.generation
	s.stats.Update(generation, population, len(changes), time.Since(start))
	reason := s.checkStopLocked(next, population)
	stopped := reason != "" && s.stopLocked(reason)
	s.mu.Unlock()

	model.GridToPool(prev, s.pool)

	log.Debug().
		Int("generation", generation).
		Int("changes", len(changes)).
		Int("population", population).
		Msg("step")

	if writeErr == nil && s.onStep != nil {
		s.onStep(s.Snapshot())
	}
	if stopped {
		s.notifyStop(reason)
	}
	if writeErr != nil {
		return errors.Wrapf(writeErr, "[Step] generation %d not written", generation)
	}
	return nil
}

// checkStopLocked returns why a running session should stop after reaching next, or ""
func (s *Session) checkStopLocked(next *model.Grid, population int) string {
	if s.config.StagnationThreshold > 0 {
		if s.history.IsStagnant(next) {
			s.stagnantCount++
		} else {
			s.stagnantCount = 0
		}
		s.history.Push(next)
	}

	if s.state != Running {
		return ""
	}
	switch {
	case s.config.MaxGenerations > 0 && s.generation >= s.config.MaxGenerations:
		return ReasonMaxGenerations
	case s.config.StopOnExtinction && population == 0:
		return ReasonExtinction
	case s.config.StagnationThreshold > 0 && s.stagnantCount >= s.config.StagnationThreshold:
		return ReasonStagnation
	}
	return ""
}

// State returns the current run state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the session; Grid is nil until a grid is loaded
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Generation: s.generation,
		Stats:      *s.stats,
		StopReason: s.stopReason,
	}
	if s.current != nil {
		snap.Grid = s.current.Clone()
	}
	return snap
}
