// Package httpserver exposes a session over HTTP: the Run and Stop buttons of
// the task pane plus a few endpoints for inspecting and seeding the board.
//
// Routes:
//   - GET  /health
//   - GET  /grid   current generation as rows of 0/1
//   - POST /run    load the range and start advancing
//   - POST /stop   stop advancing
//   - POST /step   advance once while stopped
//   - POST /seed   paint a pattern into the range while stopped
package httpserver

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/iso2022jp/game-of-life-addin/model"
	"github.com/iso2022jp/game-of-life-addin/rules"
	"github.com/iso2022jp/game-of-life-addin/session"
	"github.com/iso2022jp/game-of-life-addin/sheet"
)

// Painter writes a whole grid into the sheet range
type Painter interface {
	Paint(ctx context.Context, g *model.Grid) error
	Range() sheet.Range
}

// Server bundles the router with the session it controls
type Server struct {
	r       *chi.Mux
	session *session.Session
	painter Painter
	density float64
}

// New constructs a Server, installs middleware, and registers routes
func New(s *session.Session, painter Painter, density float64) *Server {
	srv := &Server{r: chi.NewRouter(), session: s, painter: painter, density: density}

	srv.r.Use(chimw.RequestID)
	srv.r.Use(chimw.RealIP)
	srv.r.Use(chimw.Recoverer)
	srv.r.Use(chimw.Timeout(10 * time.Second))
	srv.r.Use(jsonContentType)

	srv.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv.r.Get("/grid", srv.handleGrid)
	srv.r.Post("/run", srv.handleRun)
	srv.r.Post("/stop", srv.handleStop)
	srv.r.Post("/step", srv.handleStep)
	srv.r.Post("/seed", srv.handleSeed)

	srv.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return srv
}

// Router exposes the router (useful for tests)
func (s *Server) Router() chi.Router { return s.r }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("control server listening")

	select {
	case err := <-errCh:
		return errors.Wrap(err, "[Serve] listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "[Serve] shutdown")
	}
	return nil
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// gridRes is the JSON view of a session snapshot
type gridRes struct {
	State        string  `json:"state"`
	Generation   int     `json:"generation"`
	Loaded       bool    `json:"loaded"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Population   int     `json:"population"`
	Changes      int     `json:"changes"`
	TotalChanges int     `json:"totalChanges"`
	GensPerSec   float64 `json:"generationsPerSecond"`
	StopReason   string  `json:"stopReason,omitempty"`
	Cells        [][]int `json:"cells"`
}

func toGridRes(snap session.Snapshot) gridRes {
	res := gridRes{
		State:        snap.State.String(),
		Generation:   snap.Generation,
		StopReason:   snap.StopReason,
		Changes:      snap.Stats.LastChanges,
		TotalChanges: snap.Stats.TotalChanges,
		GensPerSec:   snap.Stats.GenerationsPerSecond,
		Cells:        [][]int{},
	}
	if snap.Grid == nil {
		return res
	}

	res.Loaded = true
	res.Width, res.Height = snap.Grid.Width(), snap.Grid.Height()
	res.Population = snap.Grid.CountLivingCells()
	res.Cells = make([][]int, res.Height)
	for y := range res.Height {
		res.Cells[y] = make([]int, res.Width)
		for x := range res.Width {
			if snap.Grid.Get(x, y) == rules.Live {
				res.Cells[y][x] = 1
			}
		}
	}
	return res
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(toGridRes(s.session.Snapshot()))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	err := s.session.Start(r.Context())
	switch {
	case errors.Is(err, session.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "already_running")
		return
	case err != nil:
		log.Error().Err(err).Msg("run")
		writeError(w, http.StatusBadGateway, "load_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(toGridRes(s.session.Snapshot()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.session.Stop()
	_ = json.NewEncoder(w).Encode(toGridRes(s.session.Snapshot()))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if s.session.State() == session.Running {
		writeError(w, http.StatusConflict, "already_running")
		return
	}

	if s.session.Snapshot().Grid == nil {
		if err := s.session.Load(r.Context()); err != nil {
			log.Error().Err(err).Msg("step load")
			writeError(w, http.StatusBadGateway, "load_failed")
			return
		}
	}

	if err := s.session.Step(r.Context()); err != nil {
		log.Error().Err(err).Msg("step")
		writeError(w, http.StatusBadGateway, "write_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(toGridRes(s.session.Snapshot()))
}

// seedReq is the payload of POST /seed
type seedReq struct {
	Pattern string  `json:"pattern"`
	Density float64 `json:"density"`
	Seed    int64   `json:"seed"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if s.session.State() == session.Running {
		writeError(w, http.StatusConflict, "already_running")
		return
	}

	var req seedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Density <= 0 {
		req.Density = s.density
	}
	var rng *rand.Rand
	if req.Seed != 0 {
		rng = rand.New(rand.NewSource(req.Seed))
	}

	area := s.painter.Range()
	g, err := model.Seed(req.Pattern, area.Cols, area.Rows, req.Density, rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_pattern")
		return
	}
	if err := s.painter.Paint(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("seed")
		writeError(w, http.StatusBadGateway, "write_failed")
		return
	}
	if err := s.session.Load(r.Context()); err != nil {
		log.Error().Err(err).Msg("seed reload")
		writeError(w, http.StatusBadGateway, "load_failed")
		return
	}

	log.Info().Str("pattern", req.Pattern).Int("population", g.CountLivingCells()).Msg("range seeded")
	_ = json.NewEncoder(w).Encode(toGridRes(s.session.Snapshot()))
}
