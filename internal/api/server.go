package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kvartal/internal/config"
	"kvartal/internal/rules"
	"kvartal/internal/session"
	"kvartal/internal/sim"
)

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	sessions *session.Manager
	rnd      sim.Source
	mux      *chi.Mux

	now func() int64
}

func New(cfg config.APIConfig, logger *slog.Logger, sessions *session.Manager, rnd sim.Source) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		sessions: sessions,
		rnd:      rnd,
		mux:      chi.NewRouter(),
		now:      func() int64 { return time.Now().UnixMilli() },
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/games", s.handleNewGame)

		r.Route("/players/{player_id}", func(r chi.Router) {
			r.Post("/enter", s.handleEnter)
			r.Get("/state", s.handleState)
			r.Get("/market", s.handleMarket)
			r.Get("/events", s.handleEvents)
			r.Get("/listings", s.handleListings)
			r.Get("/progression", s.handleProgression)
			r.Get("/events/stream", s.handleEventStream)

			r.Post("/actions/buy", s.handleBuy)
			r.Post("/actions/strategy", s.handleStrategy)
			r.Post("/actions/renovate", s.handleRenovate)
			r.Post("/actions/loan", s.handleLoan)
		})
	})
}

// enterSession attaches (or finds) the live session for the player in the
// URL and replies 404 on an unknown player.
func (s *Server) enterSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	playerID := chi.URLParam(r, "player_id")
	sess, err := s.sessions.Enter(r.Context(), playerID, s.now())
	if errors.Is(err, session.ErrNoSuchPlayer) {
		writeError(w, http.StatusNotFound, "player not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID   string `json:"playerId"`
		Name       string `json:"name"`
		Difficulty string `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = rules.DifficultyNormal
	}
	sess, err := s.sessions.Bootstrap(r.Context(), req.PlayerID, req.Name, req.Difficulty, s.rnd, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"player":       snap.Player,
		"lastSyncedAt": snap.LastSyncedAt,
	})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot().Market)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": sess.Snapshot().Events})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") == "true" {
		sess.RefreshListings(s.rnd, 5)
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": sess.Snapshot().Listings})
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"missions":     snap.Missions,
		"achievements": snap.Achievements,
		"level":        snap.Player.Level,
		"experience":   snap.Player.Experience,
	})
}

// Action handlers. A rejected action is a successful HTTP exchange carrying
// {"success": false}; transport-level errors are reserved for broken
// requests and corrupted state.

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	var req struct {
		ListingID string `json:"listingId"`
		Mortgage  bool   `json:"mortgage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := sess.Buy(s.now(), req.ListingID, req.Mortgage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	var req struct {
		PropertyID string `json:"propertyId"`
		Strategy   string `json:"strategy"`
		SalePrice  int64  `json:"salePrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	res, err := sess.Do(now, func(pl sim.Player) (sim.Player, sim.Result, error) {
		out, result := s.sessions.Processor().SetStrategy(pl, req.PropertyID, sim.Strategy(req.Strategy), req.SalePrice, now)
		return out, result, nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRenovate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	var req struct {
		PropertyID string `json:"propertyId"`
		Tier       string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	res, err := sess.Do(now, func(pl sim.Player) (sim.Player, sim.Result, error) {
		return s.sessions.Processor().StartRenovation(pl, req.PropertyID, req.Tier, now)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.enterSession(w, r)
	if !ok {
		return
	}
	var req struct {
		PropertyID string `json:"propertyId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	res, err := sess.Do(now, func(pl sim.Player) (sim.Player, sim.Result, error) {
		return s.sessions.Processor().BorrowAgainst(pl, req.PropertyID, now)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
