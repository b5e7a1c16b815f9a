// Package session hosts live games. A Session owns one player's snapshot and
// serializes everything that touches it behind a single mutex: scheduler
// ticks, player actions and reads all line up on the same lock, which is the
// whole concurrency model; the simulation core itself stays single-threaded.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"kvartal/internal/progression"
	"kvartal/internal/sim"
	"kvartal/internal/store"
)

type Session struct {
	playerID string
	proc     *sim.Processor
	tracker  *progression.Tracker
	st       store.Store
	log      *slog.Logger

	mu   sync.Mutex
	snap store.Snapshot

	subMu sync.Mutex
	subs  map[chan []sim.Event]struct{}
}

// attach loads the player's snapshot and runs offline catch-up before the
// session goes live.
func attach(ctx context.Context, playerID string, proc *sim.Processor, tracker *progression.Tracker, st store.Store, log *slog.Logger, now int64) (*Session, error) {
	snap, err := st.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	out, err := proc.Enter(snap.Player, snap.Market, snap.Events, snap.LastSyncedAt, now)
	if err != nil {
		return nil, err
	}
	snap.Player = out.Player
	snap.Market = out.Market
	snap.Events = out.Events
	snap.LastSyncedAt = out.Player.LastSyncedAt

	s := &Session{
		playerID: playerID,
		proc:     proc,
		tracker:  tracker,
		st:       st,
		log:      log,
		snap:     snap,
		subs:     map[chan []sim.Event]struct{}{},
	}

	// Progression may already be satisfied by the catch-up results.
	s.mu.Lock()
	s.evaluateProgressionLocked(now)
	s.mu.Unlock()

	if err := s.Save(ctx); err != nil {
		log.Warn("save after catch-up failed", "player_id", playerID, "err", err)
	}
	return s, nil
}

// Tick advances the live simulation one step. Errors mean corrupted state;
// the snapshot is left untouched.
func (s *Session) Tick(now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.proc.Tick(s.snap.Player, s.snap.Market, now)
	if err != nil {
		return err
	}
	s.snap.Player = out.Player
	s.snap.Market = out.Market
	s.snap.Player.LastSyncedAt = now
	s.snap.LastSyncedAt = now
	s.appendEventsLocked(out.Events)
	s.evaluateProgressionLocked(now)
	return nil
}

// Do runs a player action under the session lock. The action receives the
// current player and returns its successor plus the tagged result; on a
// failed result the snapshot is unchanged.
func (s *Session) Do(now int64, action func(pl sim.Player) (sim.Player, sim.Result, error)) (sim.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, res, err := action(s.snap.Player)
	if err != nil {
		return sim.Result{}, err
	}
	if !res.OK {
		return res, nil
	}
	s.snap.Player = pl
	s.appendEventsLocked([]sim.Event{narration(now, sim.SeveritySuccess, res.Message)})
	s.evaluateProgressionLocked(now)
	return res, nil
}

// Snapshot returns a deep copy for rendering; callers never see live state.
func (s *Session) Snapshot() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Player = s.snap.Player.Clone()
	snap.Market = s.snap.Market.Clone()
	snap.Events = append([]sim.Event(nil), s.snap.Events...)
	snap.Missions = append([]progression.Mission(nil), s.snap.Missions...)
	snap.Achievements = append([]progression.Achievement(nil), s.snap.Achievements...)
	snap.Listings = append([]sim.Property(nil), s.snap.Listings...)
	return snap
}

// RefreshListings regenerates the market listings.
func (s *Session) RefreshListings(rnd sim.Source, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Listings = sim.GenerateListings(s.proc.Rules(), s.snap.Market, rnd, count)
}

// TakeListing removes and returns a listing by ID for purchase.
func (s *Session) takeListingLocked(id string) (sim.Property, bool) {
	for i, l := range s.snap.Listings {
		if l.ID == id {
			s.snap.Listings = append(s.snap.Listings[:i], s.snap.Listings[i+1:]...)
			return l, true
		}
	}
	return sim.Property{}, false
}

// Buy purchases a listing by ID, in cash or with a mortgage. The listing is
// consumed only when the purchase succeeds.
func (s *Session) Buy(now int64, listingID string, mortgage bool) (sim.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listing sim.Property
	found := false
	for _, l := range s.snap.Listings {
		if l.ID == listingID {
			listing, found = l, true
			break
		}
	}
	if !found {
		return sim.Result{OK: false, Message: "Объект не найден в каталоге"}, nil
	}

	var (
		pl  sim.Player
		res sim.Result
		err error
	)
	if mortgage {
		pl, res, err = s.proc.BuyWithMortgage(s.snap.Player, listing, now)
	} else {
		pl, res = s.proc.BuyWithCash(s.snap.Player, listing, now)
	}
	if err != nil {
		return sim.Result{}, err
	}
	if !res.OK {
		return res, nil
	}
	s.snap.Player = pl
	s.takeListingLocked(listingID)
	s.appendEventsLocked([]sim.Event{narration(now, sim.SeveritySuccess, res.Message)})
	s.evaluateProgressionLocked(now)
	return res, nil
}

// Save persists the current snapshot.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	snap := s.snap
	snap.Events = sim.TruncateEvents(append([]sim.Event(nil), s.snap.Events...))
	s.mu.Unlock()
	return s.st.Save(ctx, snap)
}

// Subscribe registers a live event feed. The channel is buffered; a slow
// consumer drops batches rather than stalling the tick loop.
func (s *Session) Subscribe() chan []sim.Event {
	ch := make(chan []sim.Event, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Session) Unsubscribe(ch chan []sim.Event) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

// appendEventsLocked records narration and fans it out to subscribers.
// Caller holds s.mu.
func (s *Session) appendEventsLocked(events []sim.Event) {
	if len(events) == 0 {
		return
	}
	s.snap.Events = sim.TruncateEvents(append(s.snap.Events, events...))

	s.subMu.Lock()
	for ch := range s.subs {
		select {
		case ch <- events:
		default:
		}
	}
	s.subMu.Unlock()
}

// evaluateProgressionLocked runs the mission/achievement pass over the
// current player. Caller holds s.mu.
func (s *Session) evaluateProgressionLocked(now int64) {
	out := s.tracker.Evaluate(s.snap.Player, s.snap.Missions, s.snap.Achievements, now)
	s.snap.Player = out.Player
	s.snap.Missions = out.Missions
	s.snap.Achievements = out.Achievements
	s.appendEventsLocked(out.Events)
}

func narration(now int64, severity sim.Severity, message string) sim.Event {
	return sim.Event{ID: uuid.NewString(), Timestamp: now, Message: message, Type: severity}
}
