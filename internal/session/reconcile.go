package session

import (
	"context"
	"log/slog"

	"kvartal/internal/progression"
	"kvartal/internal/sim"
	"kvartal/internal/store"
)

// Reconciler applies server-side catch-up to stored snapshots. It is the
// worker-process counterpart of a live session: no scheduler, no
// subscribers, just load, replay, save, one player at a time.
type Reconciler struct {
	proc    *sim.Processor
	tracker *progression.Tracker
	st      store.Store
	log     *slog.Logger
}

func NewReconciler(proc *sim.Processor, tracker *progression.Tracker, st store.Store, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{proc: proc, tracker: tracker, st: st, log: log}
}

// Sweep reconciles every stored player. A failed player is logged and
// skipped so one corrupted snapshot cannot wedge the sweep.
func (r *Reconciler) Sweep(ctx context.Context, now int64) (reconciled, failed int) {
	ids, err := r.st.List(ctx)
	if err != nil {
		r.log.Error("list snapshots failed", "err", err)
		return 0, 0
	}
	for _, id := range ids {
		if err := r.reconcileOne(ctx, id, now); err != nil {
			r.log.Error("reconcile failed", "player_id", id, "err", err)
			failed++
			continue
		}
		reconciled++
	}
	return reconciled, failed
}

func (r *Reconciler) reconcileOne(ctx context.Context, playerID string, now int64) error {
	snap, err := r.st.Load(ctx, playerID)
	if err != nil {
		return err
	}

	out, err := r.proc.Enter(snap.Player, snap.Market, snap.Events, snap.LastSyncedAt, now)
	if err != nil {
		return err
	}
	snap.Player = out.Player
	snap.Market = out.Market
	snap.Events = out.Events
	snap.LastSyncedAt = out.Player.LastSyncedAt

	prg := r.tracker.Evaluate(snap.Player, snap.Missions, snap.Achievements, now)
	snap.Player = prg.Player
	snap.Missions = prg.Missions
	snap.Achievements = prg.Achievements
	snap.Events = sim.TruncateEvents(append(snap.Events, prg.Events...))

	return r.st.Save(ctx, snap)
}
