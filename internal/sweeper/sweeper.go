// Package sweeper drives the time-based queue transitions. Hold expiry and
// no-show warnings are observational: they only land when a command runs, so
// this worker periodically sweeps tables whose deadlines have passed.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/coordinator"
	"github.com/chalkitup/backend/internal/store"
)

// claimBatch caps how many due tables one tick will take on.
const claimBatch = 64

// Start launches the background sweep worker.
func Start(ctx context.Context, st *store.Store, coord *coordinator.Coordinator, cfg *config.Config) {
	if st == nil || coord == nil {
		log.Println("[SWEEP] store or coordinator missing; sweeper not started")
		return
	}

	interval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	log.Printf("[SWEEP] sweeper started (interval=%s)", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[SWEEP] sweeper stopping")
				return
			case <-ticker.C:
				sweepDue(ctx, st, coord)
			}
		}
	}()
}

// sweepDue claims every table whose deadline has passed and sweeps each one.
// A claim that fails mid-sweep is not re-queued here; the table reschedules
// itself on its next commit.
func sweepDue(ctx context.Context, st *store.Store, coord *coordinator.Coordinator) {
	now := time.Now().UnixMilli()
	ids, err := st.DueSweeps(ctx, now, claimBatch)
	if err != nil {
		log.Printf("[SWEEP] failed to claim due tables: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	log.Printf("[SWEEP] sweeping %d table(s)", len(ids))
	for _, id := range ids {
		if err := coord.SweepTable(ctx, id); err != nil {
			log.Printf("[SWEEP] sweep of table %s failed: %v", id, err)
		}
	}
}
