// Package coordinator binds the pure chalk engine to the store. Every
// mutating command runs as read, pure transition, conditional write; the
// store makes a single attempt and the coordinator owns the retry loop.
// Post-commit side effects (history, lifetime stats, publish, sweep
// scheduling) are logged on failure but never roll back a commit.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/store"
)

// Store is the persistence surface the coordinator consumes. *store.Store
// implements it; tests swap in an in-memory fake.
type Store interface {
	CreateTable(ctx context.Context, t *chalk.Table) error
	GetTable(ctx context.Context, id string) (*chalk.Table, error)
	TableIDByCode(ctx context.Context, code string) (string, error)
	UpdateTable(ctx context.Context, id string, fn func(*chalk.Table) error) (*chalk.Table, error)
	UpdateTableAndVenue(ctx context.Context, tableID, venueID string, fn func(*chalk.Table, *chalk.Venue) error) (*chalk.Table, *chalk.Venue, error)
	DeleteTable(ctx context.Context, t *chalk.Table) error
	PublishTable(ctx context.Context, t *chalk.Table) error
	ScheduleSweep(ctx context.Context, tableID string, at int64) error
	ClearSweep(ctx context.Context, tableID string) error

	CreateVenue(ctx context.Context, v *chalk.Venue) error
	GetVenue(ctx context.Context, id string) (*chalk.Venue, error)
	VenuesByOwner(ctx context.Context, ownerID string) ([]*chalk.Venue, error)
	UpdateVenue(ctx context.Context, id string, fn func(*chalk.Venue) error) (*chalk.Venue, error)
	DeleteVenue(ctx context.Context, id string) error

	AppendHistory(ctx context.Context, rec *chalk.GameHistoryRecord) error
	TableHistory(ctx context.Context, tableID string, limit int, before int64) ([]*chalk.GameHistoryRecord, error)
	UserHistory(ctx context.Context, uid string, limit int, before int64) ([]*chalk.GameHistoryRecord, error)
	EnsureUser(ctx context.Context, uid, displayName string) error
	ApplyLifetimeUpdates(ctx context.Context, updates []chalk.LifetimeUpdate, now int64) error
	UserLifetimeStats(ctx context.Context, uid string) (*chalk.LifetimeStats, error)
}

// Coordinator serializes commands against table documents.
type Coordinator struct {
	store      Store
	maxRetries int
	// clock returns ms since epoch; swapped out in tests.
	clock func() int64
}

// New builds a coordinator around a store.
func New(s Store, cfg *config.Config) *Coordinator {
	retries := cfg.TxnMaxRetries
	if retries <= 0 {
		retries = 5
	}
	return &Coordinator{
		store:      s,
		maxRetries: retries,
		clock:      func() int64 { return time.Now().UnixMilli() },
	}
}

// retryBackoff spaces optimistic-transaction retries; attempt is 1-based.
func retryBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 5 * time.Millisecond
}

// withRetry runs op until it commits, fails with a real error, or exhausts
// the retry budget on transaction conflicts.
func (c *Coordinator) withRetry(ctx context.Context, op func() error) error {
	var last error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff(attempt)):
			}
		}
		err := op()
		if errors.Is(err, store.ErrTxnConflict) {
			last = err
			continue
		}
		return err
	}
	return &Error{Kind: KindConflict, Err: fmt.Errorf("retry budget exhausted: %w", last)}
}

// updateTable is the optimistic read-transition-write cycle every table
// command goes through.
func (c *Coordinator) updateTable(ctx context.Context, id string, fn func(*chalk.Table) error) (*chalk.Table, error) {
	var out *chalk.Table
	err := c.withRetry(ctx, func() error {
		t, err := c.store.UpdateTable(ctx, id, fn)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// afterCommit runs the side effects of a committed table write. Failures
// here are logged and swallowed; the commit already happened.
func (c *Coordinator) afterCommit(ctx context.Context, t *chalk.Table, summary *chalk.GameSummary) {
	if err := c.store.PublishTable(ctx, t); err != nil {
		log.Printf("[COORD] publish for table %s failed: %v", t.ID, err)
	}
	c.rescheduleSweep(ctx, t)
	if summary == nil {
		return
	}
	if err := c.store.AppendHistory(ctx, summary.HistoryRecord()); err != nil {
		log.Printf("[COORD] history append for game %s failed: %v", summary.GameID, err)
	}
	if updates := chalk.LifetimeUpdatesFromSummary(summary); len(updates) > 0 {
		if err := c.store.ApplyLifetimeUpdates(ctx, updates, summary.EndedAt); err != nil {
			log.Printf("[COORD] lifetime batch for game %s failed: %v", summary.GameID, err)
		}
	}
}

// rescheduleSweep keeps the sweep ZSET pointing at the table's next timer
// deadline, or clears it when no deadline is pending.
func (c *Coordinator) rescheduleSweep(ctx context.Context, t *chalk.Table) {
	if at := t.NextDeadline(); at > 0 {
		if err := c.store.ScheduleSweep(ctx, t.ID, at); err != nil {
			log.Printf("[COORD] sweep schedule for table %s failed: %v", t.ID, err)
		}
		return
	}
	if err := c.store.ClearSweep(ctx, t.ID); err != nil {
		log.Printf("[COORD] sweep clear for table %s failed: %v", t.ID, err)
	}
}

// requirePIN is the shared guard on admin commands; it runs inside the
// transaction so a rotated PIN is never checked against a stale hash.
func requirePIN(t *chalk.Table, pin string) error {
	if !chalk.VerifyPIN(pin, t.Settings.PINHash) {
		return chalk.ErrPINMismatch
	}
	return nil
}
