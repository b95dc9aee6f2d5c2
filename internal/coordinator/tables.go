package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/store"
)

// createCodeAttempts bounds short-code regeneration when a fresh code loses
// the uniqueness race.
const createCodeAttempts = 5

// CreateTable allocates a table with a unique short code. With a venueID the
// venue is verified first and the new table is linked both ways.
func (c *Coordinator) CreateTable(ctx context.Context, name, pin, venueName, venueID string) (*chalk.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > chalk.MaxNameLength {
		return nil, &Error{Kind: KindInvalidInput, Err: errors.New("table name must be 1-30 characters")}
	}
	if err := chalk.ValidatePIN(pin); err != nil {
		return nil, err
	}

	var venue *chalk.Venue
	if venueID != "" {
		v, err := c.store.GetVenue(ctx, venueID)
		if err != nil {
			return nil, err
		}
		venue = v
		venueName = v.Name
	}

	now := c.clock()
	var created *chalk.Table
	err := func() error {
		var last error
		for attempt := 0; attempt < createCodeAttempts; attempt++ {
			code, err := chalk.GenerateShortCode()
			if err != nil {
				return err
			}
			t := chalk.NewTable(chalk.NewID(), code, name, venueName, chalk.HashPIN(pin), now)
			err = c.store.CreateTable(ctx, t)
			if err == nil {
				created = t
				return nil
			}
			if errors.Is(err, store.ErrCodeTaken) || errors.Is(err, store.ErrTxnConflict) {
				last = err
				continue
			}
			return err
		}
		return &Error{Kind: KindConflict, Err: fmt.Errorf("no free short code after %d attempts: %w", createCodeAttempts, last)}
	}()
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] created table %s (%s)", created.ID, created.ShortCode)

	if venue != nil {
		linked, err := c.linkTable(ctx, created.ID, venue.ID)
		if err != nil {
			log.Printf("[COORD] venue link for new table %s failed: %v", created.ID, err)
			return nil, err
		}
		created = linked
	}
	c.afterCommit(ctx, created, nil)
	return created, nil
}

// GetTable reads the current table document.
func (c *Coordinator) GetTable(ctx context.Context, id string) (*chalk.Table, error) {
	return c.store.GetTable(ctx, id)
}

// GetTableByShortCode resolves a hand-typed code to its table.
func (c *Coordinator) GetTableByShortCode(ctx context.Context, code string) (*chalk.Table, error) {
	code = chalk.NormalizeShortCode(code)
	if err := chalk.ValidateShortCode(code); err != nil {
		return nil, err
	}
	id, err := c.store.TableIDByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.store.GetTable(ctx, id)
}

// DeleteTable removes a table and its code index. The PIN gates it and a
// live game blocks it; a venue link is detached on the way out.
func (c *Coordinator) DeleteTable(ctx context.Context, id, pin string) error {
	t, err := c.store.GetTable(ctx, id)
	if err != nil {
		return err
	}
	if err := requirePIN(t, pin); err != nil {
		return err
	}
	if t.CurrentGame != nil {
		return chalk.ErrGameInProgress
	}
	if t.VenueID != nil {
		venueID := *t.VenueID
		err := c.withRetry(ctx, func() error {
			_, uerr := c.store.UpdateVenue(ctx, venueID, func(v *chalk.Venue) error {
				v.RemoveTable(id)
				return nil
			})
			return uerr
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("[COORD] venue detach for table %s failed: %v", id, err)
		}
	}
	if err := c.store.DeleteTable(ctx, t); err != nil {
		return err
	}
	log.Printf("[COORD] deleted table %s (%s)", t.ID, t.ShortCode)
	return nil
}

// UpdateSettings applies a partial settings change under the admin PIN.
func (c *Coordinator) UpdateSettings(ctx context.Context, id, pin string, update chalk.SettingsUpdate) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, id, func(tbl *chalk.Table) error {
		if err := requirePIN(tbl, pin); err != nil {
			return err
		}
		return tbl.ApplySettingsUpdate(update)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ResetTable starts a fresh session: queue, game, stats, and privacy wiped.
func (c *Coordinator) ResetTable(ctx context.Context, id, pin string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, id, func(tbl *chalk.Table) error {
		if err := requirePIN(tbl, pin); err != nil {
			return err
		}
		tbl.ResetSession(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] reset session on table %s", id)
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// TogglePrivateMode gates the queue to an allow list, or reopens it.
func (c *Coordinator) TogglePrivateMode(ctx context.Context, id, pin string, enabled bool, allowedNames []string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, id, func(tbl *chalk.Table) error {
		if err := requirePIN(tbl, pin); err != nil {
			return err
		}
		tbl.SetPrivateMode(enabled, allowedNames, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// errSweepClean aborts a sweep transaction when no deadline has lapsed, so a
// quiet table costs no version bump.
var errSweepClean = errors.New("coordinator: nothing to sweep")

// SweepTable applies lapsed hold and no-show deadlines. The sweeper calls it
// with ids claimed from the deadline index; a table whose timers have not
// actually lapsed commits nothing but gets its next deadline rescheduled.
func (c *Coordinator) SweepTable(ctx context.Context, id string) error {
	now := c.clock()
	var expired []chalk.QueueEntry
	var flagged []string
	t, err := c.updateTable(ctx, id, func(tbl *chalk.Table) error {
		expired = tbl.ExpireHeldEntries(now)
		flagged = tbl.FlagNoShowWarnings(now)
		if len(expired) == 0 && len(flagged) == 0 {
			return errSweepClean
		}
		tbl.RefreshStatus(now)
		return nil
	})
	if errors.Is(err, errSweepClean) {
		if t2, gerr := c.store.GetTable(ctx, id); gerr == nil {
			c.rescheduleSweep(ctx, t2)
		}
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		// The table document expired; its deadline entry was stale.
		return nil
	}
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		log.Printf("[COORD] sweep expired %d held entries on table %s", len(expired), id)
	}
	if len(flagged) > 0 {
		log.Printf("[COORD] sweep flagged no-shows on table %s: %v", id, flagged)
	}
	c.afterCommit(ctx, t, nil)
	return nil
}

// Leaderboard ranks the current session's players.
func (c *Coordinator) Leaderboard(ctx context.Context, id string) ([]chalk.LeaderboardRow, error) {
	t, err := c.store.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Leaderboard(), nil
}

// normalizeHistoryPage clamps pagination to sane bounds.
func normalizeHistoryPage(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}

// TableHistory pages a table's completed games, newest first.
func (c *Coordinator) TableHistory(ctx context.Context, tableID string, limit int, before int64) ([]*chalk.GameHistoryRecord, error) {
	return c.store.TableHistory(ctx, tableID, normalizeHistoryPage(limit), before)
}

// UserHistory pages a linked user's completed games across tables.
func (c *Coordinator) UserHistory(ctx context.Context, uid string, limit int, before int64) ([]*chalk.GameHistoryRecord, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, &Error{Kind: KindInvalidInput, Err: errors.New("user id required")}
	}
	return c.store.UserHistory(ctx, uid, normalizeHistoryPage(limit), before)
}

// UserLifetimeStats reads a user's lifetime aggregate.
func (c *Coordinator) UserLifetimeStats(ctx context.Context, uid string) (*chalk.LifetimeStats, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, &Error{Kind: KindInvalidInput, Err: errors.New("user id required")}
	}
	return c.store.UserLifetimeStats(ctx, uid)
}
