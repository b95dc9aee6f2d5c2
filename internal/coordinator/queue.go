package coordinator

import (
	"context"
	"log"

	"github.com/chalkitup/backend/internal/chalk"
)

// AddToQueue appends a party (one player, or a doubles pair) to the queue.
func (c *Coordinator) AddToQueue(ctx context.Context, tableID string, names []string, mode chalk.GameMode, userIDs map[string]string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		_, err := tbl.AddToQueue(names, mode, userIDs, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// RemoveFromQueue drops an entry. Removing an id that is already gone is
// fine; the delete is idempotent.
func (c *Coordinator) RemoveFromQueue(ctx context.Context, tableID, entryID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		tbl.RemoveFromQueue(entryID)
		tbl.RefreshStatus(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ReorderQueue moves an entry to a new position, clamped to the queue ends.
func (c *Coordinator) ReorderQueue(ctx context.Context, tableID, entryID string, position int) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		if tbl.Entry(entryID) == nil {
			return chalk.ErrEntryNotFound
		}
		tbl.ReorderQueue(entryID, position)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// HoldPosition parks a waiting entry so the players can step away without
// losing their spot.
func (c *Coordinator) HoldPosition(ctx context.Context, tableID, entryID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		if tbl.Entry(entryID) == nil {
			return chalk.ErrEntryNotFound
		}
		return tbl.HoldPosition(entryID, now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// UnholdPosition returns a held entry to waiting.
func (c *Coordinator) UnholdPosition(ctx context.Context, tableID, entryID string) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		if tbl.Entry(entryID) == nil {
			return chalk.ErrEntryNotFound
		}
		tbl.UnholdPosition(entryID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// MoveToBack sends an entry to the end of the queue.
func (c *Coordinator) MoveToBack(ctx context.Context, tableID, entryID string) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		if tbl.Entry(entryID) == nil {
			return chalk.ErrEntryNotFound
		}
		tbl.MoveToBack(entryID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ClaimQueueSpot binds a user account to a name on an entry, creating the
// user row on first sight so lifetime stats have somewhere to land.
func (c *Coordinator) ClaimQueueSpot(ctx context.Context, tableID, entryID, playerName, userID string) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.ClaimQueueSpot(entryID, playerName, userID)
	})
	if err != nil {
		return nil, err
	}
	if err := c.store.EnsureUser(ctx, userID, playerName); err != nil {
		log.Printf("[COORD] user upsert for %s failed: %v", userID, err)
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}
