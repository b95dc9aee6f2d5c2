package coordinator

import (
	"context"
	"log"

	"github.com/chalkitup/backend/internal/chalk"
)

// StartNextGame seats the front of the queue according to its mode.
func (c *Coordinator) StartNextGame(ctx context.Context, tableID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.StartNextGame(now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// RegisterCurrentGame records a game that started on the felt without going
// through the queue.
func (c *Coordinator) RegisterCurrentGame(ctx context.Context, tableID string, holderNames, challengerNames []string, mode chalk.GameMode) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.RegisterCurrentGame(holderNames, challengerNames, mode, now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ReportResult ends the current game, rotates the queue, and feeds history
// and lifetime stats post-commit.
func (c *Coordinator) ReportResult(ctx context.Context, tableID string, winnerSide chalk.Side, winnerNames []string) (*chalk.Table, error) {
	now := c.clock()
	var summary *chalk.GameSummary
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		s, err := tbl.ProcessResult(winnerSide, winnerNames, now)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] game %s on table %s won by %v", summary.GameID, tableID, summary.WinnerNames)
	c.afterCommit(ctx, t, summary)
	return t, nil
}

// CancelGame abandons the current game with no stats recorded.
func (c *Coordinator) CancelGame(ctx context.Context, tableID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.CancelGame(now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// DismissNoShow confirms the called players showed up after all.
func (c *Coordinator) DismissNoShow(ctx context.Context, tableID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.DismissNoShow(now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ResolveNoShows forfeits the listed entries and reopens the table.
func (c *Coordinator) ResolveNoShows(ctx context.Context, tableID string, entryIDs []string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.ResolveNoShows(entryIDs, now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// StartKiller opens a killer game for the named players directly.
func (c *Coordinator) StartKiller(ctx context.Context, tableID string, names []string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.StartKillerDirect(names, now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// EliminateKillerPlayer docks one life; at zero the player is out and the
// round advances.
func (c *Coordinator) EliminateKillerPlayer(ctx context.Context, tableID, playerName string) (*chalk.Table, error) {
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.EliminateKillerPlayer(playerName)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// FinishKillerGame declares the killer winner and re-seats them at the front
// of the queue.
func (c *Coordinator) FinishKillerGame(ctx context.Context, tableID, winnerName string) (*chalk.Table, error) {
	now := c.clock()
	var summary *chalk.GameSummary
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		s, err := tbl.FinishKillerGame(winnerName, now)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] killer %s on table %s won by %s", summary.GameID, tableID, winnerName)
	c.afterCommit(ctx, t, summary)
	return t, nil
}

// StartTournament opens a bracketed tournament on the table.
func (c *Coordinator) StartTournament(ctx context.Context, tableID, name string, format chalk.TournamentFormat, players []string, raceTo int, userIDs map[string]string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		return tbl.StartTournament(name, format, players, raceTo, userIDs, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] tournament %q started on table %s (%d players)", name, tableID, len(players))
	c.afterCommit(ctx, t, nil)
	return t, nil
}

// ReportTournamentMatch records a whole match scoreline. A deciding match
// closes the tournament and lands in history like any other game.
func (c *Coordinator) ReportTournamentMatch(ctx context.Context, tableID, matchID, winnerName string, winnerFrames, loserFrames int) (*chalk.Table, error) {
	now := c.clock()
	var summary *chalk.GameSummary
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		s, err := tbl.ReportTournamentMatch(matchID, winnerName, winnerFrames, loserFrames, now)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	if summary != nil {
		log.Printf("[COORD] tournament %s on table %s won by %v", summary.GameID, tableID, summary.WinnerNames)
	}
	c.afterCommit(ctx, t, summary)
	return t, nil
}

// CancelTournament abandons a running tournament; mid-bracket results are
// discarded without touching stats.
func (c *Coordinator) CancelTournament(ctx context.Context, tableID string) (*chalk.Table, error) {
	now := c.clock()
	t, err := c.updateTable(ctx, tableID, func(tbl *chalk.Table) error {
		g := tbl.CurrentGame
		if g == nil {
			return chalk.ErrNoActiveGame
		}
		if g.Mode != chalk.ModeTournament {
			return chalk.ErrNotTournamentGame
		}
		return tbl.CancelGame(now)
	})
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, t, nil)
	return t, nil
}
