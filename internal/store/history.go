package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/lib/pq"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/models"
)

const historyColumns = `id, table_id, venue_name, mode, winner_names, loser_names,
	player_names, player_uids, winner_side, consecutive_wins, win_limit_rotation,
	detail, started_at, ended_at, created_at`

// AppendHistory writes one finished game to the append-only log. Outcome
// fields are broken out into columns for querying; the full record rides in
// the detail JSON column.
func (s *Store) AppendHistory(ctx context.Context, rec *chalk.GameHistoryRecord) error {
	row, err := historyRow(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO game_history
		(id, table_id, venue_name, mode, winner_names, loser_names, player_names,
		 player_uids, winner_side, consecutive_wins, win_limit_rotation, detail,
		 started_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		row.ID, row.TableID, row.VenueName, row.Mode,
		row.WinnerNames, row.LoserNames, row.PlayerNames, row.PlayerUIDs,
		row.WinnerSide, row.ConsecutiveWins, row.WinLimitRotation, string(row.Detail),
		row.StartedAt, row.EndedAt)
	if err != nil {
		return fmt.Errorf("append history %s: %w", rec.ID, err)
	}
	return nil
}

// TableHistory pages a table's finished games, most recent first. A zero
// before cursor starts at the newest record.
func (s *Store) TableHistory(ctx context.Context, tableID string, limit int, before int64) ([]*chalk.GameHistoryRecord, error) {
	if before <= 0 {
		before = math.MaxInt64
	}
	var rows []models.GameHistoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+historyColumns+`
		FROM game_history WHERE table_id=$1 AND ended_at < $2
		ORDER BY ended_at DESC LIMIT $3`, tableID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("table history %s: %w", tableID, err)
	}
	return recordsFromRows(rows), nil
}

// UserHistory pages every game a linked account took part in, most recent
// first, via the GIN index on player_uids.
func (s *Store) UserHistory(ctx context.Context, uid string, limit int, before int64) ([]*chalk.GameHistoryRecord, error) {
	if before <= 0 {
		before = math.MaxInt64
	}
	var rows []models.GameHistoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+historyColumns+`
		FROM game_history WHERE player_uids @> $1 AND ended_at < $2
		ORDER BY ended_at DESC LIMIT $3`, pq.Array([]string{uid}), before, limit)
	if err != nil {
		return nil, fmt.Errorf("user history %s: %w", uid, err)
	}
	return recordsFromRows(rows), nil
}

// EnsureUser creates the user row a claimed queue spot points at, so the
// next lifetime-stats batch has somewhere to land. Existing rows are left
// untouched.
func (s *Store) EnsureUser(ctx context.Context, uid, displayName string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (uid, display_name)
		VALUES ($1,$2) ON CONFLICT (uid) DO NOTHING`, uid, displayName)
	return err
}

// ApplyLifetimeUpdates folds one game's outcomes into the affected users'
// lifetime records in a single transaction. Each row is locked FOR UPDATE;
// updates for unknown uids are skipped, not failed, so one stale link cannot
// block the batch.
func (s *Store) ApplyLifetimeUpdates(ctx context.Context, updates []chalk.LifetimeUpdate, now int64) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range updates {
		var raw []byte
		err := tx.QueryRowxContext(ctx,
			`SELECT lifetime_stats FROM users WHERE uid=$1 FOR UPDATE`, u.UID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[STORE] lifetime update skipped: unknown user %s", u.UID)
			continue
		}
		if err != nil {
			return fmt.Errorf("lock user %s: %w", u.UID, err)
		}
		var stats chalk.LifetimeStats
		if len(raw) > 0 && string(raw) != "{}" {
			if err := json.Unmarshal(raw, &stats); err != nil {
				log.Printf("[STORE] resetting corrupt lifetime stats for user %s: %v", u.UID, err)
				stats = chalk.LifetimeStats{}
			}
		}
		chalk.ApplyLifetimeResult(&stats, u.Mode, u.Won, now)
		data, err := json.Marshal(&stats)
		if err != nil {
			return fmt.Errorf("encode lifetime stats %s: %w", u.UID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET lifetime_stats=$1, updated_at=NOW() WHERE uid=$2`, string(data), u.UID); err != nil {
			return fmt.Errorf("update lifetime stats %s: %w", u.UID, err)
		}
	}
	return tx.Commit()
}

// UserLifetimeStats reads one user's lifetime record.
func (s *Store) UserLifetimeStats(ctx context.Context, uid string) (*chalk.LifetimeStats, error) {
	var raw []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT lifetime_stats FROM users WHERE uid=$1`, uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var stats chalk.LifetimeStats
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stats); err != nil {
			return nil, fmt.Errorf("decode lifetime stats %s: %w", uid, err)
		}
	}
	return &stats, nil
}

// historyRow flattens a record into its table row.
func historyRow(rec *chalk.GameHistoryRecord) (*models.GameHistoryRow, error) {
	detail, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode history %s: %w", rec.ID, err)
	}
	winners := map[string]bool{}
	for _, n := range rec.Winner {
		winners[n] = true
	}
	// Array columns are NOT NULL; nil slices would insert as SQL NULL.
	playerNames := make([]string, 0, len(rec.Players))
	loserNames := []string{}
	for _, p := range rec.Players {
		playerNames = append(playerNames, p.Name)
		if !winners[p.Name] {
			loserNames = append(loserNames, p.Name)
		}
	}
	winnerNames := rec.Winner
	if winnerNames == nil {
		winnerNames = []string{}
	}
	uidList := rec.PlayerUIDList
	if uidList == nil {
		uidList = []string{}
	}
	return &models.GameHistoryRow{
		ID:               rec.ID,
		TableID:          rec.TableID,
		VenueName:        rec.VenueName,
		Mode:             string(rec.Mode),
		WinnerNames:      winnerNames,
		LoserNames:       loserNames,
		PlayerNames:      playerNames,
		PlayerUIDs:       uidList,
		WinnerSide:       string(rec.WinnerSide),
		ConsecutiveWins:  rec.ConsecutiveWins,
		WinLimitRotation: rec.WinLimitRotated,
		Detail:           detail,
		StartedAt:        rec.StartedAt,
		EndedAt:          rec.EndedAt,
	}, nil
}

// recordFromRow restores the full record from the detail column, falling
// back to the flat columns for rows written before detail existed.
func recordFromRow(row *models.GameHistoryRow) *chalk.GameHistoryRecord {
	if len(row.Detail) > 0 {
		var rec chalk.GameHistoryRecord
		if err := json.Unmarshal(row.Detail, &rec); err == nil {
			return &rec
		}
		log.Printf("[STORE] corrupt history detail for %s, serving columns only", row.ID)
	}
	return &chalk.GameHistoryRecord{
		ID:              row.ID,
		TableID:         row.TableID,
		VenueName:       row.VenueName,
		Mode:            chalk.GameMode(row.Mode),
		Winner:          row.WinnerNames,
		WinnerSide:      chalk.Side(row.WinnerSide),
		StartedAt:       row.StartedAt,
		EndedAt:         row.EndedAt,
		Duration:        row.EndedAt - row.StartedAt,
		ConsecutiveWins: row.ConsecutiveWins,
		WinLimitRotated: row.WinLimitRotation,
		PlayerUIDList:   row.PlayerUIDs,
	}
}

func recordsFromRows(rows []models.GameHistoryRow) []*chalk.GameHistoryRecord {
	out := make([]*chalk.GameHistoryRecord, 0, len(rows))
	for i := range rows {
		out = append(out, recordFromRow(&rows[i]))
	}
	return out
}
