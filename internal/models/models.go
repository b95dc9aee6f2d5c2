package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// OwnerAccount represents a venue owner login
type OwnerAccount struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// User represents a linked player account with lifetime statistics
type User struct {
	UID           string          `db:"uid" json:"uid"`
	DisplayName   string          `db:"display_name" json:"display_name"`
	LifetimeStats json.RawMessage `db:"lifetime_stats" json:"lifetime_stats"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// GameHistoryRow is the game_history table row. The queryable outcome fields
// are broken out into columns; detail carries the full record (players,
// killer and tournament snapshots) as JSON.
type GameHistoryRow struct {
	ID               string         `db:"id"`
	TableID          string         `db:"table_id"`
	VenueName        string         `db:"venue_name"`
	Mode             string         `db:"mode"`
	WinnerNames      pq.StringArray `db:"winner_names"`
	LoserNames       pq.StringArray `db:"loser_names"`
	PlayerNames      pq.StringArray `db:"player_names"`
	PlayerUIDs       pq.StringArray `db:"player_uids"`
	WinnerSide       string         `db:"winner_side"`
	ConsecutiveWins  int            `db:"consecutive_wins"`
	WinLimitRotation bool           `db:"win_limit_rotation"`
	Detail           []byte         `db:"detail"`
	StartedAt        int64          `db:"started_at"`
	EndedAt          int64          `db:"ended_at"`
	CreatedAt        time.Time      `db:"created_at"`
}
