// Package store is the persistence adapter for the table session engine.
// Live table and venue documents are JSON values in Redis, mutated only
// through optimistic WATCH/MULTI transactions; finished games and lifetime
// player statistics live in Postgres. The store performs single attempts:
// retry policy belongs to the coordinator.
package store

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when a table, venue, code, or user is absent.
	ErrNotFound = errors.New("store: not found")
	// ErrCodeTaken is returned when a short code is already indexed.
	ErrCodeTaken = errors.New("store: short code taken")
	// ErrTxnConflict is returned when a watched key changed mid-transaction.
	ErrTxnConflict = errors.New("store: transaction conflict")
)

const (
	tableKeyPrefix    = "table:"
	codeKeyPrefix     = "table_code:"
	venueKeyPrefix    = "venue:"
	ownerVenuesPrefix = "owner_venues:"
	updatesPrefix     = "table_updates:"

	sweepDeadlinesKey = "chalk:sweep_deadlines"
)

func tableKey(id string) string       { return tableKeyPrefix + id }
func codeKey(code string) string      { return codeKeyPrefix + code }
func venueKey(id string) string       { return venueKeyPrefix + id }
func ownerVenuesKey(id string) string { return ownerVenuesPrefix + id }
func updatesChannel(id string) string { return updatesPrefix + id }

// Store binds the Redis document side and the Postgres history side behind
// one value. Both clients are shared with the rest of the process.
type Store struct {
	rdb      *redis.Client
	db       *sqlx.DB
	tableTTL time.Duration
}

// New builds a store. tableTTLHours bounds how long an untouched table
// document (and its short-code index entry) survives in Redis.
func New(rdb *redis.Client, db *sqlx.DB, tableTTLHours int) *Store {
	if tableTTLHours <= 0 {
		tableTTLHours = 48
	}
	return &Store{
		rdb:      rdb,
		db:       db,
		tableTTL: time.Duration(tableTTLHours) * time.Hour,
	}
}
