package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/chalkitup/backend/internal/chalk"
)

// CreateTable writes a fresh table document and its short-code index entry.
// The code key is watched so two concurrent creates racing for the same code
// cannot both win; the loser surfaces ErrCodeTaken or ErrTxnConflict and the
// coordinator regenerates.
func (s *Store) CreateTable(ctx context.Context, t *chalk.Table) error {
	t.Ver = 1
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", t.ID, err)
	}
	ck := codeKey(t.ShortCode)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, ck).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrCodeTaken
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ck, t.ID, s.tableTTL)
			pipe.Set(ctx, tableKey(t.ID), data, s.tableTTL)
			return nil
		})
		return err
	}, ck)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrTxnConflict
	}
	return err
}

// GetTable reads one table document.
func (s *Store) GetTable(ctx context.Context, id string) (*chalk.Table, error) {
	raw, err := s.rdb.Get(ctx, tableKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t chalk.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode table %s: %w", id, err)
	}
	return &t, nil
}

// TableIDByCode resolves a short code to a table id.
func (s *Store) TableIDByCode(ctx context.Context, code string) (string, error) {
	id, err := s.rdb.Get(ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return id, err
}

// UpdateTable applies fn to a freshly read copy of the table inside one
// optimistic transaction and writes the result back with a bumped version.
// A concurrent write to the same table fails the attempt with ErrTxnConflict;
// an error from fn aborts without writing. The committed document is
// returned.
func (s *Store) UpdateTable(ctx context.Context, id string, fn func(*chalk.Table) error) (*chalk.Table, error) {
	key := tableKey(id)
	var updated *chalk.Table
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var t chalk.Table
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("decode table %s: %w", id, err)
		}
		if err := fn(&t); err != nil {
			return err
		}
		t.Ver++
		data, err := json.Marshal(&t)
		if err != nil {
			return fmt.Errorf("encode table %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.tableTTL)
			pipe.Expire(ctx, codeKey(t.ShortCode), s.tableTTL)
			return nil
		})
		if err == nil {
			updated = &t
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrTxnConflict
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTableAndVenue runs fn against a table and a venue in one transaction
// watching both keys, for operations that must move the two documents
// together (claiming and releasing tables).
func (s *Store) UpdateTableAndVenue(ctx context.Context, tableID, venueID string, fn func(*chalk.Table, *chalk.Venue) error) (*chalk.Table, *chalk.Venue, error) {
	tk, vk := tableKey(tableID), venueKey(venueID)
	var table *chalk.Table
	var venue *chalk.Venue
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rawT, err := tx.Get(ctx, tk).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		rawV, err := tx.Get(ctx, vk).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var t chalk.Table
		var v chalk.Venue
		if err := json.Unmarshal(rawT, &t); err != nil {
			return fmt.Errorf("decode table %s: %w", tableID, err)
		}
		if err := json.Unmarshal(rawV, &v); err != nil {
			return fmt.Errorf("decode venue %s: %w", venueID, err)
		}
		if err := fn(&t, &v); err != nil {
			return err
		}
		t.Ver++
		dataT, err := json.Marshal(&t)
		if err != nil {
			return fmt.Errorf("encode table %s: %w", tableID, err)
		}
		dataV, err := json.Marshal(&v)
		if err != nil {
			return fmt.Errorf("encode venue %s: %w", venueID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tk, dataT, s.tableTTL)
			pipe.Expire(ctx, codeKey(t.ShortCode), s.tableTTL)
			pipe.Set(ctx, vk, dataV, 0)
			return nil
		})
		if err == nil {
			table, venue = &t, &v
		}
		return err
	}, tk, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, nil, ErrTxnConflict
	}
	if err != nil {
		return nil, nil, err
	}
	return table, venue, nil
}

// DeleteTable removes the table document, its code index entry, and any
// pending sweep deadline. The table key is watched so a delete racing a
// mutation loses cleanly.
func (s *Store) DeleteTable(ctx context.Context, t *chalk.Table) error {
	key := tableKey(t.ID)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.Del(ctx, codeKey(t.ShortCode))
			pipe.ZRem(ctx, sweepDeadlinesKey, t.ID)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrTxnConflict
	}
	return err
}

// PublishTable pushes the committed document to the table's update channel.
func (s *Store) PublishTable(ctx context.Context, t *chalk.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", t.ID, err)
	}
	return s.rdb.Publish(ctx, updatesChannel(t.ID), data).Err()
}

// TableSubscription streams committed table documents for one table.
type TableSubscription struct {
	pubsub *redis.PubSub
	ch     chan *chalk.Table
}

// Updates yields every committed document in order. The channel closes when
// the subscription is closed or the connection drops.
func (sub *TableSubscription) Updates() <-chan *chalk.Table { return sub.ch }

// Close tears the subscription down.
func (sub *TableSubscription) Close() error { return sub.pubsub.Close() }

// SubscribeTable opens a pub/sub subscription on the table's update channel.
func (s *Store) SubscribeTable(ctx context.Context, id string) *TableSubscription {
	pubsub := s.rdb.Subscribe(ctx, updatesChannel(id))
	sub := &TableSubscription{pubsub: pubsub, ch: make(chan *chalk.Table, 16)}
	go func() {
		defer close(sub.ch)
		for msg := range pubsub.Channel() {
			var t chalk.Table
			if err := json.Unmarshal([]byte(msg.Payload), &t); err != nil {
				log.Printf("[STORE] bad table update payload on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case sub.ch <- &t:
			default:
				// Reader lagging: shed the stale snapshot, keep the latest.
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- &t:
				default:
				}
			}
		}
	}()
	return sub
}

// ScheduleSweep records that the table needs a sweep pass at the given time,
// replacing any earlier deadline.
func (s *Store) ScheduleSweep(ctx context.Context, tableID string, at int64) error {
	return s.rdb.ZAdd(ctx, sweepDeadlinesKey, redis.Z{Score: float64(at), Member: tableID}).Err()
}

// ClearSweep drops the table's pending sweep deadline, if any.
func (s *Store) ClearSweep(ctx context.Context, tableID string) error {
	return s.rdb.ZRem(ctx, sweepDeadlinesKey, tableID).Err()
}

// DueSweeps claims table ids whose sweep deadline has passed. Each id is
// removed from the set as it is claimed, so concurrent sweepers never hand
// out the same table twice.
func (s *Store) DueSweeps(ctx context.Context, now int64, limit int64) ([]string, error) {
	members, err := s.rdb.ZRangeByScore(ctx, sweepDeadlinesKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	var claimed []string
	for _, m := range members {
		// Attempt to remove (race-safe)
		if removed, _ := s.rdb.ZRem(ctx, sweepDeadlinesKey, m).Result(); removed > 0 {
			claimed = append(claimed, m)
		}
	}
	return claimed, nil
}
