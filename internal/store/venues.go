package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/chalkitup/backend/internal/chalk"
)

// CreateVenue writes a venue document and indexes it under its owner. Venue
// documents carry no TTL: they live until explicitly deleted.
func (s *Store) CreateVenue(ctx context.Context, v *chalk.Venue) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode venue %s: %w", v.ID, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, venueKey(v.ID), data, 0)
		pipe.SAdd(ctx, ownerVenuesKey(v.OwnerID), v.ID)
		return nil
	})
	return err
}

// GetVenue reads one venue document.
func (s *Store) GetVenue(ctx context.Context, id string) (*chalk.Venue, error) {
	raw, err := s.rdb.Get(ctx, venueKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v chalk.Venue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode venue %s: %w", id, err)
	}
	return &v, nil
}

// VenuesByOwner lists the owner's venues via the owner index. Index entries
// whose documents have vanished are skipped.
func (s *Store) VenuesByOwner(ctx context.Context, ownerID string) ([]*chalk.Venue, error) {
	ids, err := s.rdb.SMembers(ctx, ownerVenuesKey(ownerID)).Result()
	if err != nil {
		return nil, err
	}
	venues := make([]*chalk.Venue, 0, len(ids))
	for _, id := range ids {
		v, err := s.GetVenue(ctx, id)
		if errors.Is(err, ErrNotFound) {
			log.Printf("[STORE] owner %s indexes missing venue %s", ownerID, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// UpdateVenue applies fn to a freshly read copy of the venue inside one
// optimistic transaction.
func (s *Store) UpdateVenue(ctx context.Context, id string, fn func(*chalk.Venue) error) (*chalk.Venue, error) {
	key := venueKey(id)
	var updated *chalk.Venue
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var v chalk.Venue
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode venue %s: %w", id, err)
		}
		if err := fn(&v); err != nil {
			return err
		}
		data, err := json.Marshal(&v)
		if err != nil {
			return fmt.Errorf("encode venue %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = &v
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

// DeleteVenue removes an empty venue and its owner index entry. A venue that
// still owns tables is refused inside the transaction, so a concurrent
// ClaimTable cannot slip a table into a venue being deleted.
func (s *Store) DeleteVenue(ctx context.Context, id string) error {
	key := venueKey(id)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var v chalk.Venue
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode venue %s: %w", id, err)
		}
		if len(v.TableIDs) > 0 {
			return chalk.ErrVenueNotEmpty
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, ownerVenuesKey(v.OwnerID), v.ID)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrTxnConflict
	}
	return err
}
