package coordinator

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/chalkitup/backend/internal/chalk"
)

const maxVenueNameLength = 60

// CreateVenue opens a venue under an owner account.
func (c *Coordinator) CreateVenue(ctx context.Context, ownerID, ownerName, name string, logoURL *string) (*chalk.Venue, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxVenueNameLength {
		return nil, &Error{Kind: KindInvalidInput, Err: errors.New("venue name must be 1-60 characters")}
	}
	v := &chalk.Venue{
		ID:        chalk.NewID(),
		Name:      name,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		CreatedAt: c.clock(),
		TableIDs:  []string{},
		LogoURL:   logoURL,
	}
	if err := c.store.CreateVenue(ctx, v); err != nil {
		return nil, err
	}
	log.Printf("[COORD] created venue %s (%q) for owner %s", v.ID, v.Name, ownerID)
	return v, nil
}

// GetVenue reads a venue the calling owner controls.
func (c *Coordinator) GetVenue(ctx context.Context, venueID, ownerID string) (*chalk.Venue, error) {
	v, err := c.store.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != ownerID {
		return nil, errNotOwner
	}
	return v, nil
}

// OwnerVenues lists every venue under an owner account.
func (c *Coordinator) OwnerVenues(ctx context.Context, ownerID string) ([]*chalk.Venue, error) {
	return c.store.VenuesByOwner(ctx, ownerID)
}

// UpdateVenue renames a venue or swaps its logo.
func (c *Coordinator) UpdateVenue(ctx context.Context, venueID, ownerID string, name *string, logoURL *string) (*chalk.Venue, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" || len(trimmed) > maxVenueNameLength {
			return nil, &Error{Kind: KindInvalidInput, Err: errors.New("venue name must be 1-60 characters")}
		}
		name = &trimmed
	}
	var out *chalk.Venue
	err := c.withRetry(ctx, func() error {
		v, err := c.store.UpdateVenue(ctx, venueID, func(v *chalk.Venue) error {
			if v.OwnerID != ownerID {
				return errNotOwner
			}
			if name != nil {
				v.Name = *name
			}
			if logoURL != nil {
				v.LogoURL = logoURL
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteVenue removes an empty venue. A venue still holding tables refuses.
func (c *Coordinator) DeleteVenue(ctx context.Context, venueID, ownerID string) error {
	v, err := c.store.GetVenue(ctx, venueID)
	if err != nil {
		return err
	}
	if v.OwnerID != ownerID {
		return errNotOwner
	}
	if err := c.store.DeleteVenue(ctx, venueID); err != nil {
		return err
	}
	log.Printf("[COORD] deleted venue %s", venueID)
	return nil
}

// ClaimTable links a table to a venue by short code. The table PIN proves
// the claimer controls the table; a table claimed by another venue refuses.
// Both directions of the link land in one transaction.
func (c *Coordinator) ClaimTable(ctx context.Context, venueID, ownerID, shortCode, pin string) (*chalk.Table, error) {
	code := chalk.NormalizeShortCode(shortCode)
	if err := chalk.ValidateShortCode(code); err != nil {
		return nil, err
	}
	tableID, err := c.store.TableIDByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var out *chalk.Table
	err = c.withRetry(ctx, func() error {
		t, _, uerr := c.store.UpdateTableAndVenue(ctx, tableID, venueID, func(tbl *chalk.Table, v *chalk.Venue) error {
			if v.OwnerID != ownerID {
				return errNotOwner
			}
			if err := requirePIN(tbl, pin); err != nil {
				return err
			}
			if tbl.VenueID != nil && *tbl.VenueID != v.ID {
				return chalk.ErrTableAlreadyOwned
			}
			id := v.ID
			tbl.VenueID = &id
			tbl.VenueName = v.Name
			if !v.HasTable(tbl.ID) {
				v.TableIDs = append(v.TableIDs, tbl.ID)
			}
			return nil
		})
		if uerr != nil {
			return uerr
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[COORD] venue %s claimed table %s (%s)", venueID, out.ID, out.ShortCode)
	c.afterCommit(ctx, out, nil)
	return out, nil
}

// linkTable attaches a freshly created table to a venue, both directions in
// one transaction. Ownership and PIN were already settled by the caller.
func (c *Coordinator) linkTable(ctx context.Context, tableID, venueID string) (*chalk.Table, error) {
	var out *chalk.Table
	err := c.withRetry(ctx, func() error {
		t, _, uerr := c.store.UpdateTableAndVenue(ctx, tableID, venueID, func(tbl *chalk.Table, v *chalk.Venue) error {
			if tbl.VenueID != nil && *tbl.VenueID != v.ID {
				return chalk.ErrTableAlreadyOwned
			}
			id := v.ID
			tbl.VenueID = &id
			tbl.VenueName = v.Name
			if !v.HasTable(tbl.ID) {
				v.TableIDs = append(v.TableIDs, tbl.ID)
			}
			return nil
		})
		if uerr != nil {
			return uerr
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
