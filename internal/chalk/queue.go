package chalk

import (
	"github.com/thoas/go-funk"
)

// AddToQueue appends a new party to the queue and refreshes the recent-name
// ring. Name comparison is exact; callers normalize whitespace before
// submitting.
func (t *Table) AddToQueue(names []string, mode GameMode, userIDs map[string]string, now int64) (*QueueEntry, error) {
	if len(t.Queue) >= MaxQueueSize {
		return nil, ErrQueueFull
	}
	switch mode {
	case ModeSingles, ModeKiller, ModeChallenge:
		if len(names) != 1 {
			return nil, ErrInvalidPlayerNames
		}
	case ModeDoubles:
		if len(names) != 2 {
			return nil, ErrInvalidDoublesComposition
		}
	default:
		return nil, ErrInvalidGameMode
	}
	for _, n := range names {
		if n == "" || len(n) > MaxNameLength {
			return nil, ErrInvalidPlayerNames
		}
	}
	active := t.ActiveNames()
	for _, n := range names {
		if funk.ContainsString(active, n) {
			return nil, ErrDuplicatePlayer
		}
	}
	if t.Session.IsPrivate {
		for _, n := range names {
			if !funk.ContainsString(t.Session.PrivatePlayerNames, n) {
				return nil, ErrPrivateSessionForbidden
			}
		}
	}

	entry := QueueEntry{
		ID:          NewID(),
		PlayerNames: append([]string(nil), names...),
		JoinedAt:    now,
		Status:      EntryWaiting,
		GameMode:    mode,
	}
	if len(userIDs) > 0 {
		entry.UserIDs = make(map[string]string, len(userIDs))
		for _, n := range names {
			if uid, ok := userIDs[n]; ok && uid != "" {
				entry.UserIDs[n] = uid
			}
		}
	}
	t.Queue = append(t.Queue, entry)
	t.pushRecentNames(names)
	t.RefreshStatus(now)
	return &t.Queue[len(t.Queue)-1], nil
}

// RemoveFromQueue drops an entry by id. Removing an absent entry is a no-op,
// so repeated taps on a phone are harmless.
func (t *Table) RemoveFromQueue(entryID string) bool {
	i := t.entryIndex(entryID)
	if i < 0 {
		return false
	}
	t.Queue = append(t.Queue[:i], t.Queue[i+1:]...)
	return true
}

// ReorderQueue splice-moves an entry to the target index, clamped to the
// queue bounds. Unknown ids are ignored.
func (t *Table) ReorderQueue(entryID string, newIndex int) {
	i := t.entryIndex(entryID)
	if i < 0 {
		return
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(t.Queue)-1 {
		newIndex = len(t.Queue) - 1
	}
	if newIndex == i {
		return
	}
	entry := t.Queue[i]
	rest := append(t.Queue[:i], t.Queue[i+1:]...)
	t.Queue = append(rest[:newIndex], append([]QueueEntry{entry}, rest[newIndex:]...)...)
}

// HoldPosition parks a waiting entry without losing its slot. Holding an
// already held entry does not extend the deadline; holding a called entry
// is rejected because its party is due at the table.
func (t *Table) HoldPosition(entryID string, now int64) error {
	e := t.Entry(entryID)
	if e == nil {
		return nil
	}
	switch e.Status {
	case EntryOnHold:
		return nil
	case EntryWaiting, EntryNoShowWarning:
		until := now + int64(t.Settings.HoldMaxMinutes)*60_000
		e.Status = EntryOnHold
		e.HoldUntil = &until
		e.NoShowDeadline = nil
		return nil
	default:
		return ErrEntryNotWaiting
	}
}

// UnholdPosition returns a held entry to waiting. Entries in any other
// state are left untouched.
func (t *Table) UnholdPosition(entryID string) {
	e := t.Entry(entryID)
	if e == nil || e.Status != EntryOnHold {
		return
	}
	e.Status = EntryWaiting
	e.HoldUntil = nil
}

// ExpireHeldEntries removes held entries whose hold window has lapsed and
// returns them for logging.
func (t *Table) ExpireHeldEntries(now int64) []QueueEntry {
	var expired []QueueEntry
	kept := t.Queue[:0]
	for _, e := range t.Queue {
		if e.Status == EntryOnHold && e.HoldUntil != nil && *e.HoldUntil < now {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	t.Queue = kept
	return expired
}

// MoveToBack sends an entry to the end of the queue as a fresh waiter.
func (t *Table) MoveToBack(entryID string) {
	i := t.entryIndex(entryID)
	if i < 0 {
		return
	}
	entry := t.Queue[i]
	entry.Status = EntryWaiting
	entry.HoldUntil = nil
	entry.NoShowDeadline = nil
	t.Queue = append(append(t.Queue[:i], t.Queue[i+1:]...), entry)
}

// ClaimQueueSpot binds an account id to a name on an entry, typically after
// a QR scan, so the game feeds that user's lifetime stats.
func (t *Table) ClaimQueueSpot(entryID, playerName, userID string) error {
	e := t.Entry(entryID)
	if e == nil {
		return ErrEntryNotFound
	}
	if !e.HasName(playerName) {
		return ErrNameNotOnEntry
	}
	if userID == "" {
		return ErrInvalidPlayerNames
	}
	if e.UserIDs == nil {
		e.UserIDs = map[string]string{}
	}
	e.UserIDs[playerName] = userID
	return nil
}

// FlagNoShowWarnings flips called entries past their no-show deadline into
// the warning state so every device renders the same prompt. Returns the
// flagged entry ids.
func (t *Table) FlagNoShowWarnings(now int64) []string {
	var flagged []string
	for i := range t.Queue {
		e := &t.Queue[i]
		if e.Status == EntryCalled && e.NoShowDeadline != nil && *e.NoShowDeadline < now {
			e.Status = EntryNoShowWarning
			e.NoShowDeadline = nil
			flagged = append(flagged, e.ID)
		}
	}
	return flagged
}

// pushRecentNames prepends names to the recent ring, deduplicates keeping
// the newest position, and truncates to the cap.
func (t *Table) pushRecentNames(names []string) {
	merged := append(append([]string(nil), names...), t.RecentNames...)
	seen := make(map[string]bool, len(merged))
	out := merged[:0]
	for _, n := range merged {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) > MaxRecentNames {
		out = out[:MaxRecentNames]
	}
	t.RecentNames = out
}
