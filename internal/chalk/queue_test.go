package chalk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000_000)

func testTable() *Table {
	return NewTable("tbl-1", "CHALK-TEST", "Main Table", "The Cue Club", HashPIN("1234"), t0)
}

// requireDeadlineInvariant asserts hold and no-show deadlines are set when
// and only when the matching status applies.
func requireDeadlineInvariant(t *testing.T, tbl *Table) {
	t.Helper()
	for _, e := range tbl.Queue {
		switch e.Status {
		case EntryOnHold:
			require.NotNil(t, e.HoldUntil, "on_hold entry %s must carry holdUntil", e.ID)
			require.Nil(t, e.NoShowDeadline, "on_hold entry %s must not carry noShowDeadline", e.ID)
		case EntryCalled:
			require.NotNil(t, e.NoShowDeadline, "called entry %s must carry noShowDeadline", e.ID)
			require.Nil(t, e.HoldUntil, "called entry %s must not carry holdUntil", e.ID)
		default:
			require.Nil(t, e.HoldUntil, "entry %s in %s must not carry holdUntil", e.ID, e.Status)
			require.Nil(t, e.NoShowDeadline, "entry %s in %s must not carry noShowDeadline", e.ID, e.Status)
		}
	}
}

func TestAddToQueue(t *testing.T) {
	tbl := testTable()
	e, err := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	require.NoError(t, err)
	assert.Equal(t, EntryWaiting, e.Status)
	assert.Equal(t, []string{"Alice"}, e.PlayerNames)
	assert.Equal(t, t0, e.JoinedAt)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, []string{"Alice"}, tbl.RecentNames)
	assert.Equal(t, TableActive, tbl.Status)
	assert.Nil(t, tbl.IdleSince, "adding a player must clear idleSince")
	requireDeadlineInvariant(t, tbl)
}

func TestAddToQueueValidation(t *testing.T) {
	tbl := testTable()

	_, err := tbl.AddToQueue([]string{}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidPlayerNames)

	_, err = tbl.AddToQueue([]string{""}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidPlayerNames)

	long := "This name is way way way too long for a chalkboard"
	_, err = tbl.AddToQueue([]string{long}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidPlayerNames)

	_, err = tbl.AddToQueue([]string{"Ann", "Ben"}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidPlayerNames)

	_, err = tbl.AddToQueue([]string{"Solo"}, ModeDoubles, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidDoublesComposition)

	_, err = tbl.AddToQueue([]string{"Ann"}, ModeTournament, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidGameMode)

	_, err = tbl.AddToQueue([]string{"Ann", "Ben"}, ModeDoubles, nil, t0)
	assert.NoError(t, err)
}

func TestAddToQueueDuplicateName(t *testing.T) {
	tbl := testTable()
	_, err := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	require.NoError(t, err)

	_, err = tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	// Comparison is exact: a different capitalization is a different name.
	_, err = tbl.AddToQueue([]string{"alice"}, ModeSingles, nil, t0)
	assert.NoError(t, err)

	_, err = tbl.AddToQueue([]string{"Bob", "Alice"}, ModeDoubles, nil, t0)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestAddToQueueFull(t *testing.T) {
	tbl := testTable()
	for i := 0; i < MaxQueueSize; i++ {
		_, err := tbl.AddToQueue([]string{fmt.Sprintf("Player %d", i)}, ModeSingles, nil, t0)
		require.NoError(t, err)
	}
	_, err := tbl.AddToQueue([]string{"One Too Many"}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Len(t, tbl.Queue, MaxQueueSize)
}

func TestAddToQueuePrivateSession(t *testing.T) {
	tbl := testTable()
	tbl.SetPrivateMode(true, []string{"Alice", "Bob"}, t0)
	assert.Equal(t, TablePrivate, tbl.Status)

	_, err := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	assert.NoError(t, err)

	_, err = tbl.AddToQueue([]string{"Mallory"}, ModeSingles, nil, t0)
	assert.ErrorIs(t, err, ErrPrivateSessionForbidden)

	tbl.SetPrivateMode(false, nil, t0)
	_, err = tbl.AddToQueue([]string{"Mallory"}, ModeSingles, nil, t0)
	assert.NoError(t, err)
}

func TestRemoveFromQueueIdempotent(t *testing.T) {
	tbl := testTable()
	e, err := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	require.NoError(t, err)
	id := e.ID

	assert.True(t, tbl.RemoveFromQueue(id))
	assert.Empty(t, tbl.Queue)
	assert.False(t, tbl.RemoveFromQueue(id), "second remove must be a no-op")
	assert.Empty(t, tbl.Queue)
}

func TestReorderQueue(t *testing.T) {
	tbl := testTable()
	var ids []string
	for _, n := range []string{"A", "B", "C", "D"} {
		e, err := tbl.AddToQueue([]string{n}, ModeSingles, nil, t0)
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	tbl.ReorderQueue(ids[3], 0)
	assert.Equal(t, []string{"D"}, tbl.Queue[0].PlayerNames)
	assert.Equal(t, []string{"A"}, tbl.Queue[1].PlayerNames)

	// Out-of-range targets clamp to the ends.
	tbl.ReorderQueue(ids[3], 99)
	assert.Equal(t, []string{"D"}, tbl.Queue[3].PlayerNames)
	tbl.ReorderQueue(ids[3], -5)
	assert.Equal(t, []string{"D"}, tbl.Queue[0].PlayerNames)

	before := append([]QueueEntry(nil), tbl.Queue...)
	tbl.ReorderQueue("missing-id", 2)
	assert.Equal(t, before, tbl.Queue)
}

func TestHoldAndUnhold(t *testing.T) {
	tbl := testTable()
	e, err := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	require.NoError(t, err)
	id := e.ID

	require.NoError(t, tbl.HoldPosition(id, t0))
	held := tbl.Entry(id)
	assert.Equal(t, EntryOnHold, held.Status)
	require.NotNil(t, held.HoldUntil)
	assert.Equal(t, t0+int64(DefaultHoldMaxMinutes)*60_000, *held.HoldUntil)
	requireDeadlineInvariant(t, tbl)

	// A second hold does not extend the window.
	require.NoError(t, tbl.HoldPosition(id, t0+60_000))
	assert.Equal(t, t0+int64(DefaultHoldMaxMinutes)*60_000, *tbl.Entry(id).HoldUntil)

	tbl.UnholdPosition(id)
	back := tbl.Entry(id)
	assert.Equal(t, EntryWaiting, back.Status)
	assert.Nil(t, back.HoldUntil)
	assert.Equal(t, t0, back.JoinedAt, "hold/unhold must not touch joinedAt")
	requireDeadlineInvariant(t, tbl)

	// Unholding a waiting entry is a no-op.
	tbl.UnholdPosition(id)
	assert.Equal(t, EntryWaiting, tbl.Entry(id).Status)

	// Holding an absent entry is a no-op too.
	assert.NoError(t, tbl.HoldPosition("missing-id", t0))
}

func TestHoldCalledEntryRejected(t *testing.T) {
	tbl := testTable()
	a, _ := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	_, err := tbl.AddToQueue([]string{"Bob"}, ModeSingles, nil, t0)
	require.NoError(t, err)
	require.NoError(t, tbl.StartNextGame(t0))

	err = tbl.HoldPosition(a.ID, t0)
	assert.ErrorIs(t, err, ErrEntryNotWaiting)
}

func TestExpireHeldEntries(t *testing.T) {
	tbl := testTable()
	a, _ := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	b, _ := tbl.AddToQueue([]string{"Bob"}, ModeSingles, nil, t0)
	require.NoError(t, tbl.HoldPosition(a.ID, t0))
	require.NoError(t, tbl.HoldPosition(b.ID, t0+10*60_000))

	deadline := t0 + int64(DefaultHoldMaxMinutes)*60_000
	expired := tbl.ExpireHeldEntries(deadline + 1)
	require.Len(t, expired, 1)
	assert.Equal(t, []string{"Alice"}, expired[0].PlayerNames)
	require.Len(t, tbl.Queue, 1)
	assert.Equal(t, []string{"Bob"}, tbl.Queue[0].PlayerNames)
}

func TestMoveToBack(t *testing.T) {
	tbl := testTable()
	a, _ := tbl.AddToQueue([]string{"A"}, ModeSingles, nil, t0)
	tbl.AddToQueue([]string{"B"}, ModeSingles, nil, t0)
	tbl.AddToQueue([]string{"C"}, ModeSingles, nil, t0)

	tbl.MoveToBack(a.ID)
	assert.Equal(t, []string{"B"}, tbl.Queue[0].PlayerNames)
	assert.Equal(t, []string{"A"}, tbl.Queue[2].PlayerNames)
	assert.Equal(t, EntryWaiting, tbl.Queue[2].Status)
	requireDeadlineInvariant(t, tbl)
}

func TestClaimQueueSpot(t *testing.T) {
	tbl := testTable()
	e, _ := tbl.AddToQueue([]string{"Ann", "Ben"}, ModeDoubles, nil, t0)

	require.NoError(t, tbl.ClaimQueueSpot(e.ID, "Ann", "uid-ann"))
	assert.Equal(t, "uid-ann", tbl.Entry(e.ID).UserIDs["Ann"])

	assert.ErrorIs(t, tbl.ClaimQueueSpot(e.ID, "Zoe", "uid-zoe"), ErrNameNotOnEntry)
	assert.ErrorIs(t, tbl.ClaimQueueSpot("missing", "Ann", "uid-ann"), ErrEntryNotFound)
	assert.ErrorIs(t, tbl.ClaimQueueSpot(e.ID, "Ben", ""), ErrInvalidPlayerNames)
}

func TestFlagNoShowWarnings(t *testing.T) {
	tbl := testTable()
	a, _ := tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	tbl.AddToQueue([]string{"Bob"}, ModeSingles, nil, t0)
	require.NoError(t, tbl.StartNextGame(t0))

	// Before the deadline nothing is flagged.
	assert.Empty(t, tbl.FlagNoShowWarnings(t0+1))

	deadline := t0 + int64(DefaultNoShowTimeoutSeconds)*1000
	flagged := tbl.FlagNoShowWarnings(deadline + 1)
	assert.Len(t, flagged, 2)
	assert.Equal(t, EntryNoShowWarning, tbl.Entry(a.ID).Status)
	assert.Nil(t, tbl.Entry(a.ID).NoShowDeadline)
	requireDeadlineInvariant(t, tbl)
}

func TestRecentNamesRing(t *testing.T) {
	tbl := testTable()
	for i := 0; i < MaxRecentNames+10; i++ {
		name := fmt.Sprintf("Player %d", i)
		_, err := tbl.AddToQueue([]string{name}, ModeSingles, nil, t0)
		require.NoError(t, err)
		tbl.RemoveFromQueue(tbl.Queue[0].ID)
	}
	assert.Len(t, tbl.RecentNames, MaxRecentNames)
	assert.Equal(t, fmt.Sprintf("Player %d", MaxRecentNames+9), tbl.RecentNames[0])

	// Re-adding a known name moves it to the front without duplicating it.
	_, err := tbl.AddToQueue([]string{"Player 30"}, ModeSingles, nil, t0)
	require.NoError(t, err)
	assert.Equal(t, "Player 30", tbl.RecentNames[0])
	count := 0
	for _, n := range tbl.RecentNames {
		if n == "Player 30" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
