package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/models"
)

func sampleRecord() *chalk.GameHistoryRecord {
	return &chalk.GameHistoryRecord{
		ID:      "game-1",
		TableID: "tbl-1",
		Mode:    chalk.ModeSingles,
		Players: []chalk.GamePlayer{
			{Name: "Alice", Side: chalk.SideHolder, QueueEntryID: "e1"},
			{Name: "Bob", Side: chalk.SideChallenger, QueueEntryID: "e2"},
		},
		Winner:          []string{"Alice"},
		WinnerSide:      chalk.SideHolder,
		StartedAt:       1_700_000_000_000,
		EndedAt:         1_700_000_600_000,
		Duration:        600_000,
		ConsecutiveWins: 2,
		PlayerUIDs:      map[string]string{"Alice": "uid-a"},
		PlayerUIDList:   []string{"uid-a"},
		VenueName:       "The Cue Club",
	}
}

func TestHistoryRowFlattensRecord(t *testing.T) {
	row, err := historyRow(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "game-1", row.ID)
	assert.Equal(t, "singles", row.Mode)
	assert.Equal(t, []string{"Alice"}, []string(row.WinnerNames))
	assert.Equal(t, []string{"Bob"}, []string(row.LoserNames))
	assert.Equal(t, []string{"Alice", "Bob"}, []string(row.PlayerNames))
	assert.Equal(t, []string{"uid-a"}, []string(row.PlayerUIDs))
	assert.Equal(t, "holder", row.WinnerSide)
	assert.NotEmpty(t, row.Detail)
}

func TestHistoryRowNeverNilArrays(t *testing.T) {
	rec := &chalk.GameHistoryRecord{ID: "game-2", TableID: "tbl-1", Mode: chalk.ModeKiller}
	row, err := historyRow(rec)
	require.NoError(t, err)

	// NOT NULL array columns reject SQL NULL, so empty must stay empty.
	assert.NotNil(t, row.WinnerNames)
	assert.NotNil(t, row.LoserNames)
	assert.NotNil(t, row.PlayerNames)
	assert.NotNil(t, row.PlayerUIDs)
}

func TestRecordRoundTripThroughDetail(t *testing.T) {
	rec := sampleRecord()
	rec.KillerState = &chalk.KillerState{
		Players: []chalk.KillerPlayer{{Name: "Alice", Lives: 2}},
		Round:   4,
	}
	row, err := historyRow(rec)
	require.NoError(t, err)

	back := recordFromRow(row)
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Players, back.Players)
	assert.Equal(t, rec.Winner, back.Winner)
	assert.Equal(t, rec.PlayerUIDs, back.PlayerUIDs)
	require.NotNil(t, back.KillerState)
	assert.Equal(t, 4, back.KillerState.Round)
}

func TestRecordFromRowColumnFallback(t *testing.T) {
	row := &models.GameHistoryRow{
		ID:          "game-3",
		TableID:     "tbl-1",
		Mode:        "doubles",
		WinnerNames: []string{"Ann", "Ben"},
		WinnerSide:  "challenger",
		StartedAt:   100,
		EndedAt:     400,
		PlayerUIDs:  []string{"uid-x"},
		Detail:      nil,
	}
	rec := recordFromRow(row)
	assert.Equal(t, chalk.ModeDoubles, rec.Mode)
	assert.Equal(t, []string{"Ann", "Ben"}, rec.Winner)
	assert.Equal(t, int64(300), rec.Duration)
	assert.Equal(t, []string{"uid-x"}, rec.PlayerUIDList)
	assert.Nil(t, rec.Players)
}

func TestRecordFromRowCorruptDetail(t *testing.T) {
	row := &models.GameHistoryRow{ID: "game-4", TableID: "tbl-1", Mode: "singles",
		Detail: []byte("{not json")}
	rec := recordFromRow(row)
	assert.Equal(t, "game-4", rec.ID, "corrupt detail must fall back to columns")
}
