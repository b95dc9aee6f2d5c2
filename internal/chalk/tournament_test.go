package chalk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i+1)
	}
	return names
}

// reportMatchWin closes the current match by reporting every frame for the
// given player.
func reportMatchWin(t *testing.T, ts *TournamentState, winner string, now int64) {
	t.Helper()
	require.NotNil(t, ts.CurrentMatchID)
	m := ts.Match(*ts.CurrentMatchID)
	require.NotNil(t, m)
	for m.Winner == nil {
		require.NoError(t, ts.ReportFrame(winner, now))
	}
}

func TestNewTournamentValidation(t *testing.T) {
	_, err := NewTournament("Friday Cup", FormatKnockout, playerNames(2), 2)
	assert.ErrorIs(t, err, ErrInvalidTournament)

	_, err = NewTournament("Friday Cup", FormatKnockout, playerNames(17), 2)
	assert.ErrorIs(t, err, ErrInvalidTournament)

	_, err = NewTournament("Friday Cup", FormatKnockout, playerNames(4), 0)
	assert.ErrorIs(t, err, ErrInvalidTournament)

	_, err = NewTournament("Friday Cup", FormatKnockout, playerNames(4), MaxRaceTo+1)
	assert.ErrorIs(t, err, ErrInvalidTournament)

	_, err = NewTournament("Friday Cup", FormatKnockout, []string{"A", "B", "A"}, 2)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	_, err = NewTournament("Friday Cup", FormatKnockout, []string{"A", "B", ""}, 2)
	assert.ErrorIs(t, err, ErrInvalidPlayerNames)

	_, err = NewTournament("Friday Cup", TournamentFormat("swiss"), playerNames(4), 2)
	assert.ErrorIs(t, err, ErrInvalidTournament)
}

func TestKnockoutBracketSeeding(t *testing.T) {
	matches := GenerateKnockoutBracket(playerNames(8), 2)
	require.Len(t, matches, 7)

	// Round 0 pairs seeds so 1 and 2 can only meet in the final.
	assert.Equal(t, "KO-R0-M0", matches[0].ID)
	assert.Equal(t, "P1", *matches[0].Player1)
	assert.Equal(t, "P8", *matches[0].Player2)
	assert.Equal(t, "P4", *matches[1].Player1)
	assert.Equal(t, "P5", *matches[1].Player2)
	assert.Equal(t, "P2", *matches[2].Player1)
	assert.Equal(t, "P7", *matches[2].Player2)
	assert.Equal(t, "P3", *matches[3].Player1)
	assert.Equal(t, "P6", *matches[3].Player2)

	// Adjacent round-0 matches feed the same semifinal.
	require.NotNil(t, matches[0].FeedsInto)
	assert.Equal(t, "KO-R1-M0", *matches[0].FeedsInto)
	assert.Equal(t, 1, matches[0].FeedsSlot)
	assert.Equal(t, "KO-R1-M0", *matches[1].FeedsInto)
	assert.Equal(t, 2, matches[1].FeedsSlot)

	final := matches[6]
	assert.Equal(t, "KO-R2-FINAL", final.ID)
	assert.Nil(t, final.FeedsInto)

	// The same field always yields the same bracket.
	again := GenerateKnockoutBracket(playerNames(8), 2)
	assert.Equal(t, matches, again)
}

func TestKnockoutByesPropagate(t *testing.T) {
	ts, err := NewTournament("Cup", FormatKnockout, playerNames(5), 1)
	require.NoError(t, err)

	// Field of 5 pads to a bracket of 8 with three byes.
	require.Len(t, ts.Matches, 7)
	assert.Equal(t, 4, ts.TotalMatchCount)

	m0 := ts.Match("KO-R0-M0")
	require.True(t, m0.IsBye)
	require.NotNil(t, m0.Winner)
	assert.Equal(t, "P1", *m0.Winner)

	// Bye winners land in round 1 before any frame is reported.
	r1m0 := ts.Match("KO-R1-M0")
	require.NotNil(t, r1m0.Player1)
	assert.Equal(t, "P1", *r1m0.Player1)
	assert.Nil(t, r1m0.Player2)

	r1m1 := ts.Match("KO-R1-M1")
	require.NotNil(t, r1m1.Player1)
	require.NotNil(t, r1m1.Player2)
	assert.Equal(t, "P2", *r1m1.Player1)
	assert.Equal(t, "P3", *r1m1.Player2)

	// The only playable round-0 match is the seed 4 vs 5 opener.
	require.NotNil(t, ts.CurrentMatchID)
	assert.Equal(t, "KO-R0-M1", *ts.CurrentMatchID)
}

func TestKnockoutRunToChampion(t *testing.T) {
	ts, err := NewTournament("Cup", FormatKnockout, playerNames(4), 1)
	require.NoError(t, err)
	assert.Equal(t, StageKnockout, ts.Stage)
	assert.Equal(t, 3, ts.TotalMatchCount)

	reportMatchWin(t, ts, "P1", t0) // P1 v P4
	reportMatchWin(t, ts, "P2", t0) // P2 v P3
	assert.Equal(t, 2, ts.CompletedMatchCount)

	final := ts.Match("KO-R1-FINAL")
	require.NotNil(t, final.Player1)
	require.NotNil(t, final.Player2)
	assert.Equal(t, "P1", *final.Player1)
	assert.Equal(t, "P2", *final.Player2)

	reportMatchWin(t, ts, "P2", t0)
	assert.Equal(t, StageComplete, ts.Stage)
	require.NotNil(t, ts.Winner)
	assert.Equal(t, "P2", *ts.Winner)
	assert.Nil(t, ts.CurrentMatchID)

	assert.ErrorIs(t, ts.ReportFrame("P2", t0), ErrTournamentComplete)
}

func TestRaceToNeedsThatManyFrames(t *testing.T) {
	ts, err := NewTournament("Cup", FormatKnockout, playerNames(4), 3)
	require.NoError(t, err)

	m := ts.Match(*ts.CurrentMatchID)
	require.NoError(t, ts.ReportFrame("P1", t0))
	require.NoError(t, ts.ReportFrame("P4", t0))
	require.NoError(t, ts.ReportFrame("P1", t0))
	assert.Nil(t, m.Winner, "two frames must not close a race to three")

	require.NoError(t, ts.ReportFrame("P1", t0))
	require.NotNil(t, m.Winner)
	assert.Equal(t, "P1", *m.Winner)
	assert.Equal(t, 3, m.FrameWins("P1"))
	assert.Equal(t, 1, m.FrameWins("P4"))
}

func TestReportFrameUnknownPlayer(t *testing.T) {
	ts, err := NewTournament("Cup", FormatKnockout, playerNames(4), 1)
	require.NoError(t, err)

	// Current match is P1 v P4; P2 is in the bracket but not in this match.
	assert.ErrorIs(t, ts.ReportFrame("P2", t0), ErrFramePlayerUnknown)
	assert.ErrorIs(t, ts.ReportFrame("Nobody", t0), ErrFramePlayerUnknown)
}

func TestSelectMatchOutOfOrder(t *testing.T) {
	ts, err := NewTournament("League", FormatRoundRobin, playerNames(4), 1)
	require.NoError(t, err)
	require.Equal(t, "G0-R0-M0", *ts.CurrentMatchID)

	require.NoError(t, ts.SelectMatch("G0-R0-M1"))
	assert.Equal(t, "G0-R0-M1", *ts.CurrentMatchID)

	m := ts.Match("G0-R0-M1")
	require.NoError(t, ts.ReportFrame(*m.Player1, t0))
	require.NotNil(t, m.Winner)

	assert.ErrorIs(t, ts.SelectMatch("G0-R0-M1"), ErrMatchNotPlayable)
	assert.ErrorIs(t, ts.SelectMatch("no-such-match"), ErrMatchNotFound)
}

func TestSelectMatchRejectsUnfilledKnockout(t *testing.T) {
	ts, err := NewTournament("Cup", FormatKnockout, playerNames(4), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, ts.SelectMatch("KO-R1-FINAL"), ErrMatchNotPlayable)
}

func TestRoundRobinOddField(t *testing.T) {
	ts, err := NewTournament("League", FormatRoundRobin, []string{"Ann", "Ben", "Cat"}, 1)
	require.NoError(t, err)
	assert.Equal(t, StageGroup, ts.Stage)
	require.Len(t, ts.Matches, 3)
	assert.Equal(t, 3, ts.TotalMatchCount)

	// Every pair meets exactly once.
	seen := map[string]bool{}
	for i := range ts.Matches {
		m := &ts.Matches[i]
		a, b := *m.Player1, *m.Player2
		if a > b {
			a, b = b, a
		}
		key := a + "/" + b
		assert.False(t, seen[key], "pair %s scheduled twice", key)
		seen[key] = true
	}
	assert.Len(t, seen, 3)
}

func TestRoundRobinWinnerByStandings(t *testing.T) {
	ts, err := NewTournament("League", FormatRoundRobin, []string{"Ann", "Ben", "Cat"}, 1)
	require.NoError(t, err)

	// Schedule order: Ben/Cat, Ann/Cat, Ann/Ben.
	reportMatchWin(t, ts, "Ben", t0)
	reportMatchWin(t, ts, "Ann", t0)
	reportMatchWin(t, ts, "Ann", t0)

	assert.Equal(t, StageComplete, ts.Stage)
	require.NotNil(t, ts.Winner)
	assert.Equal(t, "Ann", *ts.Winner)

	standings := ts.GroupStandings(0)
	require.Len(t, standings, 3)
	assert.Equal(t, "Ann", standings[0].Name)
	assert.Equal(t, 4, standings[0].Points)
	assert.Equal(t, "Ben", standings[1].Name)
	assert.Equal(t, "Cat", standings[2].Name)
}

func TestGroupStandingsFrameTiebreak(t *testing.T) {
	ts, err := NewTournament("League", FormatRoundRobin, playerNames(4), 2)
	require.NoError(t, err)

	playMatch := func(winner, loser string, loserFrames int) {
		for g := 0; g < loserFrames; g++ {
			require.NoError(t, ts.ReportFrame(loser, t0))
		}
		for ts.Match(*ts.CurrentMatchID).Winner == nil {
			require.NoError(t, ts.ReportFrame(winner, t0))
		}
	}
	// Schedule order: P1/P4, P2/P3, P1/P3, P4/P2, P1/P2, P3/P4.
	playMatch("P4", "P1", 0)
	playMatch("P2", "P3", 0)
	playMatch("P3", "P1", 0)
	playMatch("P2", "P4", 1)
	playMatch("P1", "P2", 0)
	playMatch("P3", "P4", 0)

	standings := ts.GroupStandings(0)
	// P3 and P2 both won two matches; the frame P4 stole from P2 decides it.
	assert.Equal(t, "P3", standings[0].Name)
	assert.Equal(t, "P2", standings[1].Name)
	assert.Equal(t, standings[0].Points, standings[1].Points)
	assert.Greater(t, standings[0].FrameDiff, standings[1].FrameDiff)
	// Same story at the bottom: one win each, P4 ahead on frames.
	assert.Equal(t, "P4", standings[2].Name)
	assert.Equal(t, "P1", standings[3].Name)
	assert.Greater(t, standings[2].FrameDiff, standings[3].FrameDiff)
}

func TestGroupKnockoutFlipsToKnockout(t *testing.T) {
	ts, err := NewTournament("Open", FormatGroupKnockout, playerNames(8), 1)
	require.NoError(t, err)

	require.Len(t, ts.Groups, 2)
	assert.Equal(t, []string{"P1", "P4", "P5", "P8"}, ts.Groups[0])
	assert.Equal(t, []string{"P2", "P3", "P6", "P7"}, ts.Groups[1])
	assert.Equal(t, StageGroup, ts.Stage)
	// Twelve group games plus semifinals and a final.
	assert.Equal(t, 15, ts.TotalMatchCount)

	groupMatches := 0
	for i := range ts.Matches {
		if ts.Matches[i].Stage == StageGroup {
			groupMatches++
		}
	}
	assert.Equal(t, 12, groupMatches)

	for i := 0; i < groupMatches; i++ {
		m := ts.Match(*ts.CurrentMatchID)
		require.Equal(t, StageGroup, m.Stage, "knockout must wait for the groups")
		reportMatchWin(t, ts, *m.Player1, t0)
	}

	assert.Equal(t, StageKnockout, ts.Stage)
	aTab := ts.GroupStandings(0)
	bTab := ts.GroupStandings(1)

	// Crossover semifinals: A1 v B2 and B1 v A2.
	sf0 := ts.Match("KO-R0-M0")
	require.NotNil(t, sf0.Player1)
	require.NotNil(t, sf0.Player2)
	assert.Equal(t, aTab[0].Name, *sf0.Player1)
	assert.Equal(t, bTab[1].Name, *sf0.Player2)

	sf1 := ts.Match("KO-R0-M1")
	require.NotNil(t, sf1.Player1)
	require.NotNil(t, sf1.Player2)
	assert.Equal(t, bTab[0].Name, *sf1.Player1)
	assert.Equal(t, aTab[1].Name, *sf1.Player2)

	reportMatchWin(t, ts, *sf0.Player1, t0)
	reportMatchWin(t, ts, *sf1.Player1, t0)
	final := ts.Match("KO-R1-FINAL")
	reportMatchWin(t, ts, *final.Player1, t0)

	assert.Equal(t, StageComplete, ts.Stage)
	require.NotNil(t, ts.Winner)
	assert.Equal(t, *final.Winner, *ts.Winner)
	assert.Equal(t, ts.TotalMatchCount, ts.CompletedMatchCount)
}

func TestGroupKnockoutSixPlayers(t *testing.T) {
	ts, err := NewTournament("Open", FormatGroupKnockout, playerNames(6), 1)
	require.NoError(t, err)
	require.Len(t, ts.Groups, 2)
	assert.Equal(t, []string{"P1", "P4", "P5"}, ts.Groups[0])
	assert.Equal(t, []string{"P2", "P3", "P6"}, ts.Groups[1])

	// Three games per group, then four qualifiers fill a four-slot bracket.
	assert.Equal(t, 6+3, ts.TotalMatchCount)
}

func TestGroupKnockoutThreeGroupsGetByes(t *testing.T) {
	ts, err := NewTournament("Open", FormatGroupKnockout, playerNames(10), 1)
	require.NoError(t, err)
	require.Len(t, ts.Groups, 3)
	assert.Equal(t, []string{"P1", "P6", "P7"}, ts.Groups[0])
	assert.Equal(t, []string{"P2", "P5", "P8"}, ts.Groups[1])
	assert.Equal(t, []string{"P3", "P4", "P9", "P10"}, ts.Groups[2])

	// Six qualifiers pad to a bracket of eight, so two quarterfinals are byes.
	assert.Equal(t, 12+5, ts.TotalMatchCount)

	for ts.Stage == StageGroup {
		m := ts.Match(*ts.CurrentMatchID)
		reportMatchWin(t, ts, *m.Player1, t0)
	}
	require.Equal(t, StageKnockout, ts.Stage)

	tabs := [][]GroupStanding{ts.GroupStandings(0), ts.GroupStandings(1), ts.GroupStandings(2)}

	// Group winners A1 and B1 skip straight past their bye quarterfinals.
	qf0 := ts.Match("KO-R0-M0")
	require.True(t, qf0.IsBye)
	require.NotNil(t, qf0.Winner)
	assert.Equal(t, tabs[0][0].Name, *qf0.Winner)

	qf2 := ts.Match("KO-R0-M2")
	require.True(t, qf2.IsBye)
	require.NotNil(t, qf2.Winner)
	assert.Equal(t, tabs[1][0].Name, *qf2.Winner)

	sf0 := ts.Match("KO-R1-M0")
	require.NotNil(t, sf0.Player1)
	assert.Equal(t, tabs[0][0].Name, *sf0.Player1)

	// Runners-up from B and C meet; C's winner takes on A's runner-up.
	qf1 := ts.Match("KO-R0-M1")
	assert.Equal(t, tabs[1][1].Name, *qf1.Player1)
	assert.Equal(t, tabs[2][1].Name, *qf1.Player2)
	qf3 := ts.Match("KO-R0-M3")
	assert.Equal(t, tabs[2][0].Name, *qf3.Player1)
	assert.Equal(t, tabs[0][1].Name, *qf3.Player2)
}

func TestTableStartTournament(t *testing.T) {
	tbl := testTable()
	uids := map[string]string{"P1": "uid-1", "P3": "uid-3", "Ghost": "uid-x"}
	require.NoError(t, tbl.StartTournament("Friday Cup", FormatKnockout, playerNames(4), 1, uids, t0))

	g := tbl.CurrentGame
	require.NotNil(t, g)
	assert.Equal(t, ModeTournament, g.Mode)
	require.NotNil(t, g.TournamentState)
	assert.Equal(t, "Friday Cup", g.TournamentState.Name)
	// Only ids for players actually in the field are kept.
	assert.Equal(t, map[string]string{"P1": "uid-1", "P3": "uid-3"}, g.TournamentState.UserIDs)
	assert.Equal(t, TableActive, tbl.Status)
	assert.Contains(t, tbl.RecentNames, "P1")

	err := tbl.StartTournament("Second", FormatKnockout, playerNames(4), 1, nil, t0)
	assert.ErrorIs(t, err, ErrGameInProgress)
	assert.ErrorIs(t, tbl.StartNextGame(t0), ErrGameInProgress)
}

func TestTableTournamentToCompletion(t *testing.T) {
	tbl := testTable()
	require.NoError(t, tbl.StartTournament("Friday Cup", FormatKnockout, playerNames(4), 1,
		map[string]string{"P2": "uid-2"}, t0))

	ts := tbl.CurrentGame.TournamentState
	summary, err := tbl.ReportTournamentFrame("P1", t0+1_000)
	require.NoError(t, err)
	assert.Nil(t, summary, "mid-tournament frames must not end the game")
	assert.Equal(t, t0+1_000, tbl.LastActiveAt)

	reportMatchWin(t, ts, "P2", t0+2_000)

	summary, err = tbl.ReportTournamentFrame("P2", t0+3_000)
	require.NoError(t, err)
	require.NotNil(t, summary, "deciding frame must close the game")

	assert.Equal(t, ModeTournament, summary.Mode)
	assert.Equal(t, []string{"P2"}, summary.WinnerNames)
	assert.ElementsMatch(t, []string{"P1", "P3", "P4"}, summary.LoserNames)
	assert.Equal(t, "tbl-1", summary.TableID)
	assert.Equal(t, map[string]string{"P2": "uid-2"}, summary.PlayerUIDs)
	require.NotNil(t, summary.TournamentState)
	assert.Equal(t, StageComplete, summary.TournamentState.Stage)

	assert.Nil(t, tbl.CurrentGame)
	assert.Equal(t, 1, tbl.SessionStats.PlayerStats["P2"].Wins)
	assert.Equal(t, 1, tbl.SessionStats.PlayerStats["P1"].Losses)
	assert.Equal(t, 1, tbl.SessionStats.GamesPlayed)

	updates := LifetimeUpdatesFromSummary(summary)
	require.Len(t, updates, 1)
	assert.Equal(t, "uid-2", updates[0].UID)
	assert.True(t, updates[0].Won)
}

func TestReportTournamentFrameWrongMode(t *testing.T) {
	tbl := testTable()
	_, err := tbl.ReportTournamentFrame("P1", t0)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	assert.ErrorIs(t, tbl.SelectTournamentMatch("KO-R0-M0"), ErrNoActiveGame)

	tbl.AddToQueue([]string{"Alice"}, ModeSingles, nil, t0)
	tbl.AddToQueue([]string{"Bob"}, ModeSingles, nil, t0)
	require.NoError(t, tbl.StartNextGame(t0))

	_, err = tbl.ReportTournamentFrame("Alice", t0)
	assert.ErrorIs(t, err, ErrNotTournamentGame)
	assert.ErrorIs(t, tbl.SelectTournamentMatch("KO-R0-M0"), ErrNotTournamentGame)
}

func TestReportTournamentMatchScoreline(t *testing.T) {
	tbl := testTable()
	require.NoError(t, tbl.StartTournament("Friday Cup", FormatKnockout, playerNames(4), 3, nil, t0))
	ts := tbl.CurrentGame.TournamentState

	summary, err := tbl.ReportTournamentMatch("KO-R0-M0", "P1", 3, 1, t0+1_000)
	require.NoError(t, err)
	assert.Nil(t, summary)

	m := ts.Match("KO-R0-M0")
	require.NotNil(t, m.Winner)
	assert.Equal(t, "P1", *m.Winner)
	assert.Len(t, m.Frames, 4)
	assert.Equal(t, 3, m.FrameWins("P1"))
	assert.Equal(t, 1, m.FrameWins("P4"))

	// An empty match id targets whichever match is current.
	require.NotNil(t, ts.CurrentMatchID)
	assert.Equal(t, "KO-R0-M1", *ts.CurrentMatchID)
	summary, err = tbl.ReportTournamentMatch("", "P3", 3, 0, t0+2_000)
	require.NoError(t, err)
	assert.Nil(t, summary)

	summary, err = tbl.ReportTournamentMatch("", "P3", 3, 2, t0+3_000)
	require.NoError(t, err)
	require.NotNil(t, summary, "final must close the game")
	assert.Equal(t, []string{"P3"}, summary.WinnerNames)
	assert.Nil(t, tbl.CurrentGame)
}

func TestReportTournamentMatchValidation(t *testing.T) {
	tbl := testTable()
	require.NoError(t, tbl.StartTournament("Friday Cup", FormatKnockout, playerNames(4), 3, nil, t0))

	_, err := tbl.ReportTournamentMatch("KO-R0-M0", "P9", 3, 0, t0)
	assert.ErrorIs(t, err, ErrFramePlayerUnknown)

	// The winning score must be exactly the race target.
	_, err = tbl.ReportTournamentMatch("KO-R0-M0", "P1", 2, 0, t0)
	assert.ErrorIs(t, err, ErrInvalidTournament)
	_, err = tbl.ReportTournamentMatch("KO-R0-M0", "P1", 3, 3, t0)
	assert.ErrorIs(t, err, ErrInvalidTournament)

	// The final has no players until the semifinals resolve.
	_, err = tbl.ReportTournamentMatch("KO-R1-FINAL", "P1", 3, 0, t0)
	assert.ErrorIs(t, err, ErrMatchNotPlayable)

	_, err = tbl.ReportTournamentMatch("KO-R9-M9", "P1", 3, 0, t0)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// Frames already reported count toward the scoreline; a whole-match
	// report that contradicts them is rejected.
	require.NoError(t, tbl.SelectTournamentMatch("KO-R0-M0"))
	_, err = tbl.ReportTournamentFrame("P4", t0)
	require.NoError(t, err)
	_, err = tbl.ReportTournamentMatch("KO-R0-M0", "P1", 3, 0, t0)
	assert.ErrorIs(t, err, ErrInvalidTournament)
	summary, err := tbl.ReportTournamentMatch("KO-R0-M0", "P1", 3, 1, t0)
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, 1, tbl.CurrentGame.TournamentState.Match("KO-R0-M0").FrameWins("P4"))
}
