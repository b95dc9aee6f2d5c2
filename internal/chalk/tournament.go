package chalk

import (
	"fmt"
	"sort"

	"github.com/thoas/go-funk"
)

// TournamentFormat selects how the bracket is built.
type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatRoundRobin    TournamentFormat = "round_robin"
	FormatGroupKnockout TournamentFormat = "group_knockout"
)

// TournamentStage tracks where play currently is.
type TournamentStage string

const (
	StageGroup    TournamentStage = "group"
	StageKnockout TournamentStage = "knockout"
	StageComplete TournamentStage = "complete"
)

// Frame is one reported rack inside a tournament match.
type Frame struct {
	Winner     string `json:"winner"`
	ReportedAt int64  `json:"reportedAt"`
}

// TournamentMatch is a single race-to-N match. Player slots stay nil until
// a feeder match or a group standing fills them; a slot that can never fill
// marks the match as a bye and the present player advances for free.
type TournamentMatch struct {
	ID         string          `json:"id"`
	Player1    *string         `json:"player1"`
	Player2    *string         `json:"player2"`
	IsBye      bool            `json:"isBye"`
	Frames     []Frame         `json:"frames"`
	Winner     *string         `json:"winner"`
	RaceTo     int             `json:"raceTo"`
	Stage      TournamentStage `json:"stage"`
	GroupIndex int             `json:"groupIndex"`
	RoundIndex int             `json:"roundIndex"`
	MatchIndex int             `json:"matchIndex"`
	FeedsInto  *string         `json:"feedsInto"`
	FeedsSlot  int             `json:"feedsSlot"`
}

// FrameWins counts frames taken by name in this match.
func (m *TournamentMatch) FrameWins(name string) int {
	n := 0
	for _, f := range m.Frames {
		if f.Winner == name {
			n++
		}
	}
	return n
}

func (m *TournamentMatch) hasPlayer(name string) bool {
	return (m.Player1 != nil && *m.Player1 == name) || (m.Player2 != nil && *m.Player2 == name)
}

// playable means the match is waiting on frames right now.
func (m *TournamentMatch) playable() bool {
	return m.Winner == nil && !m.IsBye && m.Player1 != nil && m.Player2 != nil
}

// TournamentState is the whole tournament, embedded in the current game.
type TournamentState struct {
	Name                string            `json:"name"`
	Format              TournamentFormat  `json:"format"`
	RaceTo              int               `json:"raceTo"`
	PlayerNames         []string          `json:"playerNames"`
	Matches             []TournamentMatch `json:"matches"`
	Groups              [][]string        `json:"groups"`
	CurrentMatchID      *string           `json:"currentMatchId"`
	Stage               TournamentStage   `json:"stage"`
	Winner              *string           `json:"winner"`
	CompletedMatchCount int               `json:"completedMatchCount"`
	TotalMatchCount     int               `json:"totalMatchCount"`
	// UserIDs maps player names to account ids for lifetime attribution;
	// tournament players do not hold queue entries.
	UserIDs map[string]string `json:"userIds"`
}

func (ts *TournamentState) clone() *TournamentState {
	if ts == nil {
		return nil
	}
	out := *ts
	out.PlayerNames = append([]string(nil), ts.PlayerNames...)
	out.Matches = make([]TournamentMatch, len(ts.Matches))
	for i, m := range ts.Matches {
		c := m
		c.Frames = append([]Frame(nil), m.Frames...)
		if m.Player1 != nil {
			v := *m.Player1
			c.Player1 = &v
		}
		if m.Player2 != nil {
			v := *m.Player2
			c.Player2 = &v
		}
		if m.Winner != nil {
			v := *m.Winner
			c.Winner = &v
		}
		if m.FeedsInto != nil {
			v := *m.FeedsInto
			c.FeedsInto = &v
		}
		out.Matches[i] = c
	}
	out.Groups = make([][]string, len(ts.Groups))
	for i, g := range ts.Groups {
		out.Groups[i] = append([]string(nil), g...)
	}
	if ts.CurrentMatchID != nil {
		v := *ts.CurrentMatchID
		out.CurrentMatchID = &v
	}
	if ts.Winner != nil {
		v := *ts.Winner
		out.Winner = &v
	}
	if ts.UserIDs != nil {
		out.UserIDs = make(map[string]string, len(ts.UserIDs))
		for k, v := range ts.UserIDs {
			out.UserIDs[k] = v
		}
	}
	return &out
}

// NewTournament validates the field and builds the full match plan for the
// chosen format. Bracket generation is deterministic for a given player
// order.
func NewTournament(name string, format TournamentFormat, players []string, raceTo int) (*TournamentState, error) {
	if len(players) < MinTournamentPlayers || len(players) > MaxTournamentPlayers {
		return nil, ErrInvalidTournament
	}
	if raceTo < MinRaceTo || raceTo > MaxRaceTo {
		return nil, ErrInvalidTournament
	}
	for _, p := range players {
		if p == "" || len(p) > MaxNameLength {
			return nil, ErrInvalidPlayerNames
		}
	}
	if len(funk.UniqString(players)) != len(players) {
		return nil, ErrDuplicatePlayer
	}

	ts := &TournamentState{
		Name:        name,
		Format:      format,
		RaceTo:      raceTo,
		PlayerNames: append([]string(nil), players...),
	}
	switch format {
	case FormatKnockout:
		ts.Stage = StageKnockout
		ts.Matches = GenerateKnockoutBracket(players, raceTo)
		ts.TotalMatchCount = countPlayable(ts.Matches)
		ts.propagateByes()
	case FormatRoundRobin:
		ts.Stage = StageGroup
		ts.Groups = [][]string{append([]string(nil), players...)}
		ts.Matches = generateGroupRounds(ts.Groups, raceTo)
		ts.TotalMatchCount = len(ts.Matches)
	case FormatGroupKnockout:
		ts.Stage = StageGroup
		ts.Groups = snakeSeedGroups(players, groupCountFor(len(players)))
		ts.Matches = generateGroupRounds(ts.Groups, raceTo)
		ko, koPlayable := buildKnockoutShell(len(ts.Groups), raceTo)
		ts.TotalMatchCount = len(ts.Matches) + koPlayable
		ts.Matches = append(ts.Matches, ko...)
	default:
		return nil, ErrInvalidTournament
	}
	ts.advanceCurrentMatch()
	return ts, nil
}

// knockoutSeedOrder lays seeds into bracket positions so seed 1 meets seed
// N only in the final: 1 is paired with N, 2 with N-1, and so on
// recursively.
func knockoutSeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		mirror := len(order)*2 + 1
		next := make([]int, 0, len(order)*2)
		for _, s := range order {
			next = append(next, s, mirror-s)
		}
		order = next
	}
	return order
}

// GenerateKnockoutBracket builds the complete single-elimination plan for
// the given player order: round 0 in seed pairs with auto-byes past the
// player count, later rounds empty and linked via feedsInto/feedsSlot.
func GenerateKnockoutBracket(players []string, raceTo int) []TournamentMatch {
	size := 2
	for size < len(players) {
		size *= 2
	}
	seedOrder := knockoutSeedOrder(size)

	rounds := 0
	for s := size; s > 1; s /= 2 {
		rounds++
	}
	var matches []TournamentMatch
	for r := 0; r < rounds; r++ {
		count := size >> (r + 1)
		for m := 0; m < count; m++ {
			match := TournamentMatch{
				ID:         knockoutMatchID(r, m, count),
				RaceTo:     raceTo,
				Stage:      StageKnockout,
				GroupIndex: -1,
				RoundIndex: r,
				MatchIndex: m,
			}
			if r == 0 {
				s1, s2 := seedOrder[2*m], seedOrder[2*m+1]
				if s1 <= len(players) {
					p := players[s1-1]
					match.Player1 = &p
				}
				if s2 <= len(players) {
					p := players[s2-1]
					match.Player2 = &p
				}
				if (match.Player1 == nil) != (match.Player2 == nil) {
					match.IsBye = true
				}
			}
			if r < rounds-1 {
				next := knockoutMatchID(r+1, m/2, count/2)
				match.FeedsInto = &next
				match.FeedsSlot = m%2 + 1
			}
			matches = append(matches, match)
		}
	}
	return matches
}

func knockoutMatchID(round, index, roundSize int) string {
	if roundSize == 1 {
		return fmt.Sprintf("KO-R%d-FINAL", round)
	}
	return fmt.Sprintf("KO-R%d-M%d", round, index)
}

// groupCountFor maps the field size to the number of round-robin groups.
func groupCountFor(players int) int {
	switch {
	case players <= 4:
		return 1
	case players <= 8:
		return 2
	case players <= 10:
		return 3
	default:
		return 4
	}
}

// snakeSeedGroups deals players across groups left-to-right then
// right-to-left so early entrants spread evenly.
func snakeSeedGroups(players []string, groupCount int) [][]string {
	groups := make([][]string, groupCount)
	forward := true
	i := 0
	for i < len(players) {
		if forward {
			for g := 0; g < groupCount && i < len(players); g++ {
				groups[g] = append(groups[g], players[i])
				i++
			}
		} else {
			for g := groupCount - 1; g >= 0 && i < len(players); g-- {
				groups[g] = append(groups[g], players[i])
				i++
			}
		}
		forward = !forward
	}
	return groups
}

// roundRobinRounds pairs players with the circle method. An odd field gets
// a placeholder whose pairings are dropped, giving every player one sit-out
// per cycle.
func roundRobinRounds(players []string) [][][2]string {
	arr := append([]string(nil), players...)
	if len(arr)%2 == 1 {
		arr = append(arr, "")
	}
	n := len(arr)
	rounds := make([][][2]string, 0, n-1)
	for r := 0; r < n-1; r++ {
		var pairs [][2]string
		for i := 0; i < n/2; i++ {
			a, b := arr[i], arr[n-1-i]
			if a != "" && b != "" {
				pairs = append(pairs, [2]string{a, b})
			}
		}
		rounds = append(rounds, pairs)
		last := arr[n-1]
		copy(arr[2:], arr[1:n-1])
		arr[1] = last
	}
	return rounds
}

// generateGroupRounds lays out every group's round robin in play order:
// round by round, groups interleaved, so one table can run the whole stage
// without a group monopolizing it.
func generateGroupRounds(groups [][]string, raceTo int) []TournamentMatch {
	perGroup := make([][][][2]string, len(groups))
	maxRounds := 0
	for g, members := range groups {
		perGroup[g] = roundRobinRounds(members)
		if len(perGroup[g]) > maxRounds {
			maxRounds = len(perGroup[g])
		}
	}
	var matches []TournamentMatch
	for r := 0; r < maxRounds; r++ {
		for g := range groups {
			if r >= len(perGroup[g]) {
				continue
			}
			for m, pair := range perGroup[g][r] {
				p1, p2 := pair[0], pair[1]
				matches = append(matches, TournamentMatch{
					ID:         fmt.Sprintf("G%d-R%d-M%d", g, r, m),
					Player1:    &p1,
					Player2:    &p2,
					RaceTo:     raceTo,
					Stage:      StageGroup,
					GroupIndex: g,
					RoundIndex: r,
					MatchIndex: m,
				})
			}
		}
	}
	return matches
}

// buildKnockoutShell pre-builds the knockout stage for a group tournament
// with empty slots, returning the matches and how many of them are real
// (non-bye) games. Two players advance per group.
func buildKnockoutShell(groupCount, raceTo int) ([]TournamentMatch, int) {
	advancers := groupCount * 2
	size := 2
	for size < advancers {
		size *= 2
	}
	rounds := 0
	for s := size; s > 1; s /= 2 {
		rounds++
	}
	var matches []TournamentMatch
	for r := 0; r < rounds; r++ {
		count := size >> (r + 1)
		for m := 0; m < count; m++ {
			match := TournamentMatch{
				ID:         knockoutMatchID(r, m, count),
				RaceTo:     raceTo,
				Stage:      StageKnockout,
				GroupIndex: -1,
				RoundIndex: r,
				MatchIndex: m,
			}
			if r < rounds-1 {
				next := knockoutMatchID(r+1, m/2, count/2)
				match.FeedsInto = &next
				match.FeedsSlot = m%2 + 1
			}
			matches = append(matches, match)
		}
	}
	byes := size - advancers
	playable := len(matches) - byes
	return matches, playable
}

// crossoverEntrants orders group winners (W) and runners-up (R) into
// knockout entry slots so no two players from the same group can meet
// before the semifinals. A nil slot is a structural bye.
func crossoverEntrants(winners, runners []string) []*string {
	n := len(winners)
	ref := func(s string) *string { v := s; return &v }
	switch n {
	case 1:
		return []*string{ref(winners[0]), ref(runners[0])}
	case 2:
		return []*string{ref(winners[0]), ref(runners[1]), ref(winners[1]), ref(runners[0])}
	case 3:
		return []*string{
			ref(winners[0]), nil,
			ref(runners[1]), ref(runners[2]),
			ref(winners[1]), nil,
			ref(winners[2]), ref(runners[0]),
		}
	default:
		return []*string{
			ref(winners[0]), ref(runners[1]),
			ref(winners[1]), ref(runners[2]),
			ref(winners[2]), ref(runners[3]),
			ref(winners[3]), ref(runners[0]),
		}
	}
}

// GroupStanding is one row of a group table.
type GroupStanding struct {
	Name       string `json:"name"`
	Played     int    `json:"played"`
	Points     int    `json:"points"`
	FramesWon  int    `json:"framesWon"`
	FramesLost int    `json:"framesLost"`
	FrameDiff  int    `json:"frameDiff"`
}

// GroupStandings ranks a group by points (win = 2), then frame difference,
// then frames won, from completed matches only. Head-to-head is not
// consulted.
func (ts *TournamentState) GroupStandings(group int) []GroupStanding {
	if group < 0 || group >= len(ts.Groups) {
		return nil
	}
	rows := map[string]*GroupStanding{}
	for _, name := range ts.Groups[group] {
		rows[name] = &GroupStanding{Name: name}
	}
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.Stage != StageGroup || m.GroupIndex != group || m.Winner == nil {
			continue
		}
		for _, f := range m.Frames {
			if r, ok := rows[f.Winner]; ok {
				r.FramesWon++
			}
			other := *m.Player1
			if f.Winner == other {
				other = *m.Player2
			}
			if r, ok := rows[other]; ok {
				r.FramesLost++
			}
		}
		for _, p := range []*string{m.Player1, m.Player2} {
			if r, ok := rows[*p]; ok {
				r.Played++
			}
		}
		if r, ok := rows[*m.Winner]; ok {
			r.Points += 2
		}
	}
	out := make([]GroupStanding, 0, len(rows))
	for _, r := range rows {
		r.FrameDiff = r.FramesWon - r.FramesLost
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.FrameDiff != b.FrameDiff {
			return a.FrameDiff > b.FrameDiff
		}
		if a.FramesWon != b.FramesWon {
			return a.FramesWon > b.FramesWon
		}
		return a.Name < b.Name
	})
	return out
}

// Match finds a match by id.
func (ts *TournamentState) Match(id string) *TournamentMatch {
	for i := range ts.Matches {
		if ts.Matches[i].ID == id {
			return &ts.Matches[i]
		}
	}
	return nil
}

// SelectMatch points frame reporting at a specific playable match, letting
// the desk run group games in whatever order the room wants.
func (ts *TournamentState) SelectMatch(id string) error {
	m := ts.Match(id)
	if m == nil {
		return ErrMatchNotFound
	}
	if !m.playable() {
		return ErrMatchNotPlayable
	}
	ts.CurrentMatchID = &m.ID
	return nil
}

// ReportFrame records one rack for the current match. A match closes when
// either player reaches its race target; closing a match advances winners,
// cascades byes, flips a finished group stage into the knockout, and
// ultimately crowns the tournament winner.
func (ts *TournamentState) ReportFrame(winner string, now int64) error {
	if ts.Stage == StageComplete {
		return ErrTournamentComplete
	}
	if ts.CurrentMatchID == nil {
		ts.advanceCurrentMatch()
	}
	if ts.CurrentMatchID == nil {
		return ErrMatchNotPlayable
	}
	m := ts.Match(*ts.CurrentMatchID)
	if m == nil || !m.playable() {
		return ErrMatchNotPlayable
	}
	if !m.hasPlayer(winner) {
		return ErrFramePlayerUnknown
	}
	m.Frames = append(m.Frames, Frame{Winner: winner, ReportedAt: now})
	if m.FrameWins(winner) >= m.RaceTo {
		w := winner
		m.Winner = &w
		ts.CompletedMatchCount++
		ts.feedWinner(m)
		ts.propagateByes()
		ts.maybeStartKnockout()
		ts.finishIfDecided()
	}
	ts.advanceCurrentMatch()
	return nil
}

// feedWinner pushes a completed match's winner into its downstream slot.
func (ts *TournamentState) feedWinner(m *TournamentMatch) {
	if m.Winner == nil || m.FeedsInto == nil {
		return
	}
	next := ts.Match(*m.FeedsInto)
	if next == nil {
		return
	}
	w := *m.Winner
	if m.FeedsSlot == 1 {
		next.Player1 = &w
	} else {
		next.Player2 = &w
	}
}

// propagateByes walks bye matches forward until none completes, so a player
// landing in a bye slot advances immediately.
func (ts *TournamentState) propagateByes() {
	for changed := true; changed; {
		changed = false
		for i := range ts.Matches {
			m := &ts.Matches[i]
			if !m.IsBye || m.Winner != nil {
				continue
			}
			var present *string
			if m.Player1 != nil && m.Player2 == nil {
				present = m.Player1
			} else if m.Player2 != nil && m.Player1 == nil {
				present = m.Player2
			}
			if present == nil {
				continue
			}
			w := *present
			m.Winner = &w
			ts.feedWinner(m)
			changed = true
		}
	}
}

// maybeStartKnockout fills the knockout shell once every group match has a
// winner, crossover-seeding the qualifiers.
func (ts *TournamentState) maybeStartKnockout() {
	if ts.Format != FormatGroupKnockout || ts.Stage != StageGroup {
		return
	}
	for i := range ts.Matches {
		if ts.Matches[i].Stage == StageGroup && ts.Matches[i].Winner == nil {
			return
		}
	}
	winners := make([]string, len(ts.Groups))
	runners := make([]string, len(ts.Groups))
	for g := range ts.Groups {
		standings := ts.GroupStandings(g)
		winners[g] = standings[0].Name
		runners[g] = standings[1].Name
	}
	entrants := crossoverEntrants(winners, runners)

	slot := 0
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.Stage != StageKnockout || m.RoundIndex != 0 {
			continue
		}
		m.Player1 = entrants[slot]
		m.Player2 = entrants[slot+1]
		if (m.Player1 == nil) != (m.Player2 == nil) {
			m.IsBye = true
		}
		slot += 2
	}
	ts.Stage = StageKnockout
	ts.propagateByes()
}

// finishIfDecided closes the tournament when its deciding match is done.
func (ts *TournamentState) finishIfDecided() {
	if ts.Stage == StageComplete {
		return
	}
	if ts.Format == FormatRoundRobin {
		for i := range ts.Matches {
			if ts.Matches[i].Winner == nil {
				return
			}
		}
		standings := ts.GroupStandings(0)
		ts.Stage = StageComplete
		w := standings[0].Name
		ts.Winner = &w
		ts.CurrentMatchID = nil
		return
	}
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.FeedsInto == nil && m.Stage == StageKnockout && m.Winner != nil {
			ts.Stage = StageComplete
			w := *m.Winner
			ts.Winner = &w
			ts.CurrentMatchID = nil
			return
		}
	}
}

// advanceCurrentMatch points at the first playable match in plan order, or
// clears the pointer when nothing is ready.
func (ts *TournamentState) advanceCurrentMatch() {
	if ts.Stage == StageComplete {
		ts.CurrentMatchID = nil
		return
	}
	if ts.CurrentMatchID != nil {
		if m := ts.Match(*ts.CurrentMatchID); m != nil && m.playable() {
			return
		}
	}
	for i := range ts.Matches {
		if ts.Matches[i].playable() {
			ts.CurrentMatchID = &ts.Matches[i].ID
			return
		}
	}
	ts.CurrentMatchID = nil
}

func countPlayable(matches []TournamentMatch) int {
	n := 0
	for i := range matches {
		if !matches[i].IsBye {
			n++
		}
	}
	return n
}

// StartTournament opens a tournament game on the table. Players register
// directly rather than through the queue, which stays frozen until the
// bracket resolves or is cancelled.
func (t *Table) StartTournament(name string, format TournamentFormat, players []string, raceTo int, userIDs map[string]string, now int64) error {
	if t.CurrentGame != nil {
		return ErrGameInProgress
	}
	ts, err := NewTournament(name, format, players, raceTo)
	if err != nil {
		return err
	}
	if len(userIDs) > 0 {
		ts.UserIDs = make(map[string]string, len(userIDs))
		for _, p := range players {
			if uid, ok := userIDs[p]; ok && uid != "" {
				ts.UserIDs[p] = uid
			}
		}
	}
	t.CurrentGame = &CurrentGame{
		ID:              NewID(),
		Mode:            ModeTournament,
		StartedAt:       now,
		TournamentState: ts,
	}
	t.pushRecentNames(players)
	t.RefreshStatus(now)
	return nil
}

// SelectTournamentMatch redirects frame reporting to a specific match.
func (t *Table) SelectTournamentMatch(matchID string) error {
	g := t.CurrentGame
	if g == nil {
		return ErrNoActiveGame
	}
	if g.Mode != ModeTournament || g.TournamentState == nil {
		return ErrNotTournamentGame
	}
	return g.TournamentState.SelectMatch(matchID)
}

// ReportTournamentFrame records a rack for the running tournament. When the
// deciding match closes, the game ends and a summary is returned for the
// history log; otherwise the summary is nil and play continues.
func (t *Table) ReportTournamentFrame(winner string, now int64) (*GameSummary, error) {
	g := t.CurrentGame
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if g.Mode != ModeTournament || g.TournamentState == nil {
		return nil, ErrNotTournamentGame
	}
	ts := g.TournamentState
	if err := ts.ReportFrame(winner, now); err != nil {
		return nil, err
	}
	if ts.Stage != StageComplete || ts.Winner == nil {
		t.LastActiveAt = now
		return nil, nil
	}

	champion := *ts.Winner
	players := make([]GamePlayer, 0, len(ts.PlayerNames))
	losers := make([]string, 0, len(ts.PlayerNames)-1)
	for _, n := range ts.PlayerNames {
		players = append(players, GamePlayer{Name: n, Side: SideChallenger})
		if n != champion {
			losers = append(losers, n)
		}
	}
	uids := map[string]string{}
	for k, v := range ts.UserIDs {
		uids[k] = v
	}
	summary := &GameSummary{
		GameID:          g.ID,
		TableID:         t.ID,
		VenueName:       t.VenueName,
		Mode:            ModeTournament,
		Players:         players,
		WinnerNames:     []string{champion},
		LoserNames:      losers,
		WinnerSide:      SideChallenger,
		StartedAt:       g.StartedAt,
		EndedAt:         now,
		TournamentState: ts.clone(),
		PlayerUIDs:      uids,
	}
	t.applyKillerStats(champion, losers)
	t.CurrentGame = nil
	t.RefreshStatus(now)
	return summary, nil
}

// ReportTournamentMatch records a whole match in one call: winnerFrames must
// equal the race target and loserFrames fills in the rest of the scoreline.
// An empty matchID means the current match. Frames already on the board count
// toward the totals, so re-reporting a half-entered score is rejected rather
// than doubled.
func (t *Table) ReportTournamentMatch(matchID, winnerName string, winnerFrames, loserFrames int, now int64) (*GameSummary, error) {
	g := t.CurrentGame
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if g.Mode != ModeTournament || g.TournamentState == nil {
		return nil, ErrNotTournamentGame
	}
	ts := g.TournamentState
	if matchID != "" {
		if err := ts.SelectMatch(matchID); err != nil {
			return nil, err
		}
	}
	if ts.CurrentMatchID == nil {
		return nil, ErrMatchNotPlayable
	}
	m := ts.Match(*ts.CurrentMatchID)
	if m == nil || !m.playable() {
		return nil, ErrMatchNotPlayable
	}
	if !m.hasPlayer(winnerName) {
		return nil, ErrFramePlayerUnknown
	}
	if winnerFrames != m.RaceTo || loserFrames < 0 || loserFrames >= m.RaceTo {
		return nil, ErrInvalidTournament
	}
	loser := *m.Player1
	if loser == winnerName {
		loser = *m.Player2
	}
	needWinner := winnerFrames - m.FrameWins(winnerName)
	needLoser := loserFrames - m.FrameWins(loser)
	if needWinner < 1 || needLoser < 0 {
		return nil, ErrInvalidTournament
	}

	// Loser frames first so the winner's last frame is the one that closes
	// the match.
	for i := 0; i < needLoser; i++ {
		if _, err := t.ReportTournamentFrame(loser, now); err != nil {
			return nil, err
		}
	}
	var summary *GameSummary
	for i := 0; i < needWinner; i++ {
		s, err := t.ReportTournamentFrame(winnerName, now)
		if err != nil {
			return nil, err
		}
		if s != nil {
			summary = s
		}
	}
	return summary, nil
}
