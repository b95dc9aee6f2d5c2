package chalk

import (
	"github.com/thoas/go-funk"
)

// StartNextGame promotes the front of the queue into a live game. The mode
// is derived from the waiting entries: any killer entry turns the start into
// a killer round, a challenge entry skips ahead to face the holder, two
// doubles entries make a doubles game, anything else is singles. Lapsed
// holds are expired as part of the same transition.
func (t *Table) StartNextGame(now int64) error {
	if t.CurrentGame != nil {
		return ErrGameInProgress
	}
	t.ExpireHeldEntries(now)

	waiting := t.WaitingEntries()
	for _, e := range waiting {
		if e.GameMode == ModeKiller {
			return t.startKillerFromQueue(waiting, now)
		}
	}

	var holder, challenger *QueueEntry
	mode := ModeSingles
	for _, e := range waiting {
		if e.GameMode == ModeChallenge {
			challenger = e
			break
		}
	}
	if challenger != nil {
		if len(waiting) < 2 {
			return ErrInsufficientPlayers
		}
		mode = ModeChallenge
		for _, e := range waiting {
			if e.ID != challenger.ID {
				holder = e
				break
			}
		}
		if holder == nil {
			holder = waiting[0]
		}
	} else {
		if len(waiting) < 2 {
			return ErrInsufficientPlayers
		}
		holder, challenger = waiting[0], waiting[1]
		if holder.GameMode == ModeDoubles && challenger.GameMode == ModeDoubles {
			if len(holder.PlayerNames) != 2 || len(challenger.PlayerNames) != 2 {
				return ErrInvalidDoublesComposition
			}
			mode = ModeDoubles
		}
	}

	players := make([]GamePlayer, 0, len(holder.PlayerNames)+len(challenger.PlayerNames))
	for _, n := range holder.PlayerNames {
		players = append(players, GamePlayer{Name: n, Side: SideHolder, QueueEntryID: holder.ID})
	}
	for _, n := range challenger.PlayerNames {
		players = append(players, GamePlayer{Name: n, Side: SideChallenger, QueueEntryID: challenger.ID})
	}

	// The holder carries their run in only when they are the entry left at
	// the very front by the previous result.
	consecutive := 0
	if len(t.Queue) > 0 && t.Queue[0].ID == holder.ID {
		consecutive = t.SessionStats.PlayerStats[holder.PlayerNames[0]].CurrentStreak
	}

	breaker := holder.PlayerNames[0]
	if t.Settings.HouseRules.BreakRule != BreakWinner {
		breaker = challenger.PlayerNames[0]
	}

	deadline := now + int64(t.Settings.NoShowTimeoutSeconds)*1000
	for _, e := range []*QueueEntry{holder, challenger} {
		e.Status = EntryCalled
		d := deadline
		e.NoShowDeadline = &d
		e.HoldUntil = nil
	}

	t.CurrentGame = &CurrentGame{
		ID:              NewID(),
		Mode:            mode,
		StartedAt:       now,
		Players:         players,
		ConsecutiveWins: consecutive,
		BreakingPlayer:  breaker,
	}
	t.RefreshStatus(now)
	return nil
}

func (t *Table) startKillerFromQueue(waiting []*QueueEntry, now int64) error {
	if len(waiting) < KillerMinPlayers {
		return ErrInsufficientPlayers
	}
	taken := waiting
	if len(taken) > KillerMaxPlayers {
		taken = taken[:KillerMaxPlayers]
	}

	var players []GamePlayer
	var killers []KillerPlayer
	deadline := now + int64(t.Settings.NoShowTimeoutSeconds)*1000
	for _, e := range taken {
		for _, n := range e.PlayerNames {
			players = append(players, GamePlayer{Name: n, Side: SideChallenger, QueueEntryID: e.ID})
			killers = append(killers, KillerPlayer{Name: n, Lives: KillerDefaultLives})
		}
		e.Status = EntryCalled
		d := deadline
		e.NoShowDeadline = &d
		e.HoldUntil = nil
	}

	t.CurrentGame = &CurrentGame{
		ID:          NewID(),
		Mode:        ModeKiller,
		StartedAt:   now,
		Players:     players,
		KillerState: &KillerState{Players: killers, Round: 1},
	}
	t.RefreshStatus(now)
	return nil
}

// RegisterCurrentGame records a game for players already at the table
// without queueing first. Entries are synthesized at the front of the queue
// so winner-stays works exactly as for queued games.
func (t *Table) RegisterCurrentGame(holderNames, challengerNames []string, mode GameMode, now int64) error {
	if t.CurrentGame != nil {
		return ErrGameInProgress
	}
	switch mode {
	case ModeSingles, ModeChallenge:
		if len(holderNames) != 1 || len(challengerNames) != 1 {
			return ErrInvalidPlayerNames
		}
	case ModeDoubles:
		if len(holderNames) != 2 || len(challengerNames) != 2 {
			return ErrInvalidDoublesComposition
		}
	default:
		return ErrInvalidGameMode
	}
	if len(t.Queue)+2 > MaxQueueSize {
		return ErrQueueFull
	}
	all := append(append([]string(nil), holderNames...), challengerNames...)
	active := t.ActiveNames()
	for _, n := range all {
		if n == "" || len(n) > MaxNameLength {
			return ErrInvalidPlayerNames
		}
		if funk.ContainsString(active, n) {
			return ErrDuplicatePlayer
		}
	}
	if t.Session.IsPrivate {
		for _, n := range all {
			if !funk.ContainsString(t.Session.PrivatePlayerNames, n) {
				return ErrPrivateSessionForbidden
			}
		}
	}

	holder := QueueEntry{
		ID:          NewID(),
		PlayerNames: append([]string(nil), holderNames...),
		JoinedAt:    now,
		Status:      EntryWaiting,
		GameMode:    mode,
	}
	challenger := QueueEntry{
		ID:          NewID(),
		PlayerNames: append([]string(nil), challengerNames...),
		JoinedAt:    now,
		Status:      EntryWaiting,
		GameMode:    mode,
	}
	t.Queue = append([]QueueEntry{holder, challenger}, t.Queue...)
	t.pushRecentNames(all)

	players := make([]GamePlayer, 0, len(all))
	for _, n := range holderNames {
		players = append(players, GamePlayer{Name: n, Side: SideHolder, QueueEntryID: holder.ID})
	}
	for _, n := range challengerNames {
		players = append(players, GamePlayer{Name: n, Side: SideChallenger, QueueEntryID: challenger.ID})
	}
	breaker := holderNames[0]
	if t.Settings.HouseRules.BreakRule != BreakWinner {
		breaker = challengerNames[0]
	}
	t.CurrentGame = &CurrentGame{
		ID:             NewID(),
		Mode:           mode,
		StartedAt:      now,
		Players:        players,
		BreakingPlayer: breaker,
	}
	t.RefreshStatus(now)
	return nil
}

// ProcessResult settles a singles, doubles, or challenge game: the loser's
// entry leaves the queue, the winner stays at the front (or rotates to the
// back once the win limit is hit), session stats and the king of the table
// update, and the game slot clears. The returned summary drives the
// post-commit history and lifetime-stats writes.
func (t *Table) ProcessResult(winnerSide Side, winnerNames []string, now int64) (*GameSummary, error) {
	g := t.CurrentGame
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if g.Mode == ModeKiller || g.Mode == ModeTournament {
		return nil, ErrInvalidGameMode
	}
	if winnerSide != SideHolder && winnerSide != SideChallenger {
		return nil, ErrInvalidWinnerSide
	}

	loserSide := SideChallenger
	if winnerSide == SideChallenger {
		loserSide = SideHolder
	}
	var winnerEntryID, loserEntryID string
	for _, p := range g.Players {
		if p.Side == winnerSide && winnerEntryID == "" {
			winnerEntryID = p.QueueEntryID
		}
		if p.Side == loserSide && loserEntryID == "" {
			loserEntryID = p.QueueEntryID
		}
	}

	newConsecutive := 1
	if winnerSide == SideHolder {
		newConsecutive = g.ConsecutiveWins + 1
	}
	winLimit := t.Settings.WinLimitEnabled && newConsecutive >= t.Settings.WinLimitCount

	summary := t.newSummary(g, winnerSide, now)
	summary.ConsecutiveWins = newConsecutive
	summary.WinLimitRotated = winLimit

	t.RemoveFromQueue(loserEntryID)
	if winLimit {
		t.MoveToBack(winnerEntryID)
	} else if e := t.Entry(winnerEntryID); e != nil {
		e.Status = EntryWaiting
		e.HoldUntil = nil
		e.NoShowDeadline = nil
	}

	kingName := ""
	if len(winnerNames) > 0 {
		kingName = winnerNames[0]
	} else if len(summary.WinnerNames) > 0 {
		kingName = summary.WinnerNames[0]
	}
	t.applyResultStats(summary.WinnerNames, summary.LoserNames, newConsecutive, kingName, now)

	t.CurrentGame = nil
	t.RefreshStatus(now)
	return summary, nil
}

// CancelGame abandons the current game: participant entries return to
// waiting and no stats are recorded.
func (t *Table) CancelGame(now int64) error {
	g := t.CurrentGame
	if g == nil {
		return ErrNoActiveGame
	}
	t.resetGameEntries(g)
	t.CurrentGame = nil
	t.RefreshStatus(now)
	return nil
}

// DismissNoShow confirms the called players arrived: their no-show timers
// clear and the game carries on.
func (t *Table) DismissNoShow(now int64) error {
	g := t.CurrentGame
	if g == nil {
		return ErrNoActiveGame
	}
	t.resetGameEntries(g)
	t.RefreshStatus(now)
	return nil
}

// ResolveNoShows forfeits the listed entries, cancels the game, and leaves
// the remaining participants waiting at the front.
func (t *Table) ResolveNoShows(entryIDs []string, now int64) error {
	g := t.CurrentGame
	if g == nil {
		return ErrNoActiveGame
	}
	for _, id := range entryIDs {
		t.RemoveFromQueue(id)
	}
	t.resetGameEntries(g)
	t.CurrentGame = nil
	t.RefreshStatus(now)
	return nil
}

// resetGameEntries returns a game's surviving called or warned entries to
// plain waiting with no deadlines.
func (t *Table) resetGameEntries(g *CurrentGame) {
	for _, id := range g.EntryIDs() {
		e := t.Entry(id)
		if e == nil {
			continue
		}
		if e.Status == EntryCalled || e.Status == EntryNoShowWarning {
			e.Status = EntryWaiting
			e.HoldUntil = nil
			e.NoShowDeadline = nil
		}
	}
}

// StartKillerDirect starts a killer game for named players standing at the
// table, synthesizing one front-of-queue entry per player.
func (t *Table) StartKillerDirect(names []string, now int64) error {
	if t.CurrentGame != nil {
		return ErrGameInProgress
	}
	if len(names) < KillerMinPlayers || len(names) > KillerMaxPlayers {
		return ErrInsufficientPlayers
	}
	if len(t.Queue)+len(names) > MaxQueueSize {
		return ErrQueueFull
	}
	active := t.ActiveNames()
	for _, n := range names {
		if n == "" || len(n) > MaxNameLength {
			return ErrInvalidPlayerNames
		}
		if funk.ContainsString(active, n) {
			return ErrDuplicatePlayer
		}
	}
	if len(funk.UniqString(names)) != len(names) {
		return ErrDuplicatePlayer
	}
	if t.Session.IsPrivate {
		for _, n := range names {
			if !funk.ContainsString(t.Session.PrivatePlayerNames, n) {
				return ErrPrivateSessionForbidden
			}
		}
	}

	entries := make([]QueueEntry, 0, len(names))
	players := make([]GamePlayer, 0, len(names))
	killers := make([]KillerPlayer, 0, len(names))
	for _, n := range names {
		e := QueueEntry{
			ID:          NewID(),
			PlayerNames: []string{n},
			JoinedAt:    now,
			Status:      EntryWaiting,
			GameMode:    ModeKiller,
		}
		entries = append(entries, e)
		players = append(players, GamePlayer{Name: n, Side: SideChallenger, QueueEntryID: e.ID})
		killers = append(killers, KillerPlayer{Name: n, Lives: KillerDefaultLives})
	}
	t.Queue = append(entries, t.Queue...)
	t.pushRecentNames(names)

	t.CurrentGame = &CurrentGame{
		ID:          NewID(),
		Mode:        ModeKiller,
		StartedAt:   now,
		Players:     players,
		KillerState: &KillerState{Players: killers, Round: 1},
	}
	t.RefreshStatus(now)
	return nil
}

// EliminateKillerPlayer takes one life off the named player, eliminating
// them when the last life goes, and advances the round counter.
func (t *Table) EliminateKillerPlayer(name string) error {
	g := t.CurrentGame
	if g == nil {
		return ErrNoActiveGame
	}
	if g.Mode != ModeKiller || g.KillerState == nil {
		return ErrNotKillerGame
	}
	for i := range g.KillerState.Players {
		p := &g.KillerState.Players[i]
		if p.Name != name {
			continue
		}
		if p.IsEliminated {
			return nil
		}
		p.Lives--
		if p.Lives <= 0 {
			p.Lives = 0
			p.IsEliminated = true
		}
		g.KillerState.Round++
		return nil
	}
	return ErrKillerPlayerUnknown
}

// FinishKillerGame settles a killer game. With no explicit winner the sole
// survivor wins; naming a winner ends the game early as long as they are
// still alive. Only the winner's entry survives, re-seated at the front.
func (t *Table) FinishKillerGame(winnerName string, now int64) (*GameSummary, error) {
	g := t.CurrentGame
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if g.Mode != ModeKiller || g.KillerState == nil {
		return nil, ErrNotKillerGame
	}
	if winnerName == "" {
		winnerName = g.KillerState.Winner()
		if winnerName == "" {
			return nil, ErrKillerNotDecided
		}
	} else {
		found := false
		for _, p := range g.KillerState.Players {
			if p.Name == winnerName {
				if p.IsEliminated {
					return nil, ErrKillerNotDecided
				}
				found = true
				break
			}
		}
		if !found {
			return nil, ErrKillerPlayerUnknown
		}
	}

	summary := t.newSummary(g, SideChallenger, now)
	summary.WinnerNames = []string{winnerName}
	summary.LoserNames = nil
	for _, p := range g.Players {
		if p.Name != winnerName {
			summary.LoserNames = append(summary.LoserNames, p.Name)
		}
	}
	summary.KillerState = g.KillerState.clone()

	var winnerEntryID string
	for _, p := range g.Players {
		if p.Name == winnerName {
			winnerEntryID = p.QueueEntryID
			break
		}
	}
	var winnerEntry *QueueEntry
	if e := t.Entry(winnerEntryID); e != nil {
		copied := e.clone()
		winnerEntry = &copied
	}
	for _, id := range g.EntryIDs() {
		t.RemoveFromQueue(id)
	}
	if winnerEntry != nil {
		winnerEntry.Status = EntryWaiting
		winnerEntry.HoldUntil = nil
		winnerEntry.NoShowDeadline = nil
		t.Queue = append([]QueueEntry{*winnerEntry}, t.Queue...)
	}

	t.applyKillerStats(winnerName, summary.LoserNames)
	t.CurrentGame = nil
	t.RefreshStatus(now)
	return summary, nil
}

// newSummary snapshots the parts of a finishing game that outlive the
// transaction. Winner and loser names default to the side rosters.
func (t *Table) newSummary(g *CurrentGame, winnerSide Side, now int64) *GameSummary {
	uids := map[string]string{}
	for _, p := range g.Players {
		if e := t.Entry(p.QueueEntryID); e != nil && e.UserIDs != nil {
			if uid, ok := e.UserIDs[p.Name]; ok && uid != "" {
				uids[p.Name] = uid
			}
		}
	}
	s := &GameSummary{
		GameID:     g.ID,
		TableID:    t.ID,
		VenueName:  t.VenueName,
		Mode:       g.Mode,
		Players:    append([]GamePlayer(nil), g.Players...),
		WinnerSide: winnerSide,
		StartedAt:  g.StartedAt,
		EndedAt:    now,
		PlayerUIDs: uids,
	}
	s.WinnerNames = g.SideNames(winnerSide)
	if winnerSide == SideHolder {
		s.LoserNames = g.SideNames(SideChallenger)
	} else {
		s.LoserNames = g.SideNames(SideHolder)
	}
	return s
}
