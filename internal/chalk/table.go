// Package chalk implements the Chalk It Up! table session engine: pure
// state-transition functions over a single Table document. Nothing in this
// package performs I/O or spawns timers; deadlines are evaluated only when a
// transition runs with a caller-supplied clock value (milliseconds since
// epoch). The coordinator owns persistence, retries, and fan-out.
package chalk

import "github.com/google/uuid"

// Engine-wide defaults. These are process constants, not tunables; per-table
// behavior is tuned through Settings.
const (
	DefaultNoShowTimeoutSeconds = 120
	DefaultHoldMaxMinutes       = 15
	DefaultWinLimitCount        = 3
	DefaultAttractTimeoutMin    = 1

	MaxQueueSize   = 30
	MaxNameLength  = 30
	MaxRecentNames = 50

	KillerDefaultLives = 3
	KillerMaxPlayers   = 8
	KillerMinPlayers   = 3

	PINLength = 4

	MinTournamentPlayers = 3
	MaxTournamentPlayers = 16
	MinRaceTo            = 1
	MaxRaceTo            = 13
)

// TableStatus is the lifecycle state shown on every connected device.
type TableStatus string

const (
	TableIdle    TableStatus = "idle"
	TableActive  TableStatus = "active"
	TablePrivate TableStatus = "private"
)

// GameMode selects the rules applied when a game starts.
type GameMode string

const (
	ModeSingles    GameMode = "singles"
	ModeDoubles    GameMode = "doubles"
	ModeKiller     GameMode = "killer"
	ModeChallenge  GameMode = "challenge"
	ModeTournament GameMode = "tournament"
)

// EntryStatus tracks a queue entry through waiting, hold, and call phases.
type EntryStatus string

const (
	EntryWaiting       EntryStatus = "waiting"
	EntryOnHold        EntryStatus = "on_hold"
	EntryCalled        EntryStatus = "called"
	EntryNoShowWarning EntryStatus = "no_show_warning"
)

// Side distinguishes the two ends of a live game. The holder was at the
// front of the queue entering the game and stays there after a win, up to
// the win limit.
type Side string

const (
	SideHolder     Side = "holder"
	SideChallenger Side = "challenger"
)

// BreakRule governs which side breaks off a new game.
type BreakRule string

const (
	BreakWinner    BreakRule = "winner_breaks"
	BreakLoser     BreakRule = "loser_breaks"
	BreakAlternate BreakRule = "alternate"
)

// FoulRule is carried for display; the engine does not score fouls.
type FoulRule string

const (
	FoulTwoShots   FoulRule = "two_shots"
	FoulBallInHand FoulRule = "ball_in_hand"
)

// Theme is the display theme for kiosk and TV surfaces.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// HouseRules is the one deep-merged subtree of Settings.
type HouseRules struct {
	BreakRule     BreakRule `json:"breakRule"`
	FoulRule      FoulRule  `json:"foulRule"`
	BlackSpotRule bool      `json:"blackSpotRule"`
}

// Settings holds per-table configuration. PINHash is the only secret: a
// lowercase-hex SHA-256 digest, never the plaintext PIN.
type Settings struct {
	PINHash                   string     `json:"pinHash"`
	TableName                 string     `json:"tableName"`
	NoShowTimeoutSeconds      int        `json:"noShowTimeoutSeconds"`
	HoldMaxMinutes            int        `json:"holdMaxMinutes"`
	WinLimitEnabled           bool       `json:"winLimitEnabled"`
	WinLimitCount             int        `json:"winLimitCount"`
	AttractModeTimeoutMinutes int        `json:"attractModeTimeoutMinutes"`
	SoundEnabled              bool       `json:"soundEnabled"`
	SoundVolume               float64    `json:"soundVolume"`
	HouseRules                HouseRules `json:"houseRules"`
	Theme                     Theme      `json:"theme"`
}

// DefaultSettings returns the settings a freshly created table starts with.
func DefaultSettings(tableName string) Settings {
	return Settings{
		TableName:                 tableName,
		NoShowTimeoutSeconds:      DefaultNoShowTimeoutSeconds,
		HoldMaxMinutes:            DefaultHoldMaxMinutes,
		WinLimitEnabled:           true,
		WinLimitCount:             DefaultWinLimitCount,
		AttractModeTimeoutMinutes: DefaultAttractTimeoutMin,
		SoundEnabled:              true,
		SoundVolume:               0.5,
		HouseRules: HouseRules{
			BreakRule:     BreakWinner,
			FoulRule:      FoulTwoShots,
			BlackSpotRule: false,
		},
		Theme: ThemeDark,
	}
}

// QueueEntry is one party waiting for the table: a single player, or a
// doubles pair sharing one slot.
type QueueEntry struct {
	ID          string      `json:"id"`
	PlayerNames []string    `json:"playerNames"`
	JoinedAt    int64       `json:"joinedAt"`
	Status      EntryStatus `json:"status"`
	// HoldUntil is set exactly while Status is on_hold; NoShowDeadline
	// exactly while Status is called.
	HoldUntil      *int64            `json:"holdUntil"`
	NoShowDeadline *int64            `json:"noShowDeadline"`
	GameMode       GameMode          `json:"gameMode"`
	UserIDs        map[string]string `json:"userIds"`
}

// HasName reports whether name is one of the entry's players (exact match).
func (e *QueueEntry) HasName(name string) bool {
	for _, n := range e.PlayerNames {
		if n == name {
			return true
		}
	}
	return false
}

func (e *QueueEntry) clone() QueueEntry {
	out := *e
	out.PlayerNames = append([]string(nil), e.PlayerNames...)
	if e.HoldUntil != nil {
		v := *e.HoldUntil
		out.HoldUntil = &v
	}
	if e.NoShowDeadline != nil {
		v := *e.NoShowDeadline
		out.NoShowDeadline = &v
	}
	if e.UserIDs != nil {
		out.UserIDs = make(map[string]string, len(e.UserIDs))
		for k, v := range e.UserIDs {
			out.UserIDs[k] = v
		}
	}
	return out
}

// GamePlayer is one name participating in the current game, tagged with the
// queue entry it came from.
type GamePlayer struct {
	Name         string `json:"name"`
	Side         Side   `json:"side"`
	QueueEntryID string `json:"queueEntryId"`
}

// KillerPlayer tracks one participant's lives in a killer game.
type KillerPlayer struct {
	Name         string `json:"name"`
	Lives        int    `json:"lives"`
	IsEliminated bool   `json:"isEliminated"`
}

// KillerState is the live state of a killer game. The game is over when at
// most one player is not eliminated.
type KillerState struct {
	Players []KillerPlayer `json:"players"`
	Round   int            `json:"round"`
}

func (k *KillerState) clone() *KillerState {
	if k == nil {
		return nil
	}
	out := &KillerState{Round: k.Round}
	out.Players = append([]KillerPlayer(nil), k.Players...)
	return out
}

// Survivors returns the players still holding at least one life.
func (k *KillerState) Survivors() []KillerPlayer {
	var out []KillerPlayer
	for _, p := range k.Players {
		if !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

// IsOver reports whether at most one player remains.
func (k *KillerState) IsOver() bool {
	return len(k.Survivors()) <= 1
}

// Winner returns the sole survivor's name, or "" while the game is open.
func (k *KillerState) Winner() string {
	s := k.Survivors()
	if len(s) == 1 {
		return s[0].Name
	}
	return ""
}

// CurrentGame is the game in progress on the table, or nil between games.
type CurrentGame struct {
	ID        string       `json:"id"`
	Mode      GameMode     `json:"mode"`
	StartedAt int64        `json:"startedAt"`
	Players   []GamePlayer `json:"players"`
	// KillerState is set only for mode=killer; TournamentState only for
	// mode=tournament.
	KillerState     *KillerState     `json:"killerState"`
	TournamentState *TournamentState `json:"tournamentState"`
	// ConsecutiveWins is the holder's streak entering this game; 0 when the
	// holder did not carry a run in from the previous game.
	ConsecutiveWins int    `json:"consecutiveWins"`
	BreakingPlayer  string `json:"breakingPlayer"`
}

func (g *CurrentGame) clone() *CurrentGame {
	if g == nil {
		return nil
	}
	out := *g
	out.Players = append([]GamePlayer(nil), g.Players...)
	out.KillerState = g.KillerState.clone()
	out.TournamentState = g.TournamentState.clone()
	return &out
}

// SideNames returns the player names on the given side, in game order.
func (g *CurrentGame) SideNames(side Side) []string {
	var out []string
	for _, p := range g.Players {
		if p.Side == side {
			out = append(out, p.Name)
		}
	}
	return out
}

// EntryIDs returns the distinct queue entry ids referenced by the game.
func (g *CurrentGame) EntryIDs() []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range g.Players {
		if p.QueueEntryID == "" || seen[p.QueueEntryID] {
			continue
		}
		seen[p.QueueEntryID] = true
		out = append(out, p.QueueEntryID)
	}
	return out
}

// PlayerStats is one name's record for the current session.
type PlayerStats struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	GamesPlayed   int `json:"gamesPlayed"`
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
}

// KingOfTable is the highest observed streak of at least three wins this
// session. The crown persists until strictly beaten or the session resets.
type KingOfTable struct {
	Name            string `json:"name"`
	ConsecutiveWins int    `json:"consecutiveWins"`
	CrownedAt       int64  `json:"crownedAt"`
}

// SessionStats aggregates results since the session started.
type SessionStats struct {
	GamesPlayed int                    `json:"gamesPlayed"`
	PlayerStats map[string]PlayerStats `json:"playerStats"`
	KingOfTable *KingOfTable           `json:"kingOfTable"`
}

func (s SessionStats) clone() SessionStats {
	out := SessionStats{GamesPlayed: s.GamesPlayed}
	if s.PlayerStats != nil {
		out.PlayerStats = make(map[string]PlayerStats, len(s.PlayerStats))
		for k, v := range s.PlayerStats {
			out.PlayerStats[k] = v
		}
	}
	if s.KingOfTable != nil {
		k := *s.KingOfTable
		out.KingOfTable = &k
	}
	return out
}

// SessionState carries the open session's start time and privacy gate.
type SessionState struct {
	StartedAt          int64    `json:"startedAt"`
	IsPrivate          bool     `json:"isPrivate"`
	PrivatePlayerNames []string `json:"privatePlayerNames"`
}

// Table is the single shared document for one physical pool table. Every
// mutation flows through the pure transitions in this package; the Ver field
// is bumped by the store on each committed write.
type Table struct {
	ID        string  `json:"id"`
	ShortCode string  `json:"shortCode"`
	Name      string  `json:"name"`
	VenueName string  `json:"venueName"`
	VenueID   *string `json:"venueId"`

	Status       TableStatus `json:"status"`
	CreatedAt    int64       `json:"createdAt"`
	LastActiveAt int64       `json:"lastActiveAt"`
	IdleSince    *int64      `json:"idleSince"`

	Settings     Settings     `json:"settings"`
	Queue        []QueueEntry `json:"queue"`
	CurrentGame  *CurrentGame `json:"currentGame"`
	SessionStats SessionStats `json:"sessionStats"`
	RecentNames  []string     `json:"recentNames"`
	Session      SessionState `json:"session"`

	Ver int64 `json:"ver"`
}

// NewTable builds a fresh idle table. The caller supplies the already
// hashed PIN and the allocated short code.
func NewTable(id, shortCode, name, venueName, pinHash string, now int64) *Table {
	settings := DefaultSettings(name)
	settings.PINHash = pinHash
	idle := now
	return &Table{
		ID:           id,
		ShortCode:    shortCode,
		Name:         name,
		VenueName:    venueName,
		Status:       TableIdle,
		CreatedAt:    now,
		LastActiveAt: now,
		IdleSince:    &idle,
		Settings:     settings,
		Queue:        []QueueEntry{},
		SessionStats: SessionStats{PlayerStats: map[string]PlayerStats{}},
		RecentNames:  []string{},
		Session:      SessionState{StartedAt: now},
	}
}

// Clone returns a deep copy. Coordinators mutate copies inside transactions
// so a retried attempt always starts from the freshly read document.
func (t *Table) Clone() *Table {
	out := *t
	if t.VenueID != nil {
		v := *t.VenueID
		out.VenueID = &v
	}
	if t.IdleSince != nil {
		v := *t.IdleSince
		out.IdleSince = &v
	}
	out.Queue = make([]QueueEntry, len(t.Queue))
	for i := range t.Queue {
		out.Queue[i] = t.Queue[i].clone()
	}
	out.CurrentGame = t.CurrentGame.clone()
	out.SessionStats = t.SessionStats.clone()
	out.RecentNames = append([]string(nil), t.RecentNames...)
	out.Session.PrivatePlayerNames = append([]string(nil), t.Session.PrivatePlayerNames...)
	return &out
}

// Entry returns the queue entry with the given id, or nil.
func (t *Table) Entry(entryID string) *QueueEntry {
	for i := range t.Queue {
		if t.Queue[i].ID == entryID {
			return &t.Queue[i]
		}
	}
	return nil
}

func (t *Table) entryIndex(entryID string) int {
	for i := range t.Queue {
		if t.Queue[i].ID == entryID {
			return i
		}
	}
	return -1
}

// WaitingEntries returns the entries with status waiting, in queue order.
func (t *Table) WaitingEntries() []*QueueEntry {
	var out []*QueueEntry
	for i := range t.Queue {
		if t.Queue[i].Status == EntryWaiting {
			out = append(out, &t.Queue[i])
		}
	}
	return out
}

// ActiveNames returns every player name currently occupying a queue slot,
// regardless of entry status.
func (t *Table) ActiveNames() []string {
	var out []string
	for i := range t.Queue {
		out = append(out, t.Queue[i].PlayerNames...)
	}
	return out
}

// RefreshStatus recomputes the idle/active/private machine after a
// transition. An empty queue with no game parks the table idle and stamps
// idleSince; any activity clears it and bumps lastActiveAt. A private
// session always presents as private.
func (t *Table) RefreshStatus(now int64) {
	if t.Session.IsPrivate {
		t.Status = TablePrivate
		t.IdleSince = nil
		t.LastActiveAt = now
		return
	}
	if len(t.Queue) == 0 && t.CurrentGame == nil {
		if t.Status != TableIdle {
			t.Status = TableIdle
			idle := now
			t.IdleSince = &idle
		}
		return
	}
	t.Status = TableActive
	t.IdleSince = nil
	t.LastActiveAt = now
}

// NextDeadline returns the earliest hold or no-show deadline on the queue,
// or 0 when nothing is pending. Sweep scheduling is driven off this value.
func (t *Table) NextDeadline() int64 {
	var min int64
	consider := func(v *int64) {
		if v == nil {
			return
		}
		if min == 0 || *v < min {
			min = *v
		}
	}
	for i := range t.Queue {
		consider(t.Queue[i].HoldUntil)
		consider(t.Queue[i].NoShowDeadline)
	}
	return min
}

// NewID returns a fresh opaque identifier for entries, games, and records.
func NewID() string {
	return uuid.NewString()
}

// GameSummary is the post-commit view of a finished game, consumed by the
// history log and the lifetime-stats batch. It is produced inside the
// transaction but only acted on after the commit succeeds.
type GameSummary struct {
	GameID          string
	TableID         string
	VenueName       string
	Mode            GameMode
	Players         []GamePlayer
	WinnerNames     []string
	LoserNames      []string
	WinnerSide      Side
	StartedAt       int64
	EndedAt         int64
	ConsecutiveWins int
	WinLimitRotated bool
	KillerState     *KillerState
	TournamentState *TournamentState
	// PlayerUIDs maps participating names to account ids where known.
	PlayerUIDs map[string]string
}

// GameHistoryRecord is the append-only persisted form of a GameSummary.
type GameHistoryRecord struct {
	ID              string            `json:"id" db:"id"`
	TableID         string            `json:"tableId" db:"table_id"`
	Mode            GameMode          `json:"mode" db:"mode"`
	Players         []GamePlayer      `json:"players"`
	Winner          []string          `json:"winner"`
	WinnerSide      Side              `json:"winnerSide" db:"winner_side"`
	StartedAt       int64             `json:"startedAt" db:"started_at"`
	EndedAt         int64             `json:"endedAt" db:"ended_at"`
	Duration        int64             `json:"duration" db:"duration"`
	ConsecutiveWins int               `json:"consecutiveWins" db:"consecutive_wins"`
	WinLimitRotated bool              `json:"winLimitRotated" db:"win_limit_rotation"`
	KillerState     *KillerState      `json:"killerState"`
	TournamentState *TournamentState  `json:"tournamentState"`
	PlayerUIDs      map[string]string `json:"playerUids"`
	PlayerUIDList   []string          `json:"playerUidList"`
	VenueName       string            `json:"venueName" db:"venue_name"`
}

// HistoryRecord converts a summary into its persisted record.
func (s *GameSummary) HistoryRecord() *GameHistoryRecord {
	uidList := make([]string, 0, len(s.PlayerUIDs))
	seen := map[string]bool{}
	for _, p := range s.Players {
		uid, ok := s.PlayerUIDs[p.Name]
		if !ok || uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		uidList = append(uidList, uid)
	}
	return &GameHistoryRecord{
		ID:              s.GameID,
		TableID:         s.TableID,
		Mode:            s.Mode,
		Players:         s.Players,
		Winner:          s.WinnerNames,
		WinnerSide:      s.WinnerSide,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		Duration:        s.EndedAt - s.StartedAt,
		ConsecutiveWins: s.ConsecutiveWins,
		WinLimitRotated: s.WinLimitRotated,
		KillerState:     s.KillerState,
		TournamentState: s.TournamentState,
		PlayerUIDs:      s.PlayerUIDs,
		PlayerUIDList:   uidList,
		VenueName:       s.VenueName,
	}
}

// ModeStats is a per-mode slice of a user's lifetime record.
type ModeStats struct {
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	GamesPlayed int `json:"gamesPlayed"`
}

// LifetimeStats is the cross-session aggregate stored per user account.
type LifetimeStats struct {
	GamesPlayed   int                    `json:"gamesPlayed"`
	Wins          int                    `json:"wins"`
	Losses        int                    `json:"losses"`
	CurrentStreak int                    `json:"currentStreak"`
	BestStreak    int                    `json:"bestStreak"`
	LastGameAt    *int64                 `json:"lastGameAt"`
	ByMode        map[GameMode]ModeStats `json:"byMode"`
}

// LifetimeUpdate is one user's outcome from one game, dedup'd by uid.
type LifetimeUpdate struct {
	UID  string
	Name string
	Mode GameMode
	Won  bool
}

// Venue groups claimed tables under an owner account. venue.tableIds is the
// source of truth; table.venueId is the reverse pointer, and both move
// together in one transaction.
type Venue struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	OwnerID   string   `json:"ownerId"`
	OwnerName string   `json:"ownerName"`
	CreatedAt int64    `json:"createdAt"`
	TableIDs  []string `json:"tableIds"`
	LogoURL   *string  `json:"logoUrl"`
}

// Clone returns a deep copy of the venue document.
func (v *Venue) Clone() *Venue {
	out := *v
	out.TableIDs = append([]string(nil), v.TableIDs...)
	if v.LogoURL != nil {
		u := *v.LogoURL
		out.LogoURL = &u
	}
	return &out
}

// HasTable reports whether the venue already owns the table id.
func (v *Venue) HasTable(tableID string) bool {
	for _, id := range v.TableIDs {
		if id == tableID {
			return true
		}
	}
	return false
}

// RemoveTable unlinks a table id; removing an absent id is a no-op.
func (v *Venue) RemoveTable(tableID string) {
	for i, id := range v.TableIDs {
		if id == tableID {
			v.TableIDs = append(v.TableIDs[:i], v.TableIDs[i+1:]...)
			return
		}
	}
}
