package chalk

import "sort"

// applyResultStats updates the session ledger for a settled holder/challenger
// game and re-evaluates the king of the table.
func (t *Table) applyResultStats(winners, losers []string, newConsecutive int, kingName string, now int64) {
	if t.SessionStats.PlayerStats == nil {
		t.SessionStats.PlayerStats = map[string]PlayerStats{}
	}
	for _, n := range winners {
		s := t.SessionStats.PlayerStats[n]
		s.Wins++
		s.GamesPlayed++
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		t.SessionStats.PlayerStats[n] = s
	}
	for _, n := range losers {
		s := t.SessionStats.PlayerStats[n]
		s.Losses++
		s.GamesPlayed++
		s.CurrentStreak = 0
		t.SessionStats.PlayerStats[n] = s
	}
	t.SessionStats.GamesPlayed++

	if kingName == "" && len(winners) > 0 {
		kingName = winners[0]
	}
	t.updateKingOfTable(kingName, newConsecutive, now)
}

// applyKillerStats credits the survivor and debits everyone else. The crown
// is untouched: killer rounds do not count toward a table run.
func (t *Table) applyKillerStats(winner string, losers []string) {
	if t.SessionStats.PlayerStats == nil {
		t.SessionStats.PlayerStats = map[string]PlayerStats{}
	}
	s := t.SessionStats.PlayerStats[winner]
	s.Wins++
	s.GamesPlayed++
	s.CurrentStreak++
	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
	t.SessionStats.PlayerStats[winner] = s
	for _, n := range losers {
		ls := t.SessionStats.PlayerStats[n]
		ls.Losses++
		ls.GamesPlayed++
		ls.CurrentStreak = 0
		t.SessionStats.PlayerStats[n] = ls
	}
	t.SessionStats.GamesPlayed++
}

// updateKingOfTable crowns a new king on a run of three or more that
// strictly beats the incumbent. Ties keep the sitting king.
func (t *Table) updateKingOfTable(name string, consecutive int, now int64) {
	if consecutive < 3 || name == "" {
		return
	}
	king := t.SessionStats.KingOfTable
	if king != nil && consecutive <= king.ConsecutiveWins {
		return
	}
	t.SessionStats.KingOfTable = &KingOfTable{
		Name:            name,
		ConsecutiveWins: consecutive,
		CrownedAt:       now,
	}
}

// LeaderboardRow is one line of the session leaderboard.
type LeaderboardRow struct {
	Name        string  `json:"name"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	GamesPlayed int     `json:"gamesPlayed"`
	WinRate     float64 `json:"winRate"`
	BestStreak  int     `json:"bestStreak"`
}

// Leaderboard orders the session's players by wins, then win rate, then
// games played, with the name as a stable final tiebreak.
func (t *Table) Leaderboard() []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(t.SessionStats.PlayerStats))
	for name, s := range t.SessionStats.PlayerStats {
		rate := 0.0
		if s.GamesPlayed > 0 {
			rate = float64(s.Wins) / float64(s.GamesPlayed)
		}
		rows = append(rows, LeaderboardRow{
			Name:        name,
			Wins:        s.Wins,
			Losses:      s.Losses,
			GamesPlayed: s.GamesPlayed,
			WinRate:     rate,
			BestStreak:  s.BestStreak,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed > b.GamesPlayed
		}
		return a.Name < b.Name
	})
	return rows
}

// LifetimeUpdatesFromSummary extracts one lifetime update per linked account
// from a finished game. A uid appears at most once even if its player was
// somehow listed twice.
func LifetimeUpdatesFromSummary(s *GameSummary) []LifetimeUpdate {
	if s == nil || len(s.PlayerUIDs) == 0 {
		return nil
	}
	winners := map[string]bool{}
	for _, n := range s.WinnerNames {
		winners[n] = true
	}
	seen := map[string]bool{}
	var out []LifetimeUpdate
	for _, p := range s.Players {
		uid, ok := s.PlayerUIDs[p.Name]
		if !ok || uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, LifetimeUpdate{
			UID:  uid,
			Name: p.Name,
			Mode: s.Mode,
			Won:  winners[p.Name],
		})
	}
	return out
}

// ApplyLifetimeResult folds one game outcome into a user's lifetime record.
func ApplyLifetimeResult(stats *LifetimeStats, mode GameMode, won bool, now int64) {
	stats.GamesPlayed++
	if won {
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.Losses++
		stats.CurrentStreak = 0
	}
	at := now
	stats.LastGameAt = &at
	if stats.ByMode == nil {
		stats.ByMode = map[GameMode]ModeStats{}
	}
	m := stats.ByMode[mode]
	m.GamesPlayed++
	if won {
		m.Wins++
	} else {
		m.Losses++
	}
	stats.ByMode[mode] = m
}
