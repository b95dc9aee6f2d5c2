package chalk

// HouseRulesUpdate carries only the house-rule fields the caller wants to
// change. HouseRules is the one deep-merged subtree: a partial update never
// clobbers the rules it does not mention.
type HouseRulesUpdate struct {
	BreakRule     *BreakRule `json:"breakRule"`
	FoulRule      *FoulRule  `json:"foulRule"`
	BlackSpotRule *bool      `json:"blackSpotRule"`
}

// SettingsUpdate is a shallow partial update of Settings; nil fields are
// left alone. NewPIN rotates the stored hash, never the plaintext.
type SettingsUpdate struct {
	TableName                 *string           `json:"tableName"`
	NoShowTimeoutSeconds      *int              `json:"noShowTimeoutSeconds"`
	HoldMaxMinutes            *int              `json:"holdMaxMinutes"`
	WinLimitEnabled           *bool             `json:"winLimitEnabled"`
	WinLimitCount             *int              `json:"winLimitCount"`
	AttractModeTimeoutMinutes *int              `json:"attractModeTimeoutMinutes"`
	SoundEnabled              *bool             `json:"soundEnabled"`
	SoundVolume               *float64          `json:"soundVolume"`
	HouseRules                *HouseRulesUpdate `json:"houseRules"`
	Theme                     *Theme            `json:"theme"`
	NewPIN                    *string           `json:"newPin"`
}

// ApplySettingsUpdate validates and merges a partial settings change into
// the table. The whole update is rejected if any field is out of range.
func (t *Table) ApplySettingsUpdate(u SettingsUpdate) error {
	if u.TableName != nil && (*u.TableName == "" || len(*u.TableName) > MaxNameLength) {
		return ErrInvalidSettings
	}
	if u.NoShowTimeoutSeconds != nil && *u.NoShowTimeoutSeconds < 10 {
		return ErrInvalidSettings
	}
	if u.HoldMaxMinutes != nil && *u.HoldMaxMinutes < 1 {
		return ErrInvalidSettings
	}
	if u.WinLimitCount != nil && *u.WinLimitCount < 1 {
		return ErrInvalidSettings
	}
	if u.AttractModeTimeoutMinutes != nil && *u.AttractModeTimeoutMinutes < 1 {
		return ErrInvalidSettings
	}
	if u.SoundVolume != nil && (*u.SoundVolume < 0 || *u.SoundVolume > 1) {
		return ErrInvalidSettings
	}
	if u.Theme != nil && *u.Theme != ThemeDark && *u.Theme != ThemeLight {
		return ErrInvalidSettings
	}
	if u.HouseRules != nil {
		if r := u.HouseRules.BreakRule; r != nil && *r != BreakWinner && *r != BreakLoser && *r != BreakAlternate {
			return ErrInvalidSettings
		}
		if r := u.HouseRules.FoulRule; r != nil && *r != FoulTwoShots && *r != FoulBallInHand {
			return ErrInvalidSettings
		}
	}
	if u.NewPIN != nil {
		if err := ValidatePIN(*u.NewPIN); err != nil {
			return err
		}
	}

	s := &t.Settings
	if u.TableName != nil {
		s.TableName = *u.TableName
		t.Name = *u.TableName
	}
	if u.NoShowTimeoutSeconds != nil {
		s.NoShowTimeoutSeconds = *u.NoShowTimeoutSeconds
	}
	if u.HoldMaxMinutes != nil {
		s.HoldMaxMinutes = *u.HoldMaxMinutes
	}
	if u.WinLimitEnabled != nil {
		s.WinLimitEnabled = *u.WinLimitEnabled
	}
	if u.WinLimitCount != nil {
		s.WinLimitCount = *u.WinLimitCount
	}
	if u.AttractModeTimeoutMinutes != nil {
		s.AttractModeTimeoutMinutes = *u.AttractModeTimeoutMinutes
	}
	if u.SoundEnabled != nil {
		s.SoundEnabled = *u.SoundEnabled
	}
	if u.SoundVolume != nil {
		s.SoundVolume = *u.SoundVolume
	}
	if u.HouseRules != nil {
		if u.HouseRules.BreakRule != nil {
			s.HouseRules.BreakRule = *u.HouseRules.BreakRule
		}
		if u.HouseRules.FoulRule != nil {
			s.HouseRules.FoulRule = *u.HouseRules.FoulRule
		}
		if u.HouseRules.BlackSpotRule != nil {
			s.HouseRules.BlackSpotRule = *u.HouseRules.BlackSpotRule
		}
	}
	if u.Theme != nil {
		s.Theme = *u.Theme
	}
	if u.NewPIN != nil {
		s.PINHash = HashPIN(*u.NewPIN)
	}
	return nil
}

// ResetSession wipes the night: queue, game, stats, and privacy go, while
// settings, the short code, the venue link, and the recent-name ring stay.
func (t *Table) ResetSession(now int64) {
	t.Queue = []QueueEntry{}
	t.CurrentGame = nil
	t.SessionStats = SessionStats{PlayerStats: map[string]PlayerStats{}}
	t.Session = SessionState{StartedAt: now}
	t.Status = TableIdle
	idle := now
	t.IdleSince = &idle
	t.LastActiveAt = now
}

// SetPrivateMode gates the queue to an allow list. With no explicit list
// the players already on the table keep their access.
func (t *Table) SetPrivateMode(enabled bool, allowedNames []string, now int64) {
	t.Session.IsPrivate = enabled
	if !enabled {
		t.Session.PrivatePlayerNames = nil
		t.RefreshStatus(now)
		return
	}
	if allowedNames == nil {
		allowedNames = t.ActiveNames()
	}
	t.Session.PrivatePlayerNames = append([]string(nil), allowedNames...)
	t.RefreshStatus(now)
}
