package chalk

import "errors"

// Queue errors.
var (
	ErrQueueFull               = errors.New("chalk: queue is full")
	ErrInvalidPlayerNames      = errors.New("chalk: invalid player names")
	ErrDuplicatePlayer         = errors.New("chalk: player already in queue")
	ErrPrivateSessionForbidden = errors.New("chalk: name not allowed in private session")
	ErrEntryNotFound           = errors.New("chalk: queue entry not found")
	ErrEntryNotWaiting         = errors.New("chalk: queue entry is not waiting")
	ErrNameNotOnEntry          = errors.New("chalk: name not on queue entry")
)

// Game errors.
var (
	ErrGameInProgress            = errors.New("chalk: a game is already in progress")
	ErrNoActiveGame              = errors.New("chalk: no active game")
	ErrInsufficientPlayers       = errors.New("chalk: not enough waiting players")
	ErrInvalidDoublesComposition = errors.New("chalk: doubles requires two players per side")
	ErrInvalidGameMode           = errors.New("chalk: invalid game mode")
	ErrInvalidWinnerSide         = errors.New("chalk: invalid winner side")
)

// Killer errors.
var (
	ErrNotKillerGame       = errors.New("chalk: current game is not killer")
	ErrKillerPlayerUnknown = errors.New("chalk: player not in killer game")
	ErrKillerNotDecided    = errors.New("chalk: killer game has no winner yet")
)

// Tournament errors.
var (
	ErrNotTournamentGame  = errors.New("chalk: current game is not a tournament")
	ErrInvalidTournament  = errors.New("chalk: invalid tournament configuration")
	ErrTournamentComplete = errors.New("chalk: tournament is complete")
	ErrMatchNotFound      = errors.New("chalk: tournament match not found")
	ErrMatchNotPlayable   = errors.New("chalk: tournament match is not playable")
	ErrFramePlayerUnknown = errors.New("chalk: frame winner is not in the current match")
)

// Identity and settings errors.
var (
	ErrInvalidPIN       = errors.New("chalk: pin must be exactly four characters")
	ErrInvalidShortCode = errors.New("chalk: malformed short code")
	ErrPINMismatch      = errors.New("chalk: pin verification failed")
	ErrInvalidSettings  = errors.New("chalk: invalid settings value")
)

// Venue errors.
var (
	ErrVenueNotEmpty     = errors.New("chalk: venue still owns tables")
	ErrTableAlreadyOwned = errors.New("chalk: table already claimed by another venue")
)
