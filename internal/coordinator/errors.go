package coordinator

import (
	"context"
	"errors"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/store"
)

// Kind buckets command failures for the transport layer. The coordinator
// never sees HTTP; the API maps kinds to status codes.
type Kind string

const (
	KindNotFound                Kind = "not_found"
	KindConflict                Kind = "conflict"
	KindInvalidInput            Kind = "invalid_input"
	KindDuplicate               Kind = "duplicate"
	KindQueueFull               Kind = "queue_full"
	KindGameInProgress          Kind = "game_in_progress"
	KindNoActiveGame            Kind = "no_active_game"
	KindInsufficientPlayers     Kind = "insufficient_players"
	KindInvalidDoubles          Kind = "invalid_doubles_composition"
	KindAuthFailed              Kind = "auth_failed"
	KindPrivateSessionForbidden Kind = "private_session_forbidden"
	KindVenueNotEmpty           Kind = "venue_not_empty"
	KindUnavailable             Kind = "unavailable"
)

// Error carries a pre-classified kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// errNotOwner guards venue commands issued with someone else's token.
var errNotOwner = errors.New("coordinator: resource belongs to another owner")

// KindOf classifies any error a command returns. Engine sentinels map to
// their taxonomy kind; anything unrecognized is infrastructure trouble and
// comes back unavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, chalk.ErrEntryNotFound),
		errors.Is(err, chalk.ErrMatchNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrCodeTaken),
		errors.Is(err, store.ErrTxnConflict),
		errors.Is(err, chalk.ErrEntryNotWaiting),
		errors.Is(err, chalk.ErrNotKillerGame),
		errors.Is(err, chalk.ErrKillerNotDecided),
		errors.Is(err, chalk.ErrNotTournamentGame),
		errors.Is(err, chalk.ErrTournamentComplete),
		errors.Is(err, chalk.ErrMatchNotPlayable),
		errors.Is(err, chalk.ErrTableAlreadyOwned):
		return KindConflict
	case errors.Is(err, chalk.ErrInvalidPlayerNames),
		errors.Is(err, chalk.ErrNameNotOnEntry),
		errors.Is(err, chalk.ErrInvalidGameMode),
		errors.Is(err, chalk.ErrInvalidWinnerSide),
		errors.Is(err, chalk.ErrKillerPlayerUnknown),
		errors.Is(err, chalk.ErrInvalidTournament),
		errors.Is(err, chalk.ErrFramePlayerUnknown),
		errors.Is(err, chalk.ErrInvalidPIN),
		errors.Is(err, chalk.ErrInvalidShortCode),
		errors.Is(err, chalk.ErrInvalidSettings):
		return KindInvalidInput
	case errors.Is(err, chalk.ErrDuplicatePlayer):
		return KindDuplicate
	case errors.Is(err, chalk.ErrQueueFull):
		return KindQueueFull
	case errors.Is(err, chalk.ErrGameInProgress):
		return KindGameInProgress
	case errors.Is(err, chalk.ErrNoActiveGame):
		return KindNoActiveGame
	case errors.Is(err, chalk.ErrInsufficientPlayers):
		return KindInsufficientPlayers
	case errors.Is(err, chalk.ErrInvalidDoublesComposition):
		return KindInvalidDoubles
	case errors.Is(err, chalk.ErrPINMismatch), errors.Is(err, errNotOwner):
		return KindAuthFailed
	case errors.Is(err, chalk.ErrPrivateSessionForbidden):
		return KindPrivateSessionForbidden
	case errors.Is(err, chalk.ErrVenueNotEmpty):
		return KindVenueNotEmpty
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindUnavailable
	default:
		return KindUnavailable
	}
}
