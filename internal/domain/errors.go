package domain

import "errors"

// Sentinel errors for the arena. Rejections produced by command ingestion are
// expected steady-state outcomes; callers compare with errors.Is and never
// surface them to viewers.
var (
	ErrInsufficientBalance = errors.New("viewer balance is below the required amount")
	ErrUnknownItem         = errors.New("item not found in catalog")
	ErrUnknownViewer       = errors.New("viewer has not joined")
	ErrNotPlaying          = errors.New("match is not in progress")
	ErrBetAlreadyPlaced    = errors.New("viewer already placed a bet this match")
	ErrInvalidBet          = errors.New("bet side or amount is invalid")
	ErrUnknownCommand      = errors.New("unknown command")
	ErrMatchInProgress     = errors.New("match is already in progress")
	ErrInvalidEvent        = errors.New("event category is invalid")

	ErrHostClosed  = errors.New("connection to host closed")
	ErrHostStopped = errors.New("host is not running")

	ErrCommentaryUnavailable = errors.New("commentary generator unavailable")
)
