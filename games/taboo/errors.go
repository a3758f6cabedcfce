package taboo

import "errors"

var (
	// ErrConfiguration is returned when a game cannot be set up as requested:
	// no deck selected, selected decks without cards, or a bad team count.
	ErrConfiguration = errors.New("invalid game configuration")

	// ErrEmptyPool is returned when every selected deck is empty at draw time.
	ErrEmptyPool = errors.New("no cards available in the selected decks")

	ErrWrongPhase    = errors.New("action not allowed in the current phase")
	ErrPaused        = errors.New("round is paused")
	ErrNegativeScore = errors.New("score amount must not be negative")
)
