package game

import "errors"

// Errors returned by engine operations. State is always left unchanged when
// one of these is returned.
var (
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrDuplicatePlayer   = errors.New("duplicate player id")
	ErrNoWinners         = errors.New("no winners given")
	ErrNoPlayers         = errors.New("no players in roster")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid round transition")
	ErrInvalidSave       = errors.New("invalid save state")
)
