package game

import "errors"

// Validation failures returned by registry and room operations. None of them
// are fatal; the transport layer reports them to the requester and carries on.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameInProgress     = errors.New("game in progress")
	ErrGameOver           = errors.New("game is over")
	ErrNotPlaying         = errors.New("no round in progress")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNoStagedCard       = errors.New("draw a card first")
	ErrAlreadyDrawn       = errors.New("card already drawn this turn")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrEmptyDeck          = errors.New("deck is empty")
	ErrPlayerNotFound     = errors.New("player not in room")
	ErrAlreadyJoined      = errors.New("player already in room")
	ErrPlayerEliminated   = errors.New("player is eliminated")
	ErrNotEnoughPlayers   = errors.New("need at least two active players")
	ErrNoActivePlayers    = errors.New("no active players")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidRoundLimit  = errors.New("invalid round limit")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")
)
