package models

import (
	"github.com/google/uuid"
)

// Player is a seat in a room. It is owned by its room and only mutated under the room lock.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Hand       []Card    `json:"hand"`
	TotalScore int       `json:"totalScore"`
	Eliminated bool      `json:"eliminated"`

	// DrawnCard holds the card staged by draw_card until replace_card commits it.
	DrawnCard *Card `json:"currentDrawnCard,omitempty"`
}

// NewPlayer creates a player with a fresh id and an empty hand.
func NewPlayer(username string) *Player {
	return NewPlayerWithID(uuid.New(), username)
}

// NewPlayerWithID creates a player whose id is already known, e.g. the id of
// the connection it plays through.
func NewPlayerWithID(id uuid.UUID, username string) *Player {
	return &Player{
		ID:       id,
		Username: username,
		Hand:     []Card{},
	}
}

// Active reports whether the player still takes part in rounds.
func (p *Player) Active() bool {
	return !p.Eliminated
}

// HandIndex returns the position of cardID in the player's hand, or -1.
func (p *Player) HandIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
