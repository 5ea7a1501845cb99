// internal/game/deck.go
package game

import (
	"math/rand/v2"

	"github.com/jason-s-yu/show/internal/models"
)

const (
	// JokerCount is the number of joker cards added to the 52 ranked cards.
	JokerCount = 2

	// CanonicalDeckSize is the size of every freshly built deck.
	CanonicalDeckSize = 52 + JokerCount
)

// Deck is an ordered pile of cards. The top of the deck is the end of the slice.
type Deck struct {
	cards []models.Card
}

// BuildDeck creates a full canonical deck with unique ids and shuffles it.
// Ids for which taken reports true are skipped so a rebuilt deck never
// collides with cards still in play.
func BuildDeck(rng *rand.Rand, ids *CodeGenerator, taken func(id string) bool) (*Deck, error) {
	seen := make(map[string]struct{}, CanonicalDeckSize)
	nextID := func() (string, error) {
		id, err := ids.Next(func(code string) bool {
			if _, dup := seen[code]; dup {
				return true
			}
			return taken != nil && taken(code)
		})
		if err != nil {
			return "", err
		}
		seen[id] = struct{}{}
		return id, nil
	}

	cards := make([]models.Card, 0, CanonicalDeckSize)
	for _, suit := range models.Suits {
		for _, rank := range models.Ranks {
			id, err := nextID()
			if err != nil {
				return nil, err
			}
			cards = append(cards, models.Card{ID: id, Suit: suit, Rank: rank})
		}
	}
	for i := 0; i < JokerCount; i++ {
		id, err := nextID()
		if err != nil {
			return nil, err
		}
		cards = append(cards, models.Card{ID: id, Suit: models.SuitJoker, Rank: models.RankJoker})
	}

	shuffle(rng, cards)
	return &Deck{cards: cards}, nil
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(rng *rand.Rand, cards []models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (models.Card, error) {
	if d == nil || len(d.cards) == 0 {
		return models.Card{}, ErrEmptyDeck
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, nil
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, bottom first.
func (d *Deck) Cards() []models.Card {
	if d == nil {
		return nil
	}
	out := make([]models.Card, len(d.cards))
	copy(out, d.cards)
	return out
}
