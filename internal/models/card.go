// internal/models/card.go
package models

// Suit identifies a card suit. Jokers carry the SuitJoker marker.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitJoker    Suit = "JK"
)

// Suits lists the four ranked suits in deck build order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank is the face of a card: "A", "2".."10", "J", "Q", "K" or "Joker".
type Rank string

const (
	RankAce   Rank = "A"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankJoker Rank = "Joker"
)

// Ranks lists the thirteen ranked faces in deck build order.
var Ranks = []Rank{RankAce, "2", "3", "4", "5", "6", "7", "8", "9", "10", RankJack, RankQueen, RankKing}

// IsFace reports whether the rank is J, Q or K.
func (r Rank) IsFace() bool {
	return r == RankJack || r == RankQueen || r == RankKing
}

// Card is immutable once dealt; rooms pass it around by value.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// IsJoker reports whether the card is one of the deck's joker cards.
func (c Card) IsJoker() bool {
	return c.Rank == RankJoker
}

func (c Card) String() string {
	if c.IsJoker() {
		return "Joker"
	}
	return string(c.Rank) + string(c.Suit)
}
