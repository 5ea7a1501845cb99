// internal/game/rules.go
package game

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/show/internal/models"
)

const (
	// HandSize is the number of cards dealt to every active player.
	HandSize = 3

	// FaceCardValue is what J, Q and K score.
	FaceCardValue = 10

	// BluffPenalty is added on top of a failed caller's own hand score.
	BluffPenalty = 25

	// DefaultRoundLimit is used when a room is created without a round limit.
	DefaultRoundLimit = 3

	MaxUsernameLength = 24
)

// CardValue scores a single card. Jokers and cards matching the open joker's
// rank are wild and score zero.
func CardValue(c models.Card, openJoker *models.Card) int {
	if c.IsJoker() {
		return 0
	}
	if openJoker != nil && c.Rank == openJoker.Rank {
		return 0
	}
	switch {
	case c.Rank == models.RankAce:
		return 1
	case c.Rank.IsFace():
		return FaceCardValue
	}
	n, err := strconv.Atoi(string(c.Rank))
	if err != nil || n < 2 || n > 10 {
		// unknown ranks never come out of BuildDeck
		return 0
	}
	return n
}

// HandScore sums the card values of a hand. It never goes below zero and does
// not depend on card order.
func HandScore(hand []models.Card, openJoker *models.Card) int {
	total := 0
	for _, c := range hand {
		total += CardValue(c, openJoker)
	}
	return total
}

// FailedShowPenalty is the amount added to a caller's total after a failed show.
func FailedShowPenalty(score int) int {
	return score + BluffPenalty
}

// NormalizeUsername trims the name and checks its length.
func NormalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxUsernameLength {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidUsername, MaxUsernameLength)
	}
	return name, nil
}

// NormalizeRoundLimit maps 0 to the default and rejects limits below one.
func NormalizeRoundLimit(limit, def int) (int, error) {
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidRoundLimit, limit)
	}
	return limit, nil
}
