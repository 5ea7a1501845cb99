// internal/game/rules_test.go
package game

import (
	"strings"
	"testing"

	"github.com/jason-s-yu/show/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(id string, rank models.Rank) models.Card {
	suit := models.SuitSpades
	if rank == models.RankJoker {
		suit = models.SuitJoker
	}
	return models.Card{ID: id, Suit: suit, Rank: rank}
}

func TestCardValue(t *testing.T) {
	openJoker := card("oj", "7")

	tests := []struct {
		name string
		card models.Card
		want int
	}{
		{"ace", card("a", models.RankAce), 1},
		{"two", card("b", "2"), 2},
		{"ten", card("c", "10"), 10},
		{"jack", card("d", models.RankJack), FaceCardValue},
		{"queen", card("e", models.RankQueen), FaceCardValue},
		{"king", card("f", models.RankKing), FaceCardValue},
		{"joker", card("g", models.RankJoker), 0},
		{"matches open joker", card("h", "7"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CardValue(tt.card, &openJoker))
		})
	}

	assert.Equal(t, 7, CardValue(card("i", "7"), nil), "no open joker means no wild rank")
}

func TestHandScoreIsOrderIndependent(t *testing.T) {
	openJoker := card("oj", models.RankQueen)
	hand := []models.Card{card("a", models.RankKing), card("b", "4"), card("c", models.RankQueen)}
	want := HandScore(hand, &openJoker)
	assert.Equal(t, 14, want)

	perms := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range perms {
		shuffled := []models.Card{hand[perm[0]], hand[perm[1]], hand[perm[2]]}
		assert.Equal(t, want, HandScore(shuffled, &openJoker))
	}
	assert.Equal(t, 0, HandScore(nil, &openJoker))
}

func TestFailedShowPenalty(t *testing.T) {
	assert.Equal(t, 25, FailedShowPenalty(0))
	assert.Equal(t, 30, FailedShowPenalty(5))
}

func TestNormalizeUsername(t *testing.T) {
	name, err := NormalizeUsername("  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = NormalizeUsername("   ")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = NormalizeUsername(strings.Repeat("x", MaxUsernameLength+1))
	assert.ErrorIs(t, err, ErrInvalidUsername)

	name, err = NormalizeUsername(strings.Repeat("é", MaxUsernameLength))
	require.NoError(t, err, "length is counted in runes")
	assert.NotEmpty(t, name)
}

func TestNormalizeRoundLimit(t *testing.T) {
	limit, err := NormalizeRoundLimit(0, DefaultRoundLimit)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoundLimit, limit)

	limit, err = NormalizeRoundLimit(5, DefaultRoundLimit)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	_, err = NormalizeRoundLimit(-1, DefaultRoundLimit)
	assert.ErrorIs(t, err, ErrInvalidRoundLimit)
	_, err = NormalizeRoundLimit(-25, DefaultRoundLimit)
	assert.ErrorIs(t, err, ErrInvalidRoundLimit)

	for _, n := range []int{1, 21, 25, 1000} {
		limit, err = NormalizeRoundLimit(n, DefaultRoundLimit)
		require.NoError(t, err, "limit %d", n)
		assert.Equal(t, n, limit)
	}
}
