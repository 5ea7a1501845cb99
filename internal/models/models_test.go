package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStatusJSON(t *testing.T) {
	data, err := json.Marshal(StatusPlaying)
	require.NoError(t, err)
	assert.Equal(t, `"PLAYING"`, string(data))

	var s RoomStatus
	require.NoError(t, json.Unmarshal([]byte(`"WINNER"`), &s))
	assert.Equal(t, StatusWinner, s)

	assert.Error(t, json.Unmarshal([]byte(`"FINISHED"`), &s), "unknown statuses must be rejected")
	_, err = json.Marshal(RoomStatus(9))
	assert.Error(t, err)
}

func TestPlayerHandIndex(t *testing.T) {
	p := NewPlayer("ana")
	p.Hand = []Card{{ID: "a1", Suit: SuitSpades, Rank: "2"}, {ID: "b2", Suit: SuitHearts, Rank: RankKing}}

	assert.Equal(t, 1, p.HandIndex("b2"))
	assert.Equal(t, -1, p.HandIndex("zz"))
	assert.True(t, p.Active())
}

func TestCardHelpers(t *testing.T) {
	assert.True(t, RankQueen.IsFace())
	assert.False(t, RankAce.IsFace())
	assert.Equal(t, "10D", Card{Suit: SuitDiamonds, Rank: "10"}.String())
	assert.Equal(t, "Joker", Card{Suit: SuitJoker, Rank: RankJoker}.String())
	assert.Len(t, Ranks, 13)
	assert.Len(t, Suits, 4)
}
