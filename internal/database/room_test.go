// internal/database/room_test.go
package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/jason-s-yu/show/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRows(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()
	rows := ResultRows(winner, []game.Standing{
		{PlayerID: winner, Username: "alice", TotalScore: 12},
		{PlayerID: loser, Username: "bob", TotalScore: 60, Eliminated: true, EliminatedIn: 1},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Placement)
	assert.True(t, rows[0].DidWin)
	assert.Equal(t, 2, rows[1].Placement)
	assert.False(t, rows[1].DidWin)
	assert.Equal(t, 1, rows[1].EliminatedIn)

	for _, r := range ResultRows(uuid.Nil, []game.Standing{{PlayerID: loser}}) {
		assert.False(t, r.DidWin, "no winner means nobody won")
	}
}

// TestArchiveRoundTrip needs a scratch postgres in DATABASE_URL.
func TestArchiveRoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))

	roomID := "T" + uuid.NewString()[:5]
	first, second := uuid.New(), uuid.New()
	actor := uuid.New()
	actions := func(session uuid.UUID) []cache.RoomActionRecord {
		return []cache.RoomActionRecord{
			{RoomID: roomID, SessionID: session, ActionIndex: 1, ActorID: actor, ActionType: "create_room", ActionPayload: map[string]interface{}{"username": "alice"}, Timestamp: time.Now().UnixMilli()},
			{RoomID: roomID, SessionID: session, ActionIndex: 2, ActorID: actor, ActionType: "start_game", Timestamp: time.Now().UnixMilli()},
		}
	}
	require.NoError(t, InsertRoomActions(ctx, pool, actions(first)))
	// replays are ignored
	require.NoError(t, InsertRoomActions(ctx, pool, actions(first)))
	// a later room reusing the code keeps its own actions
	require.NoError(t, InsertRoomActions(ctx, pool, actions(second)))

	count := func(session uuid.UUID) int {
		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM room_actions WHERE session_id = $1`, session).Scan(&n))
		return n
	}
	assert.Equal(t, 2, count(first))
	assert.Equal(t, 2, count(second))

	require.NoError(t, RecordRoomResult(ctx, pool, game.GameResult{
		RoomID:    roomID,
		SessionID: first,
		WinnerID:  actor,
		Standings: []game.Standing{{PlayerID: actor, Username: "alice"}},
	}))
	status := func(session uuid.UUID) string {
		var s string
		require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM rooms WHERE session_id = $1`, session).Scan(&s))
		return s
	}
	assert.Equal(t, "completed", status(first))
	assert.Equal(t, "in_progress", status(second))

	require.NoError(t, MarkRoomAbandoned(ctx, pool, first))
	require.NoError(t, MarkRoomAbandoned(ctx, pool, second))
	assert.Equal(t, "completed", status(first), "finished rooms are never marked abandoned")
	assert.Equal(t, "abandoned", status(second))

	_, err = pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, roomID)
	require.NoError(t, err)
}
