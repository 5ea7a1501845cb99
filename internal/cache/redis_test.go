package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a reachable Redis; REDIS_ADDR defaults to localhost:6379.
func TestPublishRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, addr, 0)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer rdb.Close()

	queue := "show_actions_test_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)

	pub := NewPublisher(rdb, queue, logrus.New())
	defer pub.Close()
	rec := RoomActionRecord{
		RoomID:        "ABC234",
		SessionID:     uuid.New(),
		ActionIndex:   1,
		ActorID:       uuid.New(),
		ActionType:    "draw_card",
		ActionPayload: map[string]interface{}{"deckSize": 40},
		Timestamp:     time.Now().UnixMilli(),
	}
	require.NoError(t, pub.Publish(ctx, rec))

	raw, err := rdb.LPop(ctx, queue).Result()
	require.NoError(t, err)

	var got RoomActionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec.RoomID, got.RoomID)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, rec.ActorID, got.ActorID)
	assert.Equal(t, "draw_card", got.ActionType)
}

func TestNewPublisherDefaultsQueue(t *testing.T) {
	pub := NewPublisher(nil, "", logrus.New())
	defer pub.Close()
	assert.Equal(t, DefaultQueueName, pub.Queue())
}

func TestRecordKeepsActionOrder(t *testing.T) {
	pub := NewPublisher(nil, "", logrus.New())

	var mu sync.Mutex
	var got []int
	pub.publish = func(_ context.Context, rec RoomActionRecord) error {
		mu.Lock()
		got = append(got, rec.ActionIndex)
		mu.Unlock()
		return nil
	}

	const n = 200
	session := uuid.New()
	for i := 1; i <= n; i++ {
		pub.Record(RoomActionRecord{RoomID: "ABC234", SessionID: session, ActionIndex: i})
	}
	pub.Close()

	require.Len(t, got, n)
	for i, idx := range got {
		assert.Equal(t, i+1, idx)
	}

	// records after Close are ignored
	pub.Record(RoomActionRecord{RoomID: "ABC234", ActionIndex: n + 1})
	pub.Close()
	assert.Len(t, got, n)
}
