// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu        sync.Mutex
	batches   [][]cache.RoomActionRecord
	abandoned []uuid.UUID
	failNext  bool
}

func (f *fakeSink) InsertActions(_ context.Context, recs []cache.RoomActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	cp := make([]cache.RoomActionRecord, len(recs))
	copy(cp, recs)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeSink) MarkAbandoned(_ context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, sessionID)
	return nil
}

func (f *fakeSink) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// fakeQueue hands out queued payloads, then reports an empty list.
type fakeQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *fakeQueue) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	item := q.items[0]
	q.items = q.items[1:]
	return redis.NewStringSliceResult([]string{keys[0], item}, nil)
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// session is the room lifetime all test payloads belong to unless one is given.
var session = uuid.New()

func payload(t *testing.T, roomID string, idx int, actionType string) string {
	return sessionPayload(t, session, roomID, idx, actionType)
}

func sessionPayload(t *testing.T, sessionID uuid.UUID, roomID string, idx int, actionType string) string {
	data, err := json.Marshal(cache.RoomActionRecord{
		RoomID:      roomID,
		SessionID:   sessionID,
		ActionIndex: idx,
		ActorID:     uuid.New(),
		ActionType:  actionType,
		Timestamp:   time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	return string(data)
}

func TestHandleFlushesFullBatch(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Options{BatchSize: 3, FlushDelay: time.Hour}, logrus.New())
	ctx := context.Background()

	s.Handle(ctx, payload(t, "ROOM01", 1, "create_room"))
	s.Handle(ctx, payload(t, "ROOM01", 2, "join_room"))
	assert.Equal(t, 2, s.Pending())
	assert.Equal(t, 0, sink.total())

	s.Handle(ctx, payload(t, "ROOM01", 3, "start_game"))
	assert.Equal(t, 0, s.Pending())
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 3)

	s.Handle(ctx, "{not json")
	assert.Equal(t, 0, s.Pending(), "bad payloads are dropped")
}

func TestFlushDropsFailedBatch(t *testing.T) {
	sink := &fakeSink{failNext: true}
	s := New(nil, sink, Options{BatchSize: 10}, logrus.New())
	ctx := context.Background()

	s.Handle(ctx, payload(t, "ROOM01", 1, "create_room"))
	s.Flush(ctx)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, sink.total())

	s.Flush(ctx) // empty batch is a no-op
	assert.Empty(t, sink.batches)
}

func TestSweepInactive(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Options{Inactivity: time.Minute}, logrus.New())
	ctx := context.Background()

	// the same code used by a finished room and by a later idle one
	done, idle := uuid.New(), uuid.New()
	s.Handle(ctx, sessionPayload(t, done, "ROOM01", 1, "create_room"))
	s.Handle(ctx, sessionPayload(t, done, "ROOM01", 2, "game_over"))
	s.Handle(ctx, sessionPayload(t, idle, "ROOM01", 1, "create_room"))

	assert.Empty(t, s.SweepInactive(ctx, time.Now()), "nothing is stale yet")

	stale := s.SweepInactive(ctx, time.Now().Add(2*time.Minute))
	assert.Equal(t, []uuid.UUID{idle}, stale, "finished rooms are not abandoned")
	assert.Equal(t, []uuid.UUID{idle}, sink.abandoned)

	assert.Empty(t, s.SweepInactive(ctx, time.Now().Add(time.Hour)), "rooms are only marked once")
}

func TestRunDrainsQueueAndFlushesOnStop(t *testing.T) {
	q := &fakeQueue{}
	for i := 1; i <= 5; i++ {
		q.items = append(q.items, payload(t, "ROOM01", i, "draw_card"))
	}
	sink := &fakeSink{}
	s := New(q, sink, Options{BatchSize: 2, FlushDelay: time.Hour}, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return q.len() == 0 && sink.total() == 4 && s.Pending() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 5, sink.total(), "the last partial batch is flushed on shutdown")
}

// Needs a reachable Redis; pushes one record and pops it through the service.
func TestRedisQueueIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := cache.Connect(ctx, "localhost:6379", 0)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer rdb.Close()

	queue := "show_actions_test_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)
	pub := cache.NewPublisher(rdb, queue, logrus.New())
	defer pub.Close()
	require.NoError(t, pub.Publish(ctx, cache.RoomActionRecord{RoomID: "ROOM01", SessionID: uuid.New(), ActionIndex: 1, ActionType: "create_room"}))

	sink := &fakeSink{}
	s := New(rdb, sink, Options{Queue: queue, BatchSize: 1, FlushDelay: 100 * time.Millisecond}, logrus.New())
	runCtx, stop := context.WithCancel(ctx)
	go s.Run(runCtx)
	defer stop()

	require.Eventually(t, func() bool { return sink.total() == 1 }, 2*time.Second, 10*time.Millisecond)
}
