// internal/historian/historian.go is an asynchronous historian that pops room
// actions from a Redis queue and persists them to PostgreSQL.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/jason-s-yu/show/internal/database"
	"github.com/jason-s-yu/show/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Popper is the slice of the Redis client the historian reads with.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Sink persists what the historian collects.
type Sink interface {
	InsertActions(ctx context.Context, recs []cache.RoomActionRecord) error
	MarkAbandoned(ctx context.Context, sessionID uuid.UUID) error
}

// PostgresSink writes through the database package.
type PostgresSink struct {
	Pool *pgxpool.Pool
}

func (s PostgresSink) InsertActions(ctx context.Context, recs []cache.RoomActionRecord) error {
	return database.InsertRoomActions(ctx, s.Pool, recs)
}

func (s PostgresSink) MarkAbandoned(ctx context.Context, sessionID uuid.UUID) error {
	return database.MarkRoomAbandoned(ctx, s.Pool, sessionID)
}

// Options tune batching and abandonment.
type Options struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration // time until a silent room is marked abandoned
}

// Service batches room actions and marks rooms abandoned once they have been
// silent longer than the inactivity threshold.
type Service struct {
	queue Popper
	sink  Sink
	opts  Options
	log   logrus.FieldLogger

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time // by room session

	batchMu   sync.Mutex
	batch     []cache.RoomActionRecord
	lastFlush time.Time
}

// New builds a Service. Zero options get the defaults used by cmd/historian.
func New(queue Popper, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	if opts.Queue == "" {
		opts.Queue = cache.DefaultQueueName
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		queue:        queue,
		sink:         sink,
		opts:         opts,
		log:          logger,
		lastActivity: make(map[uuid.UUID]time.Time),
		batch:        make([]cache.RoomActionRecord, 0, opts.BatchSize),
		lastFlush:    time.Now(),
	}
}

// Run starts the inactivity sweep and reads the queue until ctx is done. The
// pending batch is flushed before returning.
func (s *Service) Run(ctx context.Context) {
	go s.inactivityLoop(ctx)

	s.log.Infof("historian reading %s", s.opts.Queue)
	s.readLoop(ctx)

	// ctx is already done; give the final flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.queue.BLPop(ctx, s.opts.FlushDelay, s.opts.Queue).Result()
		switch {
		case err == nil && len(res) == 2:
			// res[0] is the queue name and res[1] the payload.
			s.Handle(ctx, res[1])
		case err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil:
			s.log.Errorf("BLPop: %v", err)
			// avoid spinning on a dead connection
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}

		s.batchMu.Lock()
		due := time.Since(s.lastFlush) >= s.opts.FlushDelay
		s.batchMu.Unlock()
		if due {
			s.Flush(ctx)
		}
	}
}

// Handle decodes one queued payload and adds it to the batch, flushing when
// the batch is full.
func (s *Service) Handle(ctx context.Context, payload string) {
	var rec cache.RoomActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.log.Warnf("invalid action record: %v", err)
		return
	}

	s.activityMu.Lock()
	if rec.ActionType == string(game.EventGameOver) {
		// finished rooms are archived by the server, never abandoned
		delete(s.lastActivity, rec.SessionID)
	} else {
		s.lastActivity[rec.SessionID] = time.Now()
	}
	s.activityMu.Unlock()

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()
	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch in a single transaction. A failed batch is
// logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.RoomActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.InsertActions(ctx, batchCopy); err != nil {
		s.log.Errorf("flush %d actions: %v", len(batchCopy), err)
		return
	}
	s.log.Debugf("flushed %d actions", len(batchCopy))
}

// Pending returns the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepInactive(ctx, now)
		}
	}
}

// SweepInactive marks every room session silent since before now-Inactivity
// as abandoned and stops tracking it.
func (s *Service) SweepInactive(ctx context.Context, now time.Time) []uuid.UUID {
	var stale []uuid.UUID
	s.activityMu.Lock()
	for sessionID, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, sessionID)
			delete(s.lastActivity, sessionID)
		}
	}
	s.activityMu.Unlock()

	for _, sessionID := range stale {
		if err := s.sink.MarkAbandoned(ctx, sessionID); err != nil {
			s.log.WithField("session", sessionID).Errorf("mark abandoned: %v", err)
			continue
		}
		s.log.WithField("session", sessionID).Info("marked abandoned due to inactivity")
	}
	return stale
}
