// internal/game/game.go
package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/jason-s-yu/show/internal/models"
	"github.com/sirupsen/logrus"
)

// Standing is a player's final position when a room reaches WINNER.
type Standing struct {
	PlayerID     uuid.UUID `json:"playerId"`
	Username     string    `json:"username"`
	TotalScore   int       `json:"totalScore"`
	Eliminated   bool      `json:"eliminated"`
	EliminatedIn int       `json:"eliminatedIn,omitempty"` // cycle number, 0 for the winner
}

// GameResult is the final outcome of a room.
type GameResult struct {
	RoomID    string
	SessionID uuid.UUID
	WinnerID  uuid.UUID // uuid.Nil when nobody is left standing
	Standings []Standing
}

// OnGameEndFunc handles a finished room, e.g. archiving the result.
// It runs with the room lock held and must not block.
type OnGameEndFunc func(res GameResult)

// ActionRecorder receives every room mutation for the action log.
type ActionRecorder interface {
	Record(rec cache.RoomActionRecord)
}

// Room holds the entire state for a single session. Every exported method
// takes the room lock for its whole validate, mutate and broadcast sequence,
// so events on one room never interleave.
type Room struct {
	ID           string
	SessionID    uuid.UUID // unique per room lifetime, codes are reused
	HostID       uuid.UUID
	Players      []*models.Player // seat order == turn order == join order
	Deck         *Deck
	OpenJoker    *models.Card
	Turn         int
	Status       models.RoomStatus
	RoundLimit   int
	CurrentRound int
	Cycle        int // completed elimination cycles
	WinnerID     uuid.UUID
	CreatedAt    time.Time

	// BroadcastFn delivers a public event to the listed members.
	BroadcastFn func(recipients []uuid.UUID, ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single member.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// OnGameEnd is invoked once when the room reaches WINNER.
	OnGameEnd OnGameEndFunc

	// Recorder, if set, receives the action log.
	Recorder ActionRecorder

	mu           sync.Mutex
	closed       bool
	rng          *rand.Rand
	cardIDs      *CodeGenerator
	actionIndex  int
	eliminatedIn map[uuid.UUID]int
	log          logrus.FieldLogger
}

// NewRoom builds a LOBBY room hosted by host. A nil rng is replaced by a
// securely seeded one.
func NewRoom(id string, host *models.Player, roundLimit int, rng *rand.Rand, logger logrus.FieldLogger) *Room {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Room{
		ID:           id,
		SessionID:    uuid.New(),
		HostID:       host.ID,
		Players:      []*models.Player{host},
		Status:       models.StatusLobby,
		RoundLimit:   roundLimit,
		CurrentRound: 1,
		CreatedAt:    time.Now(),
		rng:          rng,
		cardIDs:      NewCodeGenerator(CardIDAlphabet, CardIDLength, rng),
		eliminatedIn: make(map[uuid.UUID]int),
		log:          logger.WithField("room", id),
	}
}

// Join appends a new player. Joining is only possible in LOBBY.
func (r *Room) Join(username string) (*models.Player, error) {
	return r.JoinAs(uuid.New(), username)
}

// JoinAs is Join with a caller-chosen player id.
func (r *Room) JoinAs(playerID uuid.UUID, username string) (*models.Player, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomNotFound
	}
	if r.Status != models.StatusLobby {
		return nil, ErrGameInProgress
	}
	if r.indexOf(playerID) >= 0 {
		return nil, ErrAlreadyJoined
	}

	p := models.NewPlayerWithID(playerID, name)
	r.Players = append(r.Players, p)
	r.log.WithField("player", p.ID).Infof("%s joined", name)
	r.logAction(p.ID, "join_room", map[string]interface{}{"username": name})
	r.broadcastState()
	return p, nil
}

// Leave removes a player, promotes a new host if needed and hands the turn on
// when the leaver held it. Once the game is under way, a leave that leaves a
// single active player ends it. It reports whether the room is now empty; an empty
// room is closed and rejects every further call.
func (r *Room) Leave(playerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrRoomNotFound
	}
	idx := r.indexOf(playerID)
	if idx < 0 {
		return false, ErrPlayerNotFound
	}
	leaver := r.Players[idx]
	heldTurn := r.Status == models.StatusPlaying && idx == r.Turn

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.logAction(playerID, "leave", map[string]interface{}{"username": leaver.Username})
	r.log.WithField("player", playerID).Infof("%s left", leaver.Username)

	if len(r.Players) == 0 {
		r.closed = true
		r.log.Info("room empty, closing")
		return true, nil
	}

	if r.HostID == playerID {
		r.HostID = r.Players[0].ID
		r.log.WithField("player", r.HostID).Info("host promoted")
	}

	switch {
	case r.Status == models.StatusLobby && r.started() && r.activeCount() <= 1:
		// between rounds nobody is left to play against
		r.fireGameOver(r.finishLocked())
	case r.Status != models.StatusPlaying:
		if r.Turn >= len(r.Players) {
			r.Turn = 0
		}
	case r.activeCount() <= 1:
		r.fireGameOver(r.finishLocked())
	case idx < r.Turn:
		r.Turn--
	case heldTurn:
		// the seat after the leaver slid into idx
		start := idx % len(r.Players)
		if r.Players[start].Active() {
			r.Turn = start
		} else {
			r.Turn = r.nextActiveIndex(start)
		}
	}

	r.broadcastState()
	return false, nil
}

// Closed reports whether the room has been emptied.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Summary is a short public description used for room listings.
type Summary struct {
	RoomID       string            `json:"roomId"`
	Status       models.RoomStatus `json:"status"`
	Players      int               `json:"players"`
	Active       int               `json:"active"`
	RoundLimit   int               `json:"roundLimit"`
	CurrentRound int               `json:"currentRound"`
	Cycle        int               `json:"cycle"`
}

// Summary returns the room's listing entry.
func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		RoomID:       r.ID,
		Status:       r.Status,
		Players:      len(r.Players),
		Active:       r.activeCount(),
		RoundLimit:   r.RoundLimit,
		CurrentRound: r.CurrentRound,
		Cycle:        r.Cycle,
	}
}

// announceCreated sends room_created to the host and room_data to members.
func (r *Room) announceCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()

	host := r.playerByID(r.HostID)
	r.logAction(r.HostID, "create_room", map[string]interface{}{
		"username":   host.Username,
		"roundLimit": r.RoundLimit,
	})
	st := r.snapshotLocked(r.HostID)
	r.fireEventToPlayer(r.HostID, GameEvent{Type: EventRoomCreated, State: &st})
	r.broadcastState()
}

// --- helpers below assume the lock is held ---

func (r *Room) indexOf(playerID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) playerByID(playerID uuid.UUID) *models.Player {
	if i := r.indexOf(playerID); i >= 0 {
		return r.Players[i]
	}
	return nil
}

func (r *Room) memberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) activePlayers() []*models.Player {
	active := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

// started reports whether a round has ever been dealt in this room.
func (r *Room) started() bool {
	return r.OpenJoker != nil
}

func (r *Room) activeCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// fireEvent broadcasts a public event to every member.
func (r *Room) fireEvent(ev GameEvent) {
	if r.BroadcastFn == nil {
		return
	}
	r.BroadcastFn(r.memberIDs(), ev)
}

// fireEventToPlayer sends an event only to a specific player.
func (r *Room) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	r.BroadcastToPlayerFn(playerID, ev)
}

// broadcastState sends every member their own room_data snapshot.
func (r *Room) broadcastState() {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	for _, p := range r.Players {
		st := r.snapshotLocked(p.ID)
		r.BroadcastToPlayerFn(p.ID, GameEvent{Type: EventRoomData, State: &st})
	}
}

// logAction hands the action to the recorder, if any.
func (r *Room) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if r.Recorder == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	r.Recorder.Record(cache.RoomActionRecord{
		RoomID:        r.ID,
		SessionID:     r.SessionID,
		ActionIndex:   r.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	})
}
