// internal/game/registry.go
package game

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
	"github.com/sirupsen/logrus"
)

// Registry owns every live room, keyed by room code. The map lock is only held
// to look rooms up or insert/remove them; gameplay happens under each room's
// own lock.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	codes *CodeGenerator

	// DefaultRoundLimit is used when CreateRoom is called with 0.
	DefaultRoundLimit int

	// Hooks copied onto every new room.
	BroadcastFn         func(recipients []uuid.UUID, ev GameEvent)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	OnGameEnd           OnGameEndFunc
	Recorder            ActionRecorder

	log logrus.FieldLogger
}

// NewRegistry returns an empty registry with a securely seeded room code
// generator.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		rooms:             make(map[string]*Room),
		codes:             NewCodeGenerator(RoomCodeAlphabet, RoomCodeLength, nil),
		DefaultRoundLimit: DefaultRoundLimit,
		log:               logger,
	}
}

// CreateRoom opens a LOBBY room hosted by a new player called username.
func (g *Registry) CreateRoom(username string, roundLimit int) (*Room, *models.Player, error) {
	return g.CreateRoomAs(uuid.New(), username, roundLimit)
}

// CreateRoomAs is CreateRoom with a caller-chosen host id.
func (g *Registry) CreateRoomAs(hostID uuid.UUID, username string, roundLimit int) (*Room, *models.Player, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, nil, err
	}
	limit, err := NormalizeRoundLimit(roundLimit, g.DefaultRoundLimit)
	if err != nil {
		return nil, nil, err
	}

	g.mu.Lock()
	code, err := g.codes.Next(func(c string) bool {
		_, taken := g.rooms[c]
		return taken
	})
	if err != nil {
		g.mu.Unlock()
		return nil, nil, err
	}
	host := models.NewPlayerWithID(hostID, name)
	room := NewRoom(code, host, limit, nil, g.log)
	room.BroadcastFn = g.BroadcastFn
	room.BroadcastToPlayerFn = g.BroadcastToPlayerFn
	room.OnGameEnd = g.OnGameEnd
	room.Recorder = g.Recorder
	g.rooms[code] = room
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{"room": code, "player": host.ID}).
		Infof("room created by %s, round limit %d", name, limit)
	room.announceCreated()
	return room, host, nil
}

// JoinRoom adds a player called username to roomID.
func (g *Registry) JoinRoom(roomID, username string) (*Room, *models.Player, error) {
	return g.JoinRoomAs(uuid.New(), roomID, username)
}

// JoinRoomAs is JoinRoom with a caller-chosen player id.
func (g *Registry) JoinRoomAs(playerID uuid.UUID, roomID, username string) (*Room, *models.Player, error) {
	room, ok := g.GetRoom(roomID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	p, err := room.JoinAs(playerID, username)
	if err != nil {
		return nil, nil, err
	}
	return room, p, nil
}

// Leave removes playerID from roomID and drops the room once it is empty.
func (g *Registry) Leave(roomID string, playerID uuid.UUID) error {
	room, ok := g.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	empty, err := room.Leave(playerID)
	if err != nil {
		return err
	}
	if empty {
		g.remove(roomID, room)
	}
	return nil
}

// GetRoom looks up a live room.
func (g *Registry) GetRoom(roomID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[roomID]
	return r, ok
}

// DeleteRoom closes and forgets a room regardless of who is still in it.
func (g *Registry) DeleteRoom(roomID string) {
	g.mu.Lock()
	room, ok := g.rooms[roomID]
	delete(g.rooms, roomID)
	g.mu.Unlock()
	if !ok {
		return
	}
	room.mu.Lock()
	room.closed = true
	room.mu.Unlock()
	g.log.WithField("room", roomID).Info("room deleted")
}

// Rooms lists every live room ordered by code.
func (g *Registry) Rooms() []Summary {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.Unlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		if r.Closed() {
			continue
		}
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// remove deletes roomID only if the map still points at room.
func (g *Registry) remove(roomID string, room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[roomID] == room {
		delete(g.rooms, roomID)
		g.log.WithField("room", roomID).Info("room removed, last player left")
	}
}
