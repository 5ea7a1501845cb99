// internal/handlers/game_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/show/internal/game"
	"github.com/sirupsen/logrus"
)

var (
	errAlreadyInRoom = errors.New("already in a room")
	errNotInRoom     = errors.New("not in a room")
	errBadPayload    = errors.New("invalid payload")
	errUnknownType   = errors.New("unknown message type")
)

// ClientMessage is the inbound envelope. Payload is decoded per type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomPayload struct {
	Username   string `json:"username"`
	RoundLimit int    `json:"roundLimit"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ReplaceCardPayload struct {
	CardToDiscardID string `json:"cardToDiscardId"`
}

// GameServer routes client messages to the registry and its rooms.
type GameServer struct {
	Registry *game.Registry
	Hub      *Hub
	logger   *logrus.Logger
}

// NewGameServer wires the registry's broadcast callbacks to a new hub.
func NewGameServer(logger *logrus.Logger, registry *game.Registry) *GameServer {
	if logger == nil {
		logger = logrus.New()
	}
	hub := NewHub(logger)
	registry.BroadcastFn = hub.Broadcast
	registry.BroadcastToPlayerFn = hub.SendToPlayer
	return &GameServer{Registry: registry, Hub: hub, logger: logger}
}

// Connect registers a new client with the hub.
func (gs *GameServer) Connect(buf int) *Client {
	c := NewClient(buf)
	gs.Hub.Register(c)
	return c
}

// Disconnect makes the client leave its room and forgets it.
func (gs *GameServer) Disconnect(c *Client) {
	if roomID := c.RoomID(); roomID != "" {
		if err := gs.Registry.Leave(roomID, c.ID); err != nil && !errors.Is(err, game.ErrRoomNotFound) {
			gs.logger.WithFields(logrus.Fields{"room": roomID, "player": c.ID}).Warnf("leave on disconnect: %v", err)
		}
		c.setRoom("")
	}
	gs.Hub.Unregister(c)
}

// Dispatch handles one inbound message. Failures are reported to the sender as
// error_msg and returned.
func (gs *GameServer) Dispatch(c *Client, msg ClientMessage) error {
	err := gs.dispatch(c, msg)
	if err != nil {
		gs.logger.WithFields(logrus.Fields{
			"player": c.ID,
			"room":   c.RoomID(),
			"type":   msg.Type,
		}).Debugf("rejected: %v", err)
		c.enqueue(game.EncodeEvent(game.ErrorEvent(err)))
	}
	return err
}

func (gs *GameServer) dispatch(c *Client, msg ClientMessage) error {
	switch msg.Type {
	case "ping":
		c.enqueue(game.EncodeEvent(game.GameEvent{Type: game.EventPong}))
		return nil

	case "create_room":
		if c.RoomID() != "" {
			return errAlreadyInRoom
		}
		var p CreateRoomPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return err
		}
		room, _, err := gs.Registry.CreateRoomAs(c.ID, p.Username, p.RoundLimit)
		if err != nil {
			return err
		}
		c.setRoom(room.ID)
		return nil

	case "join_room":
		if c.RoomID() != "" {
			return errAlreadyInRoom
		}
		var p JoinRoomPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return err
		}
		room, _, err := gs.Registry.JoinRoomAs(c.ID, p.RoomID, p.Username)
		if err != nil {
			return err
		}
		c.setRoom(room.ID)
		return nil

	case "leave_room":
		roomID := c.RoomID()
		if roomID == "" {
			return errNotInRoom
		}
		c.setRoom("")
		return gs.Registry.Leave(roomID, c.ID)

	case "start_game":
		room, err := gs.currentRoom(c)
		if err != nil {
			return err
		}
		return room.StartGame(c.ID)

	case "draw_card":
		room, err := gs.currentRoom(c)
		if err != nil {
			return err
		}
		return room.DrawCard(c.ID)

	case "replace_card":
		room, err := gs.currentRoom(c)
		if err != nil {
			return err
		}
		var p ReplaceCardPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return err
		}
		return room.ReplaceCard(c.ID, p.CardToDiscardID)

	case "declare_show":
		room, err := gs.currentRoom(c)
		if err != nil {
			return err
		}
		_, err = room.DeclareShow(c.ID)
		return err

	default:
		return fmt.Errorf("%w: %q", errUnknownType, msg.Type)
	}
}

func (gs *GameServer) currentRoom(c *Client) (*game.Room, error) {
	roomID := c.RoomID()
	if roomID == "" {
		return nil, errNotInRoom
	}
	room, ok := gs.Registry.GetRoom(roomID)
	if !ok {
		c.setRoom("")
		return nil, game.ErrRoomNotFound
	}
	return room, nil
}

// decodePayload treats a missing payload as {}.
func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}
