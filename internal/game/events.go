// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
)

// GameEventType is an enum-like type for outbound signals.
type GameEventType string

const (
	EventRoomCreated      GameEventType = "room_created"      // snapshot to the creator only
	EventRoomData         GameEventType = "room_data"         // per-viewer snapshot to every member
	EventError            GameEventType = "error_msg"         // targeted, non-fatal
	EventCelebration      GameEventType = "celebration"       // successful show, caller only
	EventPenalty          GameEventType = "penalty"           // failed show, caller only
	EventShowResult       GameEventType = "show_result"       // public reveal of the resolved round
	EventPlayerEliminated GameEventType = "player_eliminated" // public
	EventDeckRebuilt      GameEventType = "deck_rebuilt"      // public
	EventGameOver         GameEventType = "game_over"         // public, room reached WINNER
	EventPong             GameEventType = "pong"
)

// EventUser identifies a player inside an event.
type EventUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
}

// GameEvent is the envelope for everything sent to clients.
type GameEvent struct {
	Type GameEventType `json:"type"`
	User *EventUser    `json:"user,omitempty"`

	// Reason is set on error_msg.
	Reason string `json:"reason,omitempty"`

	// Username is set on player_eliminated.
	Username string `json:"username,omitempty"`

	DeckSize int         `json:"deckSize,omitempty"`
	Show     *ShowResult `json:"show,omitempty"`
	State    *RoomState  `json:"state,omitempty"`
}

// HandReveal is one player's hand as scored during a show.
type HandReveal struct {
	PlayerID uuid.UUID     `json:"playerId"`
	Username string        `json:"username"`
	Hand     []models.Card `json:"hand"`
	Score    int           `json:"score"`
}

// ShowResult describes how a declare_show was adjudicated.
type ShowResult struct {
	Caller           EventUser    `json:"caller"`
	Success          bool         `json:"success"`
	CallerScore      int          `json:"callerScore"`
	LowestOtherScore int          `json:"lowestOtherScore"`
	Penalty          int          `json:"penalty,omitempty"`
	Round            int          `json:"round"`
	OpenJoker        models.Card  `json:"openJoker"`
	Hands            []HandReveal `json:"hands"`

	// Eliminated is set when the show closed an elimination cycle.
	Eliminated *EventUser `json:"eliminated,omitempty"`
	// Winner is set when the show left a single active player.
	Winner *EventUser `json:"winner,omitempty"`
}

// ErrorEvent builds the error_msg signal for a failed request.
func ErrorEvent(err error) GameEvent {
	return GameEvent{Type: EventError, Reason: err.Error()}
}

func eventUser(p *models.Player) *EventUser {
	if p == nil {
		return nil
	}
	return &EventUser{ID: p.ID, Username: p.Username}
}
