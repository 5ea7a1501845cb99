// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
)

// CardView is a card as one viewer is allowed to see it. Hidden cards only
// expose their id.
type CardView struct {
	ID    string      `json:"id"`
	Known bool        `json:"known"`
	Suit  models.Suit `json:"suit,omitempty"`
	Rank  models.Rank `json:"rank,omitempty"`
}

// PlayerState is one seat from the perspective of the viewer.
type PlayerState struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Hand          []CardView `json:"hand"`
	HandSize      int        `json:"handSize"`
	TotalScore    int        `json:"totalScore"`
	Eliminated    bool       `json:"eliminated"`
	IsHost        bool       `json:"isHost"`
	IsCurrentTurn bool       `json:"isCurrentTurn"`
	HasDrawnCard  bool       `json:"hasDrawnCard"`
	DrawnCard     *CardView  `json:"currentDrawnCard,omitempty"` // only for the viewer
}

// RoomState is the room_data snapshot.
type RoomState struct {
	RoomID          string            `json:"roomId"`
	YourID          uuid.UUID         `json:"yourId"`
	Status          models.RoomStatus `json:"status"`
	HostID          uuid.UUID         `json:"hostId"`
	Players         []PlayerState     `json:"players"`
	OpenJoker       *models.Card      `json:"openJoker,omitempty"`
	Turn            int               `json:"turn"`
	CurrentPlayerID *uuid.UUID        `json:"currentPlayerId,omitempty"`
	RoundLimit      int               `json:"roundLimit"`
	CurrentRound    int               `json:"currentRound"`
	Cycle           int               `json:"cycle"`
	DeckSize        int               `json:"deckSize"`
	WinnerID        *uuid.UUID        `json:"winnerId,omitempty"`
}

// Snapshot returns the room as seen by viewer.
func (r *Room) Snapshot(viewer uuid.UUID) RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(viewer)
}

// snapshotLocked builds the viewer's state. Other players' hands are only
// revealed outside of PLAYING, after a show has been resolved.
func (r *Room) snapshotLocked(viewer uuid.UUID) RoomState {
	st := RoomState{
		RoomID:       r.ID,
		YourID:       viewer,
		Status:       r.Status,
		HostID:       r.HostID,
		Turn:         r.Turn,
		RoundLimit:   r.RoundLimit,
		CurrentRound: r.CurrentRound,
		Cycle:        r.Cycle,
		DeckSize:     r.Deck.Len(),
		Players:      make([]PlayerState, 0, len(r.Players)),
	}
	if r.OpenJoker != nil {
		oj := *r.OpenJoker
		st.OpenJoker = &oj
	}
	if r.Status == models.StatusPlaying && r.Turn >= 0 && r.Turn < len(r.Players) {
		id := r.Players[r.Turn].ID
		st.CurrentPlayerID = &id
	}
	if r.WinnerID != uuid.Nil {
		id := r.WinnerID
		st.WinnerID = &id
	}

	revealAll := r.Status != models.StatusPlaying
	for i, p := range r.Players {
		ps := PlayerState{
			ID:            p.ID,
			Username:      p.Username,
			HandSize:      len(p.Hand),
			TotalScore:    p.TotalScore,
			Eliminated:    p.Eliminated,
			IsHost:        p.ID == r.HostID,
			IsCurrentTurn: r.Status == models.StatusPlaying && i == r.Turn,
			HasDrawnCard:  p.DrawnCard != nil,
			Hand:          make([]CardView, len(p.Hand)),
		}
		self := p.ID == viewer
		for j, c := range p.Hand {
			ps.Hand[j] = viewCard(c, self || revealAll)
		}
		if self && p.DrawnCard != nil {
			dc := viewCard(*p.DrawnCard, true)
			ps.DrawnCard = &dc
		}
		st.Players = append(st.Players, ps)
	}
	return st
}

func viewCard(c models.Card, known bool) CardView {
	if !known {
		return CardView{ID: c.ID}
	}
	return CardView{ID: c.ID, Known: true, Suit: c.Suit, Rank: c.Rank}
}
