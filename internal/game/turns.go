// internal/game/turns.go
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
)

// StartGame deals a new round. Only the host may start, and only from LOBBY.
func (r *Room) StartGame(requesterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if requesterID != r.HostID {
		return ErrNotHost
	}
	switch r.Status {
	case models.StatusPlaying:
		return ErrGameInProgress
	case models.StatusWinner:
		return ErrGameOver
	}
	if r.activeCount() < 2 {
		return ErrNotEnoughPlayers
	}

	// deal into locals so a failure leaves the room untouched
	deck, err := BuildDeck(r.rng, r.cardIDs, nil)
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}
	dealt := make(map[string]struct{})
	var rebuilt []int
	draw := func() (models.Card, error) {
		c, err := deck.Draw()
		if errors.Is(err, ErrEmptyDeck) {
			if deck, err = r.rebuildDeck(dealt); err != nil {
				return models.Card{}, err
			}
			rebuilt = append(rebuilt, deck.Len())
			c, err = deck.Draw()
		}
		if err != nil {
			return models.Card{}, err
		}
		dealt[c.ID] = struct{}{}
		return c, nil
	}

	openJoker, err := draw()
	if err != nil {
		return fmt.Errorf("reveal open joker: %w", err)
	}
	hands := make([][]models.Card, len(r.Players))
	// one card at a time around the table
	for i := 0; i < HandSize; i++ {
		for j, p := range r.Players {
			if !p.Active() {
				continue
			}
			c, err := draw()
			if err != nil {
				return fmt.Errorf("deal: %w", err)
			}
			hands[j] = append(hands[j], c)
		}
	}

	r.Deck = deck
	r.OpenJoker = &openJoker
	for j, p := range r.Players {
		p.DrawnCard = nil
		if hands[j] == nil {
			p.Hand = []models.Card{}
			continue
		}
		p.Hand = hands[j]
	}
	for _, size := range rebuilt {
		r.announceRebuild(size)
	}

	r.Status = models.StatusPlaying
	r.Turn = r.nextActiveIndex(-1)

	r.log.Infof("round %d/%d dealt, open joker %s", r.CurrentRound, r.RoundLimit, openJoker)
	r.logAction(requesterID, "start_game", map[string]interface{}{
		"round":     r.CurrentRound,
		"cycle":     r.Cycle,
		"openJoker": openJoker,
	})
	r.broadcastState()
	return nil
}

// DrawCard stages the top card for the player whose turn it is.
func (r *Room) DrawCard(requesterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.currentTurnPlayer(requesterID)
	if err != nil {
		return err
	}
	if p.DrawnCard != nil {
		return ErrAlreadyDrawn
	}

	c, err := r.drawLocked()
	if err != nil {
		return err
	}
	p.DrawnCard = &c

	r.logAction(requesterID, "draw_card", map[string]interface{}{"cardId": c.ID, "deckSize": r.Deck.Len()})
	r.broadcastState()
	return nil
}

// ReplaceCard swaps the staged card into the hand in place of discardCardID
// and passes the turn on.
func (r *Room) ReplaceCard(requesterID uuid.UUID, discardCardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.currentTurnPlayer(requesterID)
	if err != nil {
		return err
	}
	if p.DrawnCard == nil {
		return ErrNoStagedCard
	}
	idx := p.HandIndex(discardCardID)
	if idx < 0 {
		return ErrCardNotInHand
	}
	next := r.nextActiveIndex(r.Turn)
	if next < 0 {
		return ErrNoActivePlayers
	}

	discarded := p.Hand[idx]
	p.Hand[idx] = *p.DrawnCard
	p.DrawnCard = nil
	r.Turn = next

	r.logAction(requesterID, "replace_card", map[string]interface{}{
		"discarded": discarded,
		"index":     idx,
		"nextTurn":  r.Players[next].ID,
	})
	r.broadcastState()
	return nil
}

// currentTurnPlayer validates that a round is running and that the requester
// holds the turn.
func (r *Room) currentTurnPlayer(requesterID uuid.UUID) (*models.Player, error) {
	if err := r.requirePlaying(); err != nil {
		return nil, err
	}
	p := r.playerByID(requesterID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if r.Turn < 0 || r.Turn >= len(r.Players) || r.Players[r.Turn].ID != requesterID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (r *Room) requirePlaying() error {
	if r.closed {
		return ErrRoomNotFound
	}
	switch r.Status {
	case models.StatusPlaying:
		return nil
	case models.StatusWinner:
		return ErrGameOver
	default:
		return ErrNotPlaying
	}
}

// nextActiveIndex returns the first active seat after from, wrapping around.
// The search is bounded by the number of seats and returns -1 if nobody is
// active. from may be -1 to start at seat 0.
func (r *Room) nextActiveIndex(from int) int {
	n := len(r.Players)
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if r.Players[i].Active() {
			return i
		}
	}
	return -1
}

// drawLocked pops a card, rebuilding the deck when it runs out. The rebuilt
// deck avoids ids that are still held in hands, staging slots or as the open joker.
func (r *Room) drawLocked() (models.Card, error) {
	c, err := r.Deck.Draw()
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrEmptyDeck) {
		return models.Card{}, err
	}

	deck, err := r.rebuildDeck(r.heldCardIDs())
	if err != nil {
		return models.Card{}, err
	}
	r.Deck = deck
	r.announceRebuild(deck.Len())

	return r.Deck.Draw()
}

// rebuildDeck builds a fresh deck whose ids avoid held.
func (r *Room) rebuildDeck(held map[string]struct{}) (*Deck, error) {
	deck, err := BuildDeck(r.rng, r.cardIDs, func(id string) bool {
		_, ok := held[id]
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild deck: %w", err)
	}
	return deck, nil
}

func (r *Room) announceRebuild(size int) {
	r.log.Infof("deck exhausted, rebuilt with %d cards", size)
	r.logAction(uuid.Nil, string(EventDeckRebuilt), map[string]interface{}{"deckSize": size})
	r.fireEvent(GameEvent{Type: EventDeckRebuilt, DeckSize: size})
}

func (r *Room) heldCardIDs() map[string]struct{} {
	held := make(map[string]struct{})
	if r.OpenJoker != nil {
		held[r.OpenJoker.ID] = struct{}{}
	}
	for _, p := range r.Players {
		for _, c := range p.Hand {
			held[c.ID] = struct{}{}
		}
		if p.DrawnCard != nil {
			held[p.DrawnCard.ID] = struct{}{}
		}
	}
	return held
}
