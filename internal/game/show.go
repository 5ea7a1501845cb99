// internal/game/show.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
)

// DeclareShow adjudicates callerID's claim to hold the lowest hand among the
// active players. The caller wins only with a strictly lower score than every
// other active player; a tie is a failed bluff. The round then ends and the
// elimination controller runs in the same critical section.
func (r *Room) DeclareShow(callerID uuid.UUID) (ShowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requirePlaying(); err != nil {
		return ShowResult{}, err
	}
	caller := r.playerByID(callerID)
	if caller == nil {
		return ShowResult{}, ErrPlayerNotFound
	}
	if !caller.Active() {
		return ShowResult{}, ErrPlayerEliminated
	}
	active := r.activePlayers()
	if len(active) < 2 {
		return ShowResult{}, ErrNotEnoughPlayers
	}

	res := ShowResult{
		Caller:    *eventUser(caller),
		Round:     r.CurrentRound,
		OpenJoker: *r.OpenJoker,
		Hands:     make([]HandReveal, 0, len(active)),
	}

	scores := make(map[uuid.UUID]int, len(active))
	lowestOther := -1
	for _, p := range active {
		s := HandScore(p.Hand, r.OpenJoker)
		scores[p.ID] = s
		hand := make([]models.Card, len(p.Hand))
		copy(hand, p.Hand)
		res.Hands = append(res.Hands, HandReveal{PlayerID: p.ID, Username: p.Username, Hand: hand, Score: s})
		if p.ID != callerID && (lowestOther < 0 || s < lowestOther) {
			lowestOther = s
		}
	}
	res.CallerScore = scores[callerID]
	res.LowestOtherScore = lowestOther
	res.Success = res.CallerScore < lowestOther

	if res.Success {
		for _, p := range active {
			if p.ID != callerID {
				p.TotalScore += scores[p.ID]
			}
		}
	} else {
		res.Penalty = FailedShowPenalty(res.CallerScore)
		caller.TotalScore += res.Penalty
	}

	// staged cards die with the round
	for _, p := range r.Players {
		p.DrawnCard = nil
	}

	r.log.WithField("player", callerID).Infof("show by %s: score %d vs %d, success=%v",
		caller.Username, res.CallerScore, lowestOther, res.Success)
	r.logAction(callerID, "declare_show", map[string]interface{}{
		"success":          res.Success,
		"callerScore":      res.CallerScore,
		"lowestOtherScore": lowestOther,
		"penalty":          res.Penalty,
		"round":            res.Round,
	})

	out := r.completeRound()
	res.Eliminated = eventUser(out.eliminated)
	res.Winner = eventUser(out.winner)

	if res.Success {
		r.fireEventToPlayer(callerID, GameEvent{Type: EventCelebration, User: &res.Caller, Show: &res})
	} else {
		r.fireEventToPlayer(callerID, GameEvent{Type: EventPenalty, User: &res.Caller, Show: &res})
	}
	r.fireEvent(GameEvent{Type: EventShowResult, User: &res.Caller, Show: &res})
	if out.eliminated != nil {
		r.fireEvent(GameEvent{Type: EventPlayerEliminated, User: eventUser(out.eliminated), Username: out.eliminated.Username})
	}
	if r.Status == models.StatusWinner {
		r.fireGameOver(out.winner)
	}
	r.broadcastState()
	return res, nil
}
