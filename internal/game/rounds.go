// internal/game/rounds.go
package game

import (
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/models"
)

type roundOutcome struct {
	eliminated *models.Player
	winner     *models.Player
}

// completeRound runs once per resolved show. When the elimination cycle is
// complete the active player with the highest TotalScore is eliminated; ties
// go to the earliest seat, so exactly one player leaves per cycle.
func (r *Room) completeRound() roundOutcome {
	var out roundOutcome

	if r.CurrentRound >= r.RoundLimit {
		var worst *models.Player
		for _, p := range r.Players {
			if !p.Active() {
				continue
			}
			if worst == nil || p.TotalScore > worst.TotalScore {
				worst = p
			}
		}
		if worst != nil {
			worst.Eliminated = true
			worst.Hand = []models.Card{}
			worst.DrawnCard = nil
			r.Cycle++
			r.eliminatedIn[worst.ID] = r.Cycle
			out.eliminated = worst
			r.log.WithField("player", worst.ID).Infof("%s eliminated with %d after cycle %d",
				worst.Username, worst.TotalScore, r.Cycle)
			r.logAction(worst.ID, string(EventPlayerEliminated), map[string]interface{}{
				"username":   worst.Username,
				"totalScore": worst.TotalScore,
				"cycle":      r.Cycle,
			})
		}
		r.CurrentRound = 1
	} else {
		r.CurrentRound++
	}

	if r.activeCount() <= 1 {
		out.winner = r.finishLocked()
		return out
	}
	r.Status = models.StatusLobby
	r.Turn = 0
	return out
}

// finishLocked moves the room to WINNER and reports the last active player,
// or nil when nobody is left standing.
func (r *Room) finishLocked() *models.Player {
	var winner *models.Player
	if active := r.activePlayers(); len(active) == 1 {
		winner = active[0]
	}

	r.Status = models.StatusWinner
	r.Turn = 0
	for _, p := range r.Players {
		p.DrawnCard = nil
	}
	if winner != nil {
		r.WinnerID = winner.ID
		r.log.WithField("player", winner.ID).Infof("%s wins", winner.Username)
	} else {
		r.log.Info("game over without a winner")
	}
	r.logAction(r.WinnerID, string(EventGameOver), map[string]interface{}{"cycle": r.Cycle})

	if r.OnGameEnd != nil {
		r.OnGameEnd(GameResult{
			RoomID:    r.ID,
			SessionID: r.SessionID,
			WinnerID:  r.WinnerID,
			Standings: r.standingsLocked(),
		})
	}
	return winner
}

// fireGameOver announces the end of the game to every member.
func (r *Room) fireGameOver(winner *models.Player) {
	st := r.snapshotLocked(uuid.Nil)
	r.fireEvent(GameEvent{Type: EventGameOver, User: eventUser(winner), State: &st})
}

// Standings returns every seat ordered winner first, then by elimination
// cycle, latest first.
func (r *Room) Standings() []Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingsLocked()
}

func (r *Room) standingsLocked() []Standing {
	out := make([]Standing, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, Standing{
			PlayerID:     p.ID,
			Username:     p.Username,
			TotalScore:   p.TotalScore,
			Eliminated:   p.Eliminated,
			EliminatedIn: r.eliminatedIn[p.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return standingLess(out[i], out[j]) })
	return out
}

func standingLess(a, b Standing) bool {
	if a.Eliminated != b.Eliminated {
		return !a.Eliminated
	}
	return a.EliminatedIn > b.EliminatedIn
}
