// internal/database/room.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/jason-s-yu/show/internal/game"
)

// ResultRow is one line of room_results.
type ResultRow struct {
	PlayerID     uuid.UUID
	Username     string
	Placement    int
	TotalScore   int
	EliminatedIn int
	DidWin       bool
}

// ResultRows turns final standings (winner first) into placements starting at 1.
func ResultRows(winner uuid.UUID, standings []game.Standing) []ResultRow {
	rows := make([]ResultRow, len(standings))
	for i, s := range standings {
		rows[i] = ResultRow{
			PlayerID:     s.PlayerID,
			Username:     s.Username,
			Placement:    i + 1,
			TotalScore:   s.TotalScore,
			EliminatedIn: s.EliminatedIn,
			DidWin:       winner != uuid.Nil && s.PlayerID == winner,
		}
	}
	return rows
}

// RecordRoomResult archives the outcome of a finished room.
func RecordRoomResult(ctx context.Context, db TxBeginner, res game.GameResult) error {
	err := pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertRoom := `
			INSERT INTO rooms (session_id, code, status, ended_at)
			VALUES ($1, $2, 'completed', NOW())
			ON CONFLICT (session_id) DO UPDATE SET status = 'completed', ended_at = NOW()
		`
		if _, e := tx.Exec(ctx, upsertRoom, res.SessionID, res.RoomID); e != nil {
			return e
		}

		q := `
			INSERT INTO room_results (session_id, player_id, username, placement, total_score, eliminated_in, did_win)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (session_id, player_id)
			DO UPDATE SET username=$3, placement=$4, total_score=$5, eliminated_in=$6, did_win=$7
		`
		for _, r := range ResultRows(res.WinnerID, res.Standings) {
			if _, e := tx.Exec(ctx, q, res.SessionID, r.PlayerID, r.Username, r.Placement, r.TotalScore, r.EliminatedIn, r.DidWin); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record room result: %w", err)
	}
	return nil
}

// InsertRoomActions persists a batch of action records in one transaction,
// creating room rows on first sight.
func InsertRoomActions(ctx context.Context, db TxBeginner, recs []cache.RoomActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertRoomActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertRoomActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertRoomActionTx(ctx context.Context, tx pgx.Tx, rec cache.RoomActionRecord) error {
	upsertRoomQ := `
		INSERT INTO rooms (session_id, code, status)
		VALUES ($1, $2, 'in_progress')
		ON CONFLICT (session_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertRoomQ, rec.SessionID, rec.RoomID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	// redelivered records are skipped
	actionInsertQ := `
		INSERT INTO room_actions (session_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.SessionID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	return err
}

// MarkRoomAbandoned flags a room that stopped producing actions without finishing.
func MarkRoomAbandoned(ctx context.Context, db TxBeginner, sessionID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE rooms
			SET status = 'abandoned', ended_at = NOW()
			WHERE session_id = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, sessionID)
		return err
	})
}
