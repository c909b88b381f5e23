package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/scriptcoffee/challenge/internal/history"
)

// InsertMatch persists one finished match.
func InsertMatch(ctx context.Context, rec history.MatchRecord) error {
	q := `
		INSERT INTO matches (
			id, session_name, winner_team, winners, losers,
			winner_points, loser_points, forfeited, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, to_timestamp($9 / 1000.0))
		ON CONFLICT (id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			rec.SessionID, rec.SessionName, rec.WinnerTeam, rec.Winners, rec.Losers,
			rec.WinnerPoints, rec.LoserPoints, rec.Forfeited, rec.Timestamp,
		)
		return err
	})
}

// InsertActionTx writes one in-game action inside an existing transaction,
// upserting the owning game row first.
func InsertActionTx(ctx context.Context, tx pgx.Tx, rec history.ActionRecord) error {
	upsertQ := `
		INSERT INTO games (id, started_at)
		VALUES ($1, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertQ, rec.GameID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	insertQ := `
		INSERT INTO game_actions (game_id, action_type, payload, occurred_at)
		VALUES ($1, $2, $3, to_timestamp($4 / 1000.0))
	`
	_, err = tx.Exec(ctx, insertQ, rec.GameID, rec.Action, payload, rec.Timestamp)
	return err
}
