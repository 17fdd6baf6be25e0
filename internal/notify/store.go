package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertPending persists a batch of notifications in 'scheduled' state.
func InsertPending(ctx context.Context, pool *pgxpool.Pool, items []Item) (int, error) {
	inserted := 0
	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO notifications (
				quiniela_id, quiniela_name, user_id, match_id, fixture,
				old_state, new_state, message, status, detected_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'scheduled',$9)`,
			it.QuinielaID, it.QuinielaName, it.UserID, it.MatchID, it.Fixture,
			it.OldState, it.NewState, it.Message, it.DetectedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert notification: %w", err)
		}
		inserted++
	}
	return inserted, nil
}

// ClaimDue atomically claims a batch of scheduled notifications for sending.
// Uses FOR UPDATE SKIP LOCKED for safe concurrent dispatch.
func ClaimDue(ctx context.Context, pool *pgxpool.Pool) ([]Item, error) {
	rows, err := pool.Query(ctx, `
		UPDATE notifications
		SET status = 'sending', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'scheduled'
			ORDER BY detected_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, quiniela_id, quiniela_name, user_id, match_id, fixture,
			old_state, new_state, message, detected_at`,
		dispatchBatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due notifications: %w", err)
	}
	defer rows.Close()

	var claimed []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.QuinielaID, &it.QuinielaName, &it.UserID, &it.MatchID,
			&it.Fixture, &it.OldState, &it.NewState, &it.Message, &it.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan claimed: %w", err)
		}
		claimed = append(claimed, it)
	}
	return claimed, rows.Err()
}

// MarkSent marks a notification as successfully sent.
func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `
		UPDATE notifications SET status = 'sent', sent_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

// MarkFailed marks a claimed notification as failed with the send error.
func MarkFailed(ctx context.Context, pool *pgxpool.Pool, id int64, reason string) error {
	_, err := pool.Exec(ctx, `
		UPDATE notifications SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1`, id, reason)
	return err
}

// Recent returns the most recent notifications, newest first.
func Recent(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := pool.Query(ctx, "recent_notifications", limit)
	if err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.QuinielaID, &it.QuinielaName, &it.UserID, &it.MatchID,
			&it.Fixture, &it.OldState, &it.NewState, &it.Message, &it.Status,
			&it.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
