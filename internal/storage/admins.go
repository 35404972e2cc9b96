package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RegisterAdminChannel upserts the admin's delivery chat. The first
// registration time is kept; a chat id previously bound to another admin is
// moved to this one.
func (s *Store) RegisterAdminChannel(ctx context.Context, userID int64, username string, chatID int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM admin_chats WHERE chat_id = ? AND user_id <> ?`, chatID, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO admin_chats (user_id, username, chat_id, added_datetime)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				username = excluded.username,
				chat_id = excluded.chat_id`,
			userID, username, chatID, formatTime(time.Now()))
		return err
	})
	if err != nil {
		return fmt.Errorf("register admin %d: %w", userID, err)
	}
	return nil
}

func (s *Store) IsAdminRegistered(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_chats WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is admin registered %d: %w", userID, err)
	}
	return n > 0, nil
}

// ListAdminChannels returns the delivery chat ids of all registered admins.
func (s *Store) ListAdminChannels(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM admin_chats ORDER BY added_datetime, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list admin chats: %w", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admin chats: %w", err)
	}
	return out, nil
}
