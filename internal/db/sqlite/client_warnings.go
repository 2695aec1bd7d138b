package sqlite

import (
	"context"
	"database/sql"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
)

// IncrementWarning creates the row with count=1 or bumps the existing one,
// returning the new count. The single UPSERT keeps concurrent increments
// from losing writes.
func (c *sqliteClient) IncrementWarning(ctx context.Context, chatID, userID int64) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var count int
	err := c.db.GetContext(ctx, &count, `
		INSERT INTO warnings (chat_id, user_id, count)
		VALUES (?, ?, 1)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		count = count + 1
		RETURNING count
	`, chatID, userID)
	if err != nil {
		return 0, errors.Wrap(err, "cant increment warning")
	}
	return count, nil
}

func (c *sqliteClient) GetWarnings(ctx context.Context, chatID, userID int64) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count,
		`SELECT count FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.Wrap(err, "cant get warnings")
	}
	return count, nil
}

func (c *sqliteClient) ResetWarnings(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return tool.Err(c.db.ExecContext(ctx,
		`DELETE FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID))
}
