package sqlite

import (
	"context"
	"database/sql"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/overseerbot/overseer/internal/db"
)

func (c *sqliteClient) SetAFK(ctx context.Context, userID int64, reason string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO afk (user_id, reason)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		reason = excluded.reason
	`
	return tool.Err(c.db.ExecContext(ctx, query, userID, reason))
}

func (c *sqliteClient) ClearAFK(ctx context.Context, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return tool.Err(c.db.ExecContext(ctx, `DELETE FROM afk WHERE user_id = ?`, userID))
}

func (c *sqliteClient) GetAFK(ctx context.Context, userID int64) (*db.AFKStatus, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	status := &db.AFKStatus{}
	err := c.db.GetContext(ctx, status, `
		SELECT user_id, COALESCE(reason, '') AS reason FROM afk WHERE user_id = ?
	`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "cant get afk status")
	}
	return status, nil
}
