package sqlite

import (
	"context"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
)

func (c *sqliteClient) AddBlacklistWord(ctx context.Context, chatID int64, word string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Set semantics, re-adding an existing word is a no-op.
	query := `
		INSERT INTO blacklist (chat_id, word)
		VALUES (?, ?)
		ON CONFLICT(chat_id, word) DO NOTHING
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, strings.ToLower(word)))
}

func (c *sqliteClient) RemoveBlacklistWord(ctx context.Context, chatID int64, word string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return tool.Err(c.db.ExecContext(ctx,
		`DELETE FROM blacklist WHERE chat_id = ? AND word = ?`, chatID, strings.ToLower(word)))
}

func (c *sqliteClient) ListBlacklist(ctx context.Context, chatID int64) ([]string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var words []string
	err := c.db.SelectContext(ctx, &words,
		`SELECT word FROM blacklist WHERE chat_id = ? ORDER BY word ASC`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "cant list blacklist")
	}
	return words, nil
}
