package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/overseerbot/overseer/internal/db"
)

func (c *sqliteClient) PutNote(ctx context.Context, chatID int64, name, content string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO notes (chat_id, note_name, content)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, note_name) DO UPDATE SET
		content = excluded.content
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, strings.ToLower(name), content))
}

func (c *sqliteClient) GetNote(ctx context.Context, chatID int64, name string) (*db.Note, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	note := &db.Note{}
	err := c.db.GetContext(ctx, note, `
		SELECT chat_id, note_name, content FROM notes
		WHERE chat_id = ? AND note_name = ?
	`, chatID, strings.ToLower(name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "cant get note")
	}
	return note, nil
}

func (c *sqliteClient) ListNotes(ctx context.Context, chatID int64) ([]*db.Note, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var notes []*db.Note
	err := c.db.SelectContext(ctx, &notes, `
		SELECT chat_id, note_name, content FROM notes
		WHERE chat_id = ? ORDER BY note_name ASC
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "cant list notes")
	}
	return notes, nil
}

func (c *sqliteClient) DeleteNote(ctx context.Context, chatID int64, name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return tool.Err(c.db.ExecContext(ctx,
		`DELETE FROM notes WHERE chat_id = ? AND note_name = ?`, chatID, strings.ToLower(name)))
}
