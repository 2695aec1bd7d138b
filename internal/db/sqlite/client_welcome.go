package sqlite

import (
	"context"
	"database/sql"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/overseerbot/overseer/internal/db"
)

// Each welcome mutation touches only its named columns, the UPSERTs below
// must never clobber the other fields of the row.

func (c *sqliteClient) SetWelcomeText(ctx context.Context, chatID int64, text, photo string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO welcomes (chat_id, welcome_text, photo)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
		welcome_text = excluded.welcome_text,
		photo = excluded.photo
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, text, photo))
}

func (c *sqliteClient) SetGoodbyeText(ctx context.Context, chatID int64, text string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO welcomes (chat_id, goodbye_text)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
		goodbye_text = excluded.goodbye_text
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, text))
}

func (c *sqliteClient) ToggleWelcome(ctx context.Context, chatID int64, enabled bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO welcomes (chat_id, welcome_enabled)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
		welcome_enabled = excluded.welcome_enabled
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, enabled))
}

func (c *sqliteClient) ToggleGoodbye(ctx context.Context, chatID int64, enabled bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO welcomes (chat_id, goodbye_enabled)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
		goodbye_enabled = excluded.goodbye_enabled
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, enabled))
}

func (c *sqliteClient) GetWelcomeConfig(ctx context.Context, chatID int64) (*db.WelcomeConfig, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	cfg := &db.WelcomeConfig{}
	err := c.db.GetContext(ctx, cfg, `
		SELECT chat_id, COALESCE(welcome_text, '') AS welcome_text,
			COALESCE(goodbye_text, '') AS goodbye_text,
			COALESCE(photo, '') AS photo,
			welcome_enabled, goodbye_enabled
		FROM welcomes WHERE chat_id = ?
	`, chatID)
	if err != nil {
		if err == sql.ErrNoRows {
			return db.DefaultWelcomeConfig(chatID), nil
		}
		return nil, errors.Wrap(err, "cant get welcome config")
	}
	return cfg, nil
}

func (c *sqliteClient) DeleteWelcomeConfig(ctx context.Context, chatID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return tool.Err(c.db.ExecContext(ctx, `DELETE FROM welcomes WHERE chat_id = ?`, chatID))
}
