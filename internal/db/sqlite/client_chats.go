package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/overseerbot/overseer/internal/db"
)

func (c *sqliteClient) UpsertUser(ctx context.Context, id int64, username, firstName string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO users (user_id, username, first_name, warned_count)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		first_name = excluded.first_name
	`
	return tool.Err(c.db.ExecContext(ctx, query, id, username, firstName))
}

func (c *sqliteClient) GetUser(ctx context.Context, id int64) (*db.User, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	user := &db.User{}
	err := c.db.GetContext(ctx, user, `
		SELECT user_id, COALESCE(username, '') AS username,
			COALESCE(first_name, '') AS first_name, warned_count
		FROM users WHERE user_id = ?
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "cant get user")
	}
	return user, nil
}

func (c *sqliteClient) UpsertChat(ctx context.Context, id int64, title string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Defaults apply on first insert only, later writes touch the title.
	query := `
		INSERT INTO chats (chat_id, chat_title, antiflood, welcome_enabled, rules)
		VALUES (?, ?, 0, 1, NULL)
		ON CONFLICT(chat_id) DO UPDATE SET
		chat_title = excluded.chat_title
	`
	return tool.Err(c.db.ExecContext(ctx, query, id, title))
}

func (c *sqliteClient) GetChat(ctx context.Context, id int64) (*db.Chat, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	chat := &db.Chat{}
	err := c.db.GetContext(ctx, chat, `
		SELECT chat_id, COALESCE(chat_title, '') AS chat_title, antiflood,
			welcome_enabled, COALESCE(rules, '') AS rules,
			flood_threshold, flood_window_seconds
		FROM chats WHERE chat_id = ?
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "cant get chat")
	}
	return chat, nil
}

func (c *sqliteClient) UpdateChatSettings(ctx context.Context, id int64, patch db.ChatSettingsPatch) error {
	if patch.IsZero() {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Title != nil {
		setClauses = append(setClauses, "chat_title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Antiflood != nil {
		setClauses = append(setClauses, "antiflood = ?")
		args = append(args, *patch.Antiflood)
	}
	if patch.WelcomeEnabled != nil {
		setClauses = append(setClauses, "welcome_enabled = ?")
		args = append(args, *patch.WelcomeEnabled)
	}
	if patch.Rules != nil {
		setClauses = append(setClauses, "rules = ?")
		args = append(args, *patch.Rules)
	}
	args = append(args, id)

	query := "UPDATE chats SET " + strings.Join(setClauses, ", ") + " WHERE chat_id = ?"
	return tool.Err(c.db.ExecContext(ctx, query, args...))
}

func (c *sqliteClient) SetFloodLimits(ctx context.Context, id int64, threshold, windowSeconds int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `UPDATE chats SET flood_threshold = ?, flood_window_seconds = ? WHERE chat_id = ?`
	return tool.Err(c.db.ExecContext(ctx, query, threshold, windowSeconds, id))
}
