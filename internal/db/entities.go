package db

import "time"

type (
	// User is created on first observed interaction and never deleted.
	// WarnedCount is a display counter, the authoritative count lives in
	// the warnings table.
	User struct {
		ID          int64  `db:"user_id"`
		Username    string `db:"username"`
		FirstName   string `db:"first_name"`
		WarnedCount int    `db:"warned_count"`
	}

	Chat struct {
		ID                 int64  `db:"chat_id"`
		Title              string `db:"chat_title"`
		Antiflood          bool   `db:"antiflood"`
		WelcomeEnabled     bool   `db:"welcome_enabled"`
		Rules              string `db:"rules"`
		FloodThreshold     int    `db:"flood_threshold"`
		FloodWindowSeconds int    `db:"flood_window_seconds"`
	}

	Note struct {
		ChatID  int64  `db:"chat_id"`
		Name    string `db:"note_name"`
		Content string `db:"content"`
	}

	AFKStatus struct {
		UserID int64  `db:"user_id"`
		Reason string `db:"reason"`
	}

	WelcomeConfig struct {
		ChatID         int64  `db:"chat_id"`
		WelcomeText    string `db:"welcome_text"`
		GoodbyeText    string `db:"goodbye_text"`
		Photo          string `db:"photo"`
		WelcomeEnabled bool   `db:"welcome_enabled"`
		GoodbyeEnabled bool   `db:"goodbye_enabled"`
	}

	// ChatSettingsPatch is the closed set of chat fields that may be
	// updated after creation. A nil field is left untouched; an all-nil
	// patch writes nothing.
	ChatSettingsPatch struct {
		Title          *string
		Antiflood      *bool
		WelcomeEnabled *bool
		Rules          *string
	}
)

func (p ChatSettingsPatch) IsZero() bool {
	return p.Title == nil && p.Antiflood == nil && p.WelcomeEnabled == nil && p.Rules == nil
}

// FloodWindow returns the chat's flood window as a duration.
func (c *Chat) FloodWindow() time.Duration {
	return time.Duration(c.FloodWindowSeconds) * time.Second
}
