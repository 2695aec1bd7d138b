package db

import (
	"context"
)

type Client interface {
	Close() error

	UpsertUser(ctx context.Context, id int64, username, firstName string) error
	GetUser(ctx context.Context, id int64) (*User, error)

	UpsertChat(ctx context.Context, id int64, title string) error
	GetChat(ctx context.Context, id int64) (*Chat, error)
	UpdateChatSettings(ctx context.Context, id int64, patch ChatSettingsPatch) error
	SetFloodLimits(ctx context.Context, id int64, threshold, windowSeconds int) error

	IncrementWarning(ctx context.Context, chatID, userID int64) (int, error)
	GetWarnings(ctx context.Context, chatID, userID int64) (int, error)
	ResetWarnings(ctx context.Context, chatID, userID int64) error

	PutNote(ctx context.Context, chatID int64, name, content string) error
	GetNote(ctx context.Context, chatID int64, name string) (*Note, error)
	ListNotes(ctx context.Context, chatID int64) ([]*Note, error)
	DeleteNote(ctx context.Context, chatID int64, name string) error

	SetAFK(ctx context.Context, userID int64, reason string) error
	ClearAFK(ctx context.Context, userID int64) error
	GetAFK(ctx context.Context, userID int64) (*AFKStatus, error)

	AddBlacklistWord(ctx context.Context, chatID int64, word string) error
	RemoveBlacklistWord(ctx context.Context, chatID int64, word string) error
	ListBlacklist(ctx context.Context, chatID int64) ([]string, error)

	SetWelcomeText(ctx context.Context, chatID int64, text, photo string) error
	SetGoodbyeText(ctx context.Context, chatID int64, text string) error
	ToggleWelcome(ctx context.Context, chatID int64, enabled bool) error
	ToggleGoodbye(ctx context.Context, chatID int64, enabled bool) error
	GetWelcomeConfig(ctx context.Context, chatID int64) (*WelcomeConfig, error)
	DeleteWelcomeConfig(ctx context.Context, chatID int64) error
}

// DefaultWelcomeConfig is what GetWelcomeConfig reports for a chat with no
// stored row: welcome on, goodbye off, default texts apply downstream.
func DefaultWelcomeConfig(chatID int64) *WelcomeConfig {
	return &WelcomeConfig{
		ChatID:         chatID,
		WelcomeEnabled: true,
		GoodbyeEnabled: false,
	}
}
