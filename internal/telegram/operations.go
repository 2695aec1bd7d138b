// Package telegram is the outbound half of the dispatch surface: it turns
// moderation requests into Bot API calls.
package telegram

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Operations struct {
	bot *api.BotAPI
}

func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

// RequestMute restricts the user from posting anything until the deadline.
func (o *Operations) RequestMute(ctx context.Context, chatID, userID int64, until time.Time) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := o.bot.Request(api.RestrictChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			UntilDate:   until.Unix(),
			Permissions: chatPermissions(false),
		}); err != nil {
			return errors.WithMessage(err, "cant restrict")
		}
		return nil
	}
}

func (o *Operations) Unmute(ctx context.Context, chatID, userID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := o.bot.Request(api.RestrictChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			Permissions: chatPermissions(true),
		}); err != nil {
			return errors.WithMessage(err, "cant unrestrict")
		}
		return nil
	}
}

func (o *Operations) RequestBan(ctx context.Context, chatID, userID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := o.bot.Request(api.BanChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			RevokeMessages: true,
		}); err != nil {
			return errors.WithMessage(err, "cant ban")
		}
		return nil
	}
}

func (o *Operations) Unban(ctx context.Context, chatID, userID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := o.bot.Request(api.UnbanChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{ChatID: chatID},
				UserID:     userID,
			},
		}); err != nil {
			return errors.WithMessage(err, "cant unban")
		}
		return nil
	}
}

// Kick is a ban immediately followed by an unban, so the user may rejoin.
func (o *Operations) Kick(ctx context.Context, chatID, userID int64) error {
	if err := o.RequestBan(ctx, chatID, userID); err != nil {
		return err
	}
	return o.Unban(ctx, chatID, userID)
}

func (o *Operations) RequestDeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID)); err != nil {
			return errors.WithMessage(err, "cant delete message")
		}
		return nil
	}
}

// Notify sends a plain text message to the chat. A positive autoDeleteAfter
// schedules the sent message for deletion through the event worker.
func (o *Operations) Notify(ctx context.Context, chatID int64, text string, autoDeleteAfter time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		sent, err := o.bot.Send(api.NewMessage(chatID, text))
		if err != nil {
			return errors.WithMessage(err, "cant send notice")
		}
		if autoDeleteAfter > 0 {
			scheduleMessageDeletion(o.bot, chatID, sent.MessageID, time.Now().Add(autoDeleteAfter))
		}
		return nil
	}
}

func chatPermissions(allowed bool) *api.ChatPermissions {
	return &api.ChatPermissions{
		CanSendMessages:       allowed,
		CanSendAudios:         allowed,
		CanSendDocuments:      allowed,
		CanSendPhotos:         allowed,
		CanSendVideos:         allowed,
		CanSendVideoNotes:     allowed,
		CanSendVoiceNotes:     allowed,
		CanSendPolls:          allowed,
		CanSendOtherMessages:  allowed,
		CanAddWebPagePreviews: allowed,
		CanChangeInfo:         allowed,
		CanInviteUsers:        allowed,
		CanPinMessages:        allowed,
		CanManageTopics:       allowed,
	}
}

func getLogEntry() *log.Entry {
	return log.WithField("context", "telegram")
}
