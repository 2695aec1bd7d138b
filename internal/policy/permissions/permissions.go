// Package permissions resolves a user's moderation rights in a chat by
// asking Telegram for the member record.
package permissions

import (
	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
)

// IsModerator reports whether the user may run restricted commands in the
// chat. Creators always qualify; administrators qualify only when they can
// restrict members. Private chats are always moderated by their owner.
func IsModerator(bot *api.BotAPI, chat *api.Chat, userID int64) (bool, error) {
	if chat == nil {
		return false, errors.New("chat is nil")
	}
	if chat.IsPrivate() {
		return true, nil
	}

	chatMember, err := bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			UserID: userID,
			ChatConfig: api.ChatConfig{
				ChatID: chat.ID,
			},
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "cant get chat member")
	}

	return chatMember.IsCreator() || (chatMember.IsAdministrator() && chatMember.CanRestrictMembers), nil
}
