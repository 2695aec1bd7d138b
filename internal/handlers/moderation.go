// Package handlers contains the update handlers the processor chains
// together: moderation pipeline, admin commands, utilities, welcome flow
// and search shortcuts.
package handlers

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/policy"
	"github.com/overseerbot/overseer/internal/policy/permissions"
)

// Moderation feeds every group message through the policy pipeline. It also
// does the bookkeeping: observed users and chats are upserted before any
// decision is made.
type Moderation struct {
	s bot.Service
}

func NewModeration(s bot.Service) *Moderation {
	return &Moderation{s: s}
}

func (h *Moderation) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if chat == nil || user == nil || u.Message == nil {
		return true, nil
	}
	if user.IsBot {
		return true, nil
	}
	m := u.Message

	if err := h.s.GetDB().UpsertUser(ctx, user.ID, user.UserName, user.FirstName); err != nil {
		h.getLogEntry().WithError(err).Warn("cant upsert user")
	}
	if err := h.s.GetDB().UpsertChat(ctx, chat.ID, chat.Title); err != nil {
		h.getLogEntry().WithError(err).Warn("cant upsert chat")
	}

	if chat.IsPrivate() {
		return true, nil
	}

	privileged, err := permissions.IsModerator(h.s.GetBot(), chat, user.ID)
	if tool.Try(err) {
		h.getLogEntry().WithError(err).Warn("cant resolve member rights")
		privileged = false
	}

	msg := policy.Message{
		ChatID:     chat.ID,
		UserID:     user.ID,
		MessageID:  m.MessageID,
		Text:       bot.ExtractText(m),
		SenderName: bot.GetFullName(user),
		IsCommand:  m.IsCommand(),
		Privileged: privileged,
		At:         time.Unix(int64(m.Date), 0),
	}
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		msg.ReplyToUserID = m.ReplyToMessage.From.ID
		msg.ReplyToName = bot.GetFullName(m.ReplyToMessage.From)
	}

	verdict, err := h.s.GetEngine().HandleMessage(ctx, msg)
	if err != nil {
		return true, errors.WithMessage(err, "cant run moderation pipeline")
	}
	if verdict != policy.VerdictNone {
		h.getLogEntry().WithFields(log.Fields{
			"chat_id": chat.ID,
			"user_id": user.ID,
			"verdict": verdict,
		}).Debug("message actioned")
		return false, nil
	}
	return true, nil
}

func (h *Moderation) getLogEntry() *log.Entry {
	return log.WithField("context", "moderation")
}
