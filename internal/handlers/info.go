package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/db"
	"github.com/overseerbot/overseer/internal/i18n"
	"github.com/overseerbot/overseer/internal/policy"
)

// Info serves the read-only lookup commands: user cards, raw IDs, chat
// details, the admin list and member statistics. Everything here is
// best-effort glue over the bot api and the store, nothing mutates state.
type Info struct {
	s bot.Service
}

func NewInfo(s bot.Service) *Info {
	return &Info{s: s}
}

func (h *Info) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || user == nil || u.Message == nil || user.IsBot || !u.Message.IsCommand() {
		return true, nil
	}
	m := u.Message
	b := h.s.GetBot()

	reply := func(text string) {
		msg := api.NewMessage(chat.ID, text)
		msg.DisableNotification = true
		_, _ = b.Send(msg)
	}

	switch m.Command() {
	case "info", "whois":
		target := h.resolveInfoTarget(m, user)
		if target == nil {
			reply(i18n.Get("Reply to a message or pass a user ID", config.Get().DefaultLanguage))
			return false, nil
		}
		card, err := h.buildUserCard(ctx, b, chat.ID, target)
		if err != nil {
			return false, errors.WithMessage(err, "cant build user card")
		}
		reply(card)
		return false, nil

	case "id":
		reply(formatIDText(m))
		return false, nil

	case "chatinfo":
		chatInfo, err := b.GetChat(api.ChatInfoConfig{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
		})
		if err != nil {
			return false, errors.WithMessage(err, "cant get chat info")
		}
		members, admins := h.chatCounts(chat.ID)
		reply(formatChatInfo(&chatInfo, members, admins))
		return false, nil

	case "admins":
		admins, err := b.GetChatAdministrators(api.ChatAdministratorsConfig{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
		})
		if err != nil {
			return false, errors.WithMessage(err, "cant list administrators")
		}
		reply(formatAdminList(chat.Title, admins))
		return false, nil

	case "stats":
		total, err := b.GetChatMembersCount(api.ChatMemberCountConfig{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
		})
		if err != nil {
			return false, errors.WithMessage(err, "cant count members")
		}
		admins, err := b.GetChatAdministrators(api.ChatAdministratorsConfig{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
		})
		if err != nil {
			return false, errors.WithMessage(err, "cant list administrators")
		}
		bots := 0
		for _, admin := range admins {
			if admin.User.IsBot {
				bots++
			}
		}
		reply(formatChatStats(total, len(admins), bots))
		return false, nil
	}

	return true, nil
}

// resolveInfoTarget prefers the replied-to author, then a numeric ID
// argument, defaulting to the caller.
func (h *Info) resolveInfoTarget(m *api.Message, caller *api.User) *api.User {
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		return m.ReplyToMessage.From
	}
	arg := strings.TrimSpace(m.CommandArguments())
	if arg == "" {
		return caller
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil
	}
	return &api.User{ID: id}
}

// buildUserCard merges the live member record with what the store knows.
// Store reads are decorative here, a failed lookup degrades to a sparser
// card instead of an error.
func (h *Info) buildUserCard(ctx context.Context, b *api.BotAPI, chatID int64, target *api.User) (string, error) {
	status := ""
	member, err := b.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			UserID: target.ID,
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
		},
	})
	if err != nil {
		h.getLogEntry().WithError(err).Debug("cant get chat member for card")
	} else {
		status = member.Status
		if member.User != nil {
			target = member.User
		}
	}

	if target.FirstName == "" && target.UserName == "" {
		if known, err := h.s.GetDB().GetUser(ctx, target.ID); err == nil && known != nil {
			target = &api.User{ID: known.ID, UserName: known.Username, FirstName: known.FirstName}
		}
	}

	warnings, err := h.s.GetEngine().Warnings(ctx, chatID, target.ID)
	if err != nil {
		h.getLogEntry().WithError(err).Debug("cant get warnings for card")
	}
	afk, err := h.s.GetDB().GetAFK(ctx, target.ID)
	if err != nil {
		h.getLogEntry().WithError(err).Debug("cant get afk for card")
	}

	return formatUserCard(target, status, warnings, afk), nil
}

// chatCounts is decorative, either count may come back zero on api errors.
func (h *Info) chatCounts(chatID int64) (members, admins int) {
	b := h.s.GetBot()
	if total, err := b.GetChatMembersCount(api.ChatMemberCountConfig{
		ChatConfig: api.ChatConfig{ChatID: chatID},
	}); err == nil {
		members = total
	}
	if list, err := b.GetChatAdministrators(api.ChatAdministratorsConfig{
		ChatConfig: api.ChatConfig{ChatID: chatID},
	}); err == nil {
		admins = len(list)
	}
	return members, admins
}

func formatUserCard(user *api.User, status string, warnings int, afk *db.AFKStatus) string {
	var sb strings.Builder
	sb.WriteString("👤 User Information\n\n")
	fmt.Fprintf(&sb, "🆔 ID: %d\n", user.ID)
	if user.FirstName != "" {
		fmt.Fprintf(&sb, "📛 Name: %s\n", strings.TrimSpace(user.FirstName+" "+user.LastName))
	}
	if user.UserName != "" {
		fmt.Fprintf(&sb, "🔗 Username: @%s\n", user.UserName)
	}
	fmt.Fprintf(&sb, "🤖 Bot: %s\n", yesNo(user.IsBot))
	if status != "" {
		fmt.Fprintf(&sb, "📊 Status: %s\n", status)
	}
	fmt.Fprintf(&sb, "⚠️ Warnings: %d/%d\n", warnings, policy.WarnBanThreshold)
	if afk != nil {
		sb.WriteString("💤 AFK: yes")
		if afk.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", afk.Reason)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatIDText(m *api.Message) string {
	var sb strings.Builder
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		target := m.ReplyToMessage.From
		fmt.Fprintf(&sb, "👤 User ID: %d\n", target.ID)
		if target.UserName != "" {
			fmt.Fprintf(&sb, "🔗 Username: @%s\n", target.UserName)
		}
	} else if m.From != nil {
		fmt.Fprintf(&sb, "👤 Your ID: %d\n", m.From.ID)
	}
	fmt.Fprintf(&sb, "💬 Chat ID: %d\n", m.Chat.ID)
	fmt.Fprintf(&sb, "📨 Message ID: %d", m.MessageID)
	return sb.String()
}

func formatChatInfo(chat *api.ChatFullInfo, members, admins int) string {
	var sb strings.Builder
	sb.WriteString("💬 Chat Information\n\n")
	fmt.Fprintf(&sb, "🆔 Chat ID: %d\n", chat.ID)
	if chat.Title != "" {
		fmt.Fprintf(&sb, "📛 Title: %s\n", chat.Title)
	}
	if chat.UserName != "" {
		fmt.Fprintf(&sb, "🔗 Username: @%s\n", chat.UserName)
	}
	fmt.Fprintf(&sb, "📝 Type: %s\n", chat.Type)
	if chat.Description != "" {
		fmt.Fprintf(&sb, "📄 Description: %s\n", chat.Description)
	}
	if members > 0 {
		fmt.Fprintf(&sb, "👥 Members: %d\n", members)
	}
	if admins > 0 {
		fmt.Fprintf(&sb, "👮 Admins: %d\n", admins)
	}
	if chat.InviteLink != "" {
		fmt.Fprintf(&sb, "🔗 Invite Link: %s\n", chat.InviteLink)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAdminList(chatTitle string, admins []api.ChatMember) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Admins in %s:\n\n", chatTitle)
	for _, admin := range admins {
		if admin.User == nil {
			continue
		}
		marker := "👮"
		if admin.IsCreator() {
			marker = "👑"
		}
		name := bot.GetFullName(admin.User)
		if admin.User.UserName != "" {
			fmt.Fprintf(&sb, "%s %s (@%s)\n", marker, name, admin.User.UserName)
		} else {
			fmt.Fprintf(&sb, "%s %s (%d)\n", marker, name, admin.User.ID)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatChatStats(total, admins, bots int) string {
	var sb strings.Builder
	sb.WriteString("📊 Chat Statistics\n\n")
	fmt.Fprintf(&sb, "👥 Total Members: %d\n", total)
	fmt.Fprintf(&sb, "👮 Admins: %d\n", admins)
	fmt.Fprintf(&sb, "🤖 Bots: %d\n", bots)
	fmt.Fprintf(&sb, "👤 Regular Users: %d", total-admins)
	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (h *Info) getLogEntry() *log.Entry {
	return log.WithField("context", "info")
}
