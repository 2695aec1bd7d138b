package handlers

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/i18n"
	"github.com/overseerbot/overseer/internal/policy/permissions"
)

const (
	defaultWelcomeTemplate = "👋 Welcome to {chat}, {mention}!"
	defaultGoodbyeTemplate = "Goodbye, {first}. 👋"
)

// Welcome greets joining members and sees leaving ones off, with per-chat
// templates and toggles.
type Welcome struct {
	s bot.Service
}

func NewWelcome(s bot.Service) *Welcome {
	return &Welcome{s: s}
}

func (h *Welcome) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || u.Message == nil {
		return true, nil
	}
	m := u.Message

	switch {
	case m.NewChatMembers != nil:
		return false, h.handleJoins(ctx, chat, m.NewChatMembers)
	case m.LeftChatMember != nil:
		return false, h.handleLeave(ctx, chat, m.LeftChatMember)
	}

	if user == nil || user.IsBot || !m.IsCommand() {
		return true, nil
	}
	return h.handleCommand(ctx, m, chat, user)
}

func (h *Welcome) handleJoins(ctx context.Context, chat *api.Chat, members []api.User) error {
	cfg, err := h.s.GetDB().GetWelcomeConfig(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant get welcome config")
	}
	if !cfg.WelcomeEnabled {
		return nil
	}
	template := cfg.WelcomeText
	if template == "" {
		template = defaultWelcomeTemplate
	}

	b := h.s.GetBot()
	for _, member := range members {
		member := member
		if member.IsBot {
			continue
		}
		if err := h.s.GetDB().UpsertUser(ctx, member.ID, member.UserName, member.FirstName); err != nil {
			h.getLogEntry().WithError(err).Warn("cant upsert joined user")
		}

		text := formatMemberTemplate(template, &member, chat)
		if cfg.Photo != "" {
			photo := api.NewPhoto(chat.ID, api.FileID(cfg.Photo))
			photo.Caption = text
			_, err = b.Send(photo)
		} else {
			_, err = b.Send(api.NewMessage(chat.ID, text))
		}
		if tool.Try(err) {
			h.getLogEntry().WithError(err).Warn("cant send welcome")
		}
	}
	return nil
}

func (h *Welcome) handleLeave(ctx context.Context, chat *api.Chat, member *api.User) error {
	if member.IsBot {
		return nil
	}
	cfg, err := h.s.GetDB().GetWelcomeConfig(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant get welcome config")
	}
	if !cfg.GoodbyeEnabled {
		return nil
	}
	template := cfg.GoodbyeText
	if template == "" {
		template = defaultGoodbyeTemplate
	}
	if _, err := h.s.GetBot().Send(api.NewMessage(chat.ID, formatMemberTemplate(template, member, chat))); err != nil {
		h.getLogEntry().WithError(err).Warn("cant send goodbye")
	}
	return nil
}

func (h *Welcome) handleCommand(ctx context.Context, m *api.Message, chat *api.Chat, user *api.User) (bool, error) {
	command := m.Command()
	switch command {
	case "setwelcome", "setgoodbye", "welcome", "goodbye", "getwelcome", "resetwelcome":
	default:
		return true, nil
	}

	b := h.s.GetBot()
	lang := config.Get().DefaultLanguage
	reply := func(text string) {
		msg := api.NewMessage(chat.ID, text)
		msg.DisableNotification = true
		_, _ = b.Send(msg)
	}

	privileged, err := permissions.IsModerator(b, chat, user.ID)
	if tool.Try(err) {
		return true, errors.WithMessage(err, "cant resolve member rights")
	}
	if !privileged && command != "getwelcome" {
		reply(i18n.Get("You are not permitted to do that", lang))
		return false, nil
	}

	store := h.s.GetDB()
	switch command {
	case "setwelcome":
		text := strings.TrimSpace(m.CommandArguments())
		var photo string
		if m.ReplyToMessage != nil && len(m.ReplyToMessage.Photo) > 0 {
			photo = m.ReplyToMessage.Photo[len(m.ReplyToMessage.Photo)-1].FileID
			if text == "" {
				text = m.ReplyToMessage.Caption
			}
		}
		if text == "" && photo == "" {
			reply(i18n.Get("Usage: /setwelcome <template>, placeholders: {mention} {first} {last} {username} {id} {chat} {chatid}", lang))
			return false, nil
		}
		if err := store.SetWelcomeText(ctx, chat.ID, text, photo); err != nil {
			return false, errors.WithMessage(err, "cant set welcome text")
		}
		reply(i18n.Get("Welcome message updated", lang))

	case "setgoodbye":
		text := strings.TrimSpace(m.CommandArguments())
		if text == "" {
			reply(i18n.Get("Usage: /setgoodbye <template>", lang))
			return false, nil
		}
		if err := store.SetGoodbyeText(ctx, chat.ID, text); err != nil {
			return false, errors.WithMessage(err, "cant set goodbye text")
		}
		reply(i18n.Get("Goodbye message updated", lang))

	case "welcome", "goodbye":
		arg := strings.ToLower(strings.TrimSpace(m.CommandArguments()))
		enabled := false
		switch arg {
		case "on", "yes", "true":
			enabled = true
		case "off", "no", "false":
		default:
			reply(fmt.Sprintf(i18n.Get("Usage: /%s on|off", lang), command))
			return false, nil
		}
		toggle := store.ToggleWelcome
		if command == "goodbye" {
			toggle = store.ToggleGoodbye
		}
		if err := toggle(ctx, chat.ID, enabled); err != nil {
			return false, errors.WithMessagef(err, "cant toggle %s", command)
		}
		state := i18n.Get("disabled", lang)
		if enabled {
			state = i18n.Get("enabled", lang)
		}
		reply(fmt.Sprintf(i18n.Get("The %s message is now %s", lang), command, state))

	case "getwelcome":
		cfg, err := store.GetWelcomeConfig(ctx, chat.ID)
		if err != nil {
			return false, errors.WithMessage(err, "cant get welcome config")
		}
		welcomeText := cfg.WelcomeText
		if welcomeText == "" {
			welcomeText = defaultWelcomeTemplate
		}
		goodbyeText := cfg.GoodbyeText
		if goodbyeText == "" {
			goodbyeText = defaultGoodbyeTemplate
		}
		reply(fmt.Sprintf(
			"welcome (%s): %s\ngoodbye (%s): %s",
			onOff(cfg.WelcomeEnabled), welcomeText,
			onOff(cfg.GoodbyeEnabled), goodbyeText,
		))

	case "resetwelcome":
		if err := store.DeleteWelcomeConfig(ctx, chat.ID); err != nil {
			return false, errors.WithMessage(err, "cant reset welcome config")
		}
		reply(i18n.Get("Welcome settings have been reset to defaults", lang))
	}
	return false, nil
}

// formatMemberTemplate substitutes the member placeholders. {mention} falls
// back to the first name when the user has no username.
func formatMemberTemplate(template string, user *api.User, chat *api.Chat) string {
	mention := user.FirstName
	if user.UserName != "" {
		mention = "@" + user.UserName
	}
	replacer := strings.NewReplacer(
		"{mention}", mention,
		"{first}", user.FirstName,
		"{last}", user.LastName,
		"{username}", user.UserName,
		"{id}", fmt.Sprintf("%d", user.ID),
		"{chat}", chat.Title,
		"{chatid}", fmt.Sprintf("%d", chat.ID),
	)
	return replacer.Replace(template)
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func (h *Welcome) getLogEntry() *log.Entry {
	return log.WithField("context", "welcome")
}
