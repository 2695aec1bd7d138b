package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/i18n"
	"github.com/overseerbot/overseer/internal/policy"
	"github.com/overseerbot/overseer/internal/policy/permissions"
	"github.com/overseerbot/overseer/internal/telegram"
)

const defaultCommandMute = 60 * time.Minute

// Admin routes the restricted moderation commands. Every command resolves
// its target from the replied-to message or a numeric ID argument.
type Admin struct {
	s   bot.Service
	ops *telegram.Operations
}

func NewAdmin(s bot.Service, ops *telegram.Operations) *Admin {
	return &Admin{s: s, ops: ops}
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || user == nil {
		return true, nil
	}
	switch {
	case
		u.Message == nil,
		user.IsBot,
		!u.Message.IsCommand():
		return true, nil
	}
	m := u.Message
	b := a.s.GetBot()
	entry := a.getLogEntry()
	lang := config.Get().DefaultLanguage

	entry.Trace("command: ", m.Command())

	privileged, err := permissions.IsModerator(b, chat, user.ID)
	if tool.Try(err) {
		return true, errors.WithMessage(err, "cant resolve member rights")
	}

	engine := a.s.GetEngine()
	reply := func(text string) {
		msg := api.NewMessage(chat.ID, text)
		msg.DisableNotification = true
		_, _ = b.Send(msg)
	}

	switch m.Command() {
	case "warn":
		target, name, ok := a.resolveTarget(m)
		if !ok {
			reply(i18n.Get("Reply to a message or pass a user ID", lang))
			return false, nil
		}
		count, banned, err := engine.Warn(ctx, chat.ID, target, privileged)
		if err != nil {
			return false, a.report(err, reply, lang)
		}
		if banned {
			reply(fmt.Sprintf(i18n.Get("🚷 %s reached %d warnings and has been banned", lang), name, count))
		} else {
			reply(fmt.Sprintf(i18n.Get("⚠️ %s has been warned (%d/%d)", lang), name, count, policy.WarnBanThreshold))
		}
		return false, nil

	case "warns":
		target, name, ok := a.resolveTarget(m)
		if !ok {
			target, name = user.ID, bot.GetFullName(user)
		}
		count, err := engine.Warnings(ctx, chat.ID, target)
		if err != nil {
			return false, errors.WithMessage(err, "cant get warnings")
		}
		reply(fmt.Sprintf(i18n.Get("%s has %d/%d warnings", lang), name, count, policy.WarnBanThreshold))
		return false, nil

	case "resetwarns":
		target, name, ok := a.resolveTarget(m)
		if !ok {
			reply(i18n.Get("Reply to a message or pass a user ID", lang))
			return false, nil
		}
		if err := engine.ResetWarnings(ctx, chat.ID, target, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		reply(fmt.Sprintf(i18n.Get("Warnings for %s have been reset", lang), name))
		return false, nil

	case "ban":
		return a.memberAction(ctx, m, privileged, reply, lang, "🚷 %s has been banned", a.ops.RequestBan)

	case "unban":
		return a.memberAction(ctx, m, privileged, reply, lang, "%s has been unbanned", a.ops.Unban)

	case "kick":
		return a.memberAction(ctx, m, privileged, reply, lang, "👢 %s has been kicked", a.ops.Kick)

	case "mute":
		if !privileged {
			reply(i18n.Get("You are not permitted to do that", lang))
			return false, nil
		}
		target, name, ok := a.resolveTarget(m)
		if !ok {
			reply(i18n.Get("Reply to a message or pass a user ID", lang))
			return false, nil
		}
		duration := defaultCommandMute
		args := strings.Fields(m.CommandArguments())
		if len(args) > 0 {
			if minutes, err := strconv.Atoi(args[len(args)-1]); err == nil && minutes > 0 {
				duration = time.Duration(minutes) * time.Minute
			}
		}
		if err := a.ops.RequestMute(ctx, chat.ID, target, time.Now().Add(duration)); err != nil {
			return false, errors.WithMessage(err, "cant mute")
		}
		reply(fmt.Sprintf(i18n.Get("🔇 %s has been muted for %d minutes", lang), name, int(duration.Minutes())))
		return false, nil

	case "unmute":
		return a.memberAction(ctx, m, privileged, reply, lang, "🔊 %s has been unmuted", a.ops.Unmute)

	case "antiflood":
		arg := strings.ToLower(strings.TrimSpace(m.CommandArguments()))
		enabled := false
		switch arg {
		case "on", "yes", "true":
			enabled = true
		case "off", "no", "false":
		default:
			reply(i18n.Get("Usage: /antiflood on|off", lang))
			return false, nil
		}
		if err := engine.SetAntiflood(ctx, chat.ID, enabled, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		if enabled {
			reply(i18n.Get("Antiflood has been enabled", lang))
		} else {
			reply(i18n.Get("Antiflood has been disabled", lang))
		}
		return false, nil

	case "setflood":
		args := strings.Fields(m.CommandArguments())
		if len(args) != 2 {
			reply(i18n.Get("Usage: /setflood <messages> <seconds>", lang))
			return false, nil
		}
		threshold, err1 := strconv.Atoi(args[0])
		windowSeconds, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			reply(i18n.Get("Usage: /setflood <messages> <seconds>", lang))
			return false, nil
		}
		if err := engine.SetFloodLimits(ctx, chat.ID, threshold, windowSeconds, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		reply(fmt.Sprintf(i18n.Get("Flood limit set to %d messages per %d seconds", lang), threshold, windowSeconds))
		return false, nil

	case "blacklist":
		word := strings.TrimSpace(m.CommandArguments())
		if err := engine.AddBlacklistWord(ctx, chat.ID, word, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		reply(fmt.Sprintf(i18n.Get("Added %q to the blacklist", lang), strings.ToLower(word)))
		return false, nil

	case "rmblacklist":
		word := strings.TrimSpace(m.CommandArguments())
		if err := engine.RemoveBlacklistWord(ctx, chat.ID, word, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		reply(fmt.Sprintf(i18n.Get("Removed %q from the blacklist", lang), strings.ToLower(word)))
		return false, nil

	case "getblacklist":
		words, err := engine.Blacklist(ctx, chat.ID)
		if err != nil {
			return false, errors.WithMessage(err, "cant list blacklist")
		}
		if len(words) == 0 {
			reply(i18n.Get("The blacklist is empty", lang))
			return false, nil
		}
		reply(i18n.Get("Blacklisted words", lang) + ":\n• " + strings.Join(words, "\n• "))
		return false, nil

	case "setrules":
		rules := strings.TrimSpace(m.CommandArguments())
		if rules == "" {
			reply(i18n.Get("Usage: /setrules <text>", lang))
			return false, nil
		}
		if err := engine.SetRules(ctx, chat.ID, rules, privileged); err != nil {
			return false, a.report(err, reply, lang)
		}
		reply(i18n.Get("Rules updated", lang))
		return false, nil

	case "rules":
		stored, err := a.s.GetDB().GetChat(ctx, chat.ID)
		if err != nil {
			return false, errors.WithMessage(err, "cant get chat")
		}
		if stored == nil || stored.Rules == "" {
			reply(i18n.Get("No rules have been set for this chat", lang))
			return false, nil
		}
		reply(i18n.Get("Chat rules", lang) + ":\n" + stored.Rules)
		return false, nil
	}

	return true, nil
}

// memberAction runs the shared resolve-check-act-confirm shape of the
// ban/unban/kick/unmute commands.
func (a *Admin) memberAction(
	ctx context.Context,
	m *api.Message,
	privileged bool,
	reply func(string),
	lang string,
	confirmation string,
	action func(ctx context.Context, chatID, userID int64) error,
) (bool, error) {
	if !privileged {
		reply(i18n.Get("You are not permitted to do that", lang))
		return false, nil
	}
	target, name, ok := a.resolveTarget(m)
	if !ok {
		reply(i18n.Get("Reply to a message or pass a user ID", lang))
		return false, nil
	}
	if err := action(ctx, m.Chat.ID, target); err != nil {
		return false, errors.WithMessage(err, "cant perform member action")
	}
	reply(fmt.Sprintf(i18n.Get(confirmation, lang), name))
	return false, nil
}

// resolveTarget prefers the replied-to message's author, falling back to a
// numeric ID in the first command argument.
func (a *Admin) resolveTarget(m *api.Message) (int64, string, bool) {
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		return m.ReplyToMessage.From.ID, bot.GetFullName(m.ReplyToMessage.From), true
	}
	args := strings.Fields(m.CommandArguments())
	if len(args) == 0 {
		return 0, "", false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, args[0], true
}

// report turns the engine's local rejections into chat replies and passes
// everything else up the handler chain.
func (a *Admin) report(err error, reply func(string), lang string) error {
	switch {
	case errors.Is(err, policy.ErrNotPermitted):
		reply(i18n.Get("You are not permitted to do that", lang))
		return nil
	case errors.Is(err, policy.ErrInvalidArgument):
		reply(err.Error())
		return nil
	}
	return err
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("context", "admin")
}
