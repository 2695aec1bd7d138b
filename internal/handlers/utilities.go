package handlers

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/i18n"
)

var startedAt = time.Now()

const helpText = `Moderation:
/warn /warns /resetwarns - warning management (3 warnings ban)
/ban /unban /kick /mute /unmute - member management
/antiflood on|off, /setflood <messages> <seconds> - flood control
/blacklist /rmblacklist /getblacklist - word blacklist
/setrules /rules - chat rules

Notes:
/save <name> <content> - save a note (or reply to a message)
/get <name>, #<name> - recall a note
/notes - list notes, /clear <name> - delete a note

Misc:
/afk [reason] - mark yourself away
/welcome, /goodbye, /setwelcome, /setgoodbye, /getwelcome, /resetwelcome
/info /whois /id /chatinfo /admins /stats - chat and user details
/google /wiki /define - lookups
/ping /status`

// Utilities serves the small informational and note-taking commands.
type Utilities struct {
	s bot.Service
}

func NewUtilities(s bot.Service) *Utilities {
	return &Utilities{s: s}
}

func (h *Utilities) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || user == nil || u.Message == nil || user.IsBot {
		return true, nil
	}
	m := u.Message
	b := h.s.GetBot()
	lang := config.Get().DefaultLanguage

	reply := func(text string) {
		msg := api.NewMessage(chat.ID, text)
		msg.DisableNotification = true
		_, _ = b.Send(msg)
	}

	if !m.IsCommand() {
		// #name is a recall shortcut for /get name. Ordinary hashtags are
		// indistinguishable from it, so a miss stays silent here.
		if name, ok := strings.CutPrefix(m.Text, "#"); ok && name != "" && !strings.ContainsAny(name, " \n") {
			return h.recallNote(ctx, chat.ID, name, reply, true)
		}
		return true, nil
	}

	switch m.Command() {
	case "start":
		reply(i18n.Get("Hi! I keep this chat tidy. Send /help to see what I can do.", lang))
		return false, nil

	case "help":
		reply(i18n.Get(helpText, lang))
		return false, nil

	case "ping":
		reply("pong")
		return false, nil

	case "status":
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		reply(fmt.Sprintf(
			"up %s, %d goroutines, %.1f MiB in use",
			time.Since(startedAt).Round(time.Second),
			runtime.NumGoroutine(),
			float64(mem.Alloc)/(1<<20),
		))
		return false, nil

	case "save":
		args := strings.SplitN(m.CommandArguments(), " ", 2)
		if len(args) == 0 || args[0] == "" {
			reply(i18n.Get("Usage: /save <name> <content>", lang))
			return false, nil
		}
		name := args[0]
		var content string
		switch {
		case len(args) == 2 && strings.TrimSpace(args[1]) != "":
			content = strings.TrimSpace(args[1])
		case m.ReplyToMessage != nil:
			content = bot.ExtractText(m.ReplyToMessage)
		}
		if content == "" {
			reply(i18n.Get("Nothing to save, add content or reply to a message", lang))
			return false, nil
		}
		if err := h.s.GetDB().PutNote(ctx, chat.ID, name, content); err != nil {
			return false, errors.WithMessage(err, "cant save note")
		}
		reply(fmt.Sprintf(i18n.Get("Saved note %q", lang), strings.ToLower(name)))
		return false, nil

	case "get":
		name := strings.TrimSpace(m.CommandArguments())
		if name == "" {
			reply(i18n.Get("Usage: /get <name>", lang))
			return false, nil
		}
		return h.recallNote(ctx, chat.ID, name, reply, false)

	case "notes":
		notes, err := h.s.GetDB().ListNotes(ctx, chat.ID)
		if err != nil {
			return false, errors.WithMessage(err, "cant list notes")
		}
		if len(notes) == 0 {
			reply(i18n.Get("No notes saved in this chat", lang))
			return false, nil
		}
		names := make([]string, 0, len(notes))
		for _, note := range notes {
			names = append(names, "• "+note.Name)
		}
		reply(i18n.Get("Notes in this chat", lang) + ":\n" + strings.Join(names, "\n"))
		return false, nil

	case "clear":
		name := strings.TrimSpace(m.CommandArguments())
		if name == "" {
			reply(i18n.Get("Usage: /clear <name>", lang))
			return false, nil
		}
		if err := h.s.GetDB().DeleteNote(ctx, chat.ID, name); err != nil {
			return false, errors.WithMessage(err, "cant delete note")
		}
		reply(fmt.Sprintf(i18n.Get("Deleted note %q", lang), strings.ToLower(name)))
		return false, nil

	case "afk":
		reason := strings.TrimSpace(m.CommandArguments())
		if err := h.s.GetDB().SetAFK(ctx, user.ID, reason); err != nil {
			return false, errors.WithMessage(err, "cant set afk")
		}
		notice := fmt.Sprintf(i18n.Get("💤 %s is now AFK", lang), bot.GetFullName(user))
		if reason != "" {
			notice += "\n📝 " + reason
		}
		reply(notice)
		return false, nil
	}

	return true, nil
}

func (h *Utilities) recallNote(ctx context.Context, chatID int64, name string, reply func(string), quiet bool) (bool, error) {
	note, err := h.s.GetDB().GetNote(ctx, chatID, name)
	if err != nil {
		return false, errors.WithMessage(err, "cant get note")
	}
	if note == nil {
		if quiet {
			return true, nil
		}
		reply(fmt.Sprintf(i18n.Get("No note named %q", config.Get().DefaultLanguage), strings.ToLower(name)))
		return false, nil
	}
	reply(note.Content)
	return false, nil
}
