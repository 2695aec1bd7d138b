package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/i18n"
)

// Search serves the lookup shortcuts. Lookups are best effort: a failed
// fetch degrades to an apology reply, never an error up the chain.
type Search struct {
	s      bot.Service
	client *http.Client
}

func NewSearch(s bot.Service) *Search {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = leveledLogrus{log.WithField("context", "search")}
	client := retryClient.StandardClient()
	client.Timeout = 20 * time.Second

	return &Search{s: s, client: client}
}

func (h *Search) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || user == nil || u.Message == nil || user.IsBot || !u.Message.IsCommand() {
		return true, nil
	}
	m := u.Message
	lang := config.Get().DefaultLanguage

	query := strings.TrimSpace(m.CommandArguments())
	reply := func(text string) {
		msg := api.NewMessage(chat.ID, text)
		msg.DisableNotification = true
		_, _ = h.s.GetBot().Send(msg)
	}

	switch m.Command() {
	case "google":
		if query == "" {
			reply(i18n.Get("Usage: /google <query>", lang))
			return false, nil
		}
		reply("🔍 https://www.google.com/search?q=" + url.QueryEscape(query))
		return false, nil

	case "wiki":
		if query == "" {
			reply(i18n.Get("Usage: /wiki <topic>", lang))
			return false, nil
		}
		summary, ok := h.wikiSummary(ctx, query)
		if !ok {
			reply(fmt.Sprintf(i18n.Get("Sorry, I could not find anything about %q", lang), query))
			return false, nil
		}
		reply(summary)
		return false, nil

	case "define":
		if query == "" {
			reply(i18n.Get("Usage: /define <word>", lang))
			return false, nil
		}
		definition, ok := h.define(ctx, query)
		if !ok {
			reply(fmt.Sprintf(i18n.Get("Sorry, I could not find a definition for %q", lang), query))
			return false, nil
		}
		reply(definition)
		return false, nil
	}

	return true, nil
}

func (h *Search) wikiSummary(ctx context.Context, topic string) (string, bool) {
	var payload struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
		Content struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	endpoint := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	if !h.fetchJSON(ctx, endpoint, &payload) || payload.Extract == "" {
		return "", false
	}
	text := "📖 " + payload.Title + "\n\n" + payload.Extract
	if payload.Content.Desktop.Page != "" {
		text += "\n\n" + payload.Content.Desktop.Page
	}
	return text, true
}

func (h *Search) define(ctx context.Context, word string) (string, bool) {
	var payload []struct {
		Word     string `json:"word"`
		Meanings []struct {
			PartOfSpeech string `json:"partOfSpeech"`
			Definitions  []struct {
				Definition string `json:"definition"`
			} `json:"definitions"`
		} `json:"meanings"`
	}
	endpoint := "https://api.dictionaryapi.dev/api/v2/entries/en/" + url.PathEscape(strings.ToLower(word))
	if !h.fetchJSON(ctx, endpoint, &payload) || len(payload) == 0 {
		return "", false
	}

	entry := payload[0]
	lines := []string{"📚 " + entry.Word}
	for _, meaning := range entry.Meanings {
		if len(meaning.Definitions) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("(%s) %s", meaning.PartOfSpeech, meaning.Definitions[0].Definition))
		if len(lines) > 3 {
			break
		}
	}
	if len(lines) == 1 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func (h *Search) fetchJSON(ctx context.Context, endpoint string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.getLogEntry().WithError(err).WithField("url", endpoint).Debug("lookup failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(resp.Body).Decode(out) == nil
}

func (h *Search) getLogEntry() *log.Entry {
	return log.WithField("context", "search")
}

// leveledLogrus adapts a logrus entry to the retry client's leveled logger.
type leveledLogrus struct {
	entry *log.Entry
}

func (l leveledLogrus) Error(msg string, keysAndValues ...interface{}) {
	l.entry.Error(append([]interface{}{msg}, keysAndValues...)...)
}

func (l leveledLogrus) Info(msg string, keysAndValues ...interface{}) {
	l.entry.Info(append([]interface{}{msg}, keysAndValues...)...)
}

func (l leveledLogrus) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.Debug(append([]interface{}{msg}, keysAndValues...)...)
}

func (l leveledLogrus) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.Warn(append([]interface{}{msg}, keysAndValues...)...)
}
