package telegram

import (
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/overseerbot/overseer/internal/event"
)

const deleteMessageEventType = "delete_message"

// messageDeletion is queued when a transient notice should disappear after
// a delay. The worker keeps re-queueing it until the deadline passes.
type messageDeletion struct {
	*event.Base
	bot       *api.BotAPI
	chatID    int64
	messageID int
	deleteAt  time.Time
}

func scheduleMessageDeletion(bot *api.BotAPI, chatID int64, messageID int, deleteAt time.Time) {
	event.Bus.NQ(&messageDeletion{
		Base:      event.CreateBase(deleteMessageEventType, deleteAt.Add(5*time.Minute)),
		bot:       bot,
		chatID:    chatID,
		messageID: messageID,
		deleteAt:  deleteAt,
	})
}

// RegisterNoticeJanitor subscribes the deferred-deletion handler. Call once
// at startup, before the event worker runs.
func RegisterNoticeJanitor() {
	event.Subscribe(deleteMessageEventType, func(ev event.Queueable) {
		deletion, ok := ev.(*messageDeletion)
		if !ok {
			ev.Drop()
			return
		}
		if time.Now().Before(deletion.deleteAt) {
			return
		}
		if _, err := deletion.bot.Request(api.NewDeleteMessage(deletion.chatID, deletion.messageID)); err != nil {
			getLogEntry().WithError(err).Warn("cant auto-delete notice")
		}
		ev.Process()
	})
}
