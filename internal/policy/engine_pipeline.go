package policy

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/observability"
)

const noticeAutoDelete = 5 * time.Second

// Message is one inbound text message as seen by the pipeline.
type Message struct {
	ChatID        int64
	UserID        int64
	MessageID     int
	Text          string
	SenderName    string
	IsCommand     bool
	Privileged    bool
	ReplyToUserID int64
	ReplyToName   string
	At            time.Time
}

type Verdict string

const (
	VerdictNone    Verdict = "none"
	VerdictMuted   Verdict = "muted"
	VerdictDeleted Verdict = "deleted"
)

// HandleMessage runs the per-message state machine, short-circuiting on the
// first applicable action: flood, then blacklist, then AFK bookkeeping.
// Privileged senders skip flood and blacklist entirely.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) (Verdict, error) {
	done := observability.ObserveProcessing()

	if !msg.Privileged {
		verdict, err := e.checkFlood(ctx, msg)
		if err != nil || verdict != VerdictNone {
			done(string(verdict))
			return verdict, err
		}

		verdict, err = e.checkBlacklist(ctx, msg)
		if err != nil || verdict != VerdictNone {
			done(string(verdict))
			return verdict, err
		}
	}

	if !msg.IsCommand {
		if err := e.checkAFK(ctx, msg); err != nil {
			done(string(VerdictNone))
			return VerdictNone, err
		}
	}

	done(string(VerdictNone))
	return VerdictNone, nil
}

func (e *Engine) checkFlood(ctx context.Context, msg Message) (Verdict, error) {
	chat, err := e.store.GetChat(ctx, msg.ChatID)
	if err != nil {
		return VerdictNone, errors.Wrap(err, "cant get chat for flood check")
	}
	if chat == nil || !chat.Antiflood {
		return VerdictNone, nil
	}

	threshold := chat.FloodThreshold
	if threshold <= 0 {
		threshold = e.limits.DefaultThreshold
	}
	window := chat.FloodWindow()
	if window <= 0 {
		window = e.limits.DefaultWindow
	}

	if !e.tracker.RecordAndCheck(msg.ChatID, msg.UserID, msg.At, threshold, window) {
		return VerdictNone, nil
	}

	until := msg.At.Add(e.limits.MuteDuration)
	if err := e.actions.RequestMute(ctx, msg.ChatID, msg.UserID, until); err != nil {
		return VerdictNone, errors.Wrap(err, "cant request flood mute")
	}
	e.tracker.Reset(msg.ChatID, msg.UserID)
	observability.RecordFloodMute()

	notice := fmt.Sprintf("🚫 %s has been muted for %d minutes for flooding!", msg.SenderName, int(e.limits.MuteDuration.Minutes()))
	if err := e.actions.Notify(ctx, msg.ChatID, notice, 0); err != nil {
		e.getLogEntry().WithError(err).Warn("cant send flood notice")
	}

	e.getLogEntry().WithFields(log.Fields{
		"chat_id": msg.ChatID,
		"user_id": msg.UserID,
	}).Info("user muted for flooding")
	return VerdictMuted, nil
}

func (e *Engine) checkBlacklist(ctx context.Context, msg Message) (Verdict, error) {
	words, err := e.store.ListBlacklist(ctx, msg.ChatID)
	if err != nil {
		return VerdictNone, errors.Wrap(err, "cant list blacklist")
	}
	if len(words) == 0 {
		return VerdictNone, nil
	}

	text := strings.ToLower(msg.Text)
	for _, word := range words {
		if !matchesWholeWord(text, word) {
			continue
		}
		if err := e.actions.RequestDeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			return VerdictNone, errors.Wrap(err, "cant request message deletion")
		}
		observability.RecordBlacklistDeletion()

		notice := fmt.Sprintf("⚠️ %s, your message was deleted because it contains a blacklisted word!", msg.SenderName)
		if err := e.actions.Notify(ctx, msg.ChatID, notice, noticeAutoDelete); err != nil {
			e.getLogEntry().WithError(err).Warn("cant send blacklist notice")
		}
		return VerdictDeleted, nil
	}
	return VerdictNone, nil
}

// checkAFK clears the sender's own AFK status unconditionally; the
// reply-target notice runs only when the sender itself was not AFK.
func (e *Engine) checkAFK(ctx context.Context, msg Message) error {
	status, err := e.store.GetAFK(ctx, msg.UserID)
	if err != nil {
		return errors.Wrap(err, "cant get sender afk status")
	}
	if status != nil {
		if err := e.store.ClearAFK(ctx, msg.UserID); err != nil {
			return errors.Wrap(err, "cant clear afk status")
		}
		notice := fmt.Sprintf("👋 Welcome back %s! You are no longer AFK.", msg.SenderName)
		if err := e.actions.Notify(ctx, msg.ChatID, notice, 0); err != nil {
			e.getLogEntry().WithError(err).Warn("cant send welcome back notice")
		}
		return nil
	}

	if msg.ReplyToUserID == 0 || msg.ReplyToUserID == msg.UserID {
		return nil
	}
	target, err := e.store.GetAFK(ctx, msg.ReplyToUserID)
	if err != nil {
		return errors.Wrap(err, "cant get reply target afk status")
	}
	if target == nil {
		return nil
	}
	notice := fmt.Sprintf("💤 %s is AFK", msg.ReplyToName)
	if target.Reason != "" {
		notice += fmt.Sprintf("\n📝 Reason: %s", target.Reason)
	}
	if err := e.actions.Notify(ctx, msg.ChatID, notice, 0); err != nil {
		e.getLogEntry().WithError(err).Warn("cant send afk notice")
	}
	return nil
}

// matchesWholeWord does case-insensitive word-boundary matching, so the
// blacklisted "ban" hits "please ban him" but not "banana".
func matchesWholeWord(text, word string) bool {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(word)) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(text)
}
