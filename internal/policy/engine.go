// Package policy is the moderation decision layer. It is the only place
// that consults both the state store and the flood tracker, and the only
// place that requests mute/ban/delete actions from the dispatch surface.
package policy

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/overseerbot/overseer/internal/db"
	"github.com/overseerbot/overseer/internal/flood"
	"github.com/overseerbot/overseer/internal/observability"
)

const (
	// WarnBanThreshold is the warning count that triggers an automatic ban.
	WarnBanThreshold = 3

	DefaultFloodThreshold = 5
	DefaultFloodWindow    = 5 * time.Second

	minFloodThreshold = 2
	maxFloodThreshold = 20
	minFloodWindow    = 1
	maxFloodWindow    = 60
)

var (
	// ErrNotPermitted rejects gated operations before any state mutation.
	ErrNotPermitted = errors.New("not permitted")
	// ErrInvalidArgument rejects malformed or out-of-range input locally,
	// before the store is touched.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Actioner is the outbound half of the dispatch surface: the moderation
// requests the engine is allowed to issue.
type Actioner interface {
	RequestMute(ctx context.Context, chatID, userID int64, until time.Time) error
	RequestBan(ctx context.Context, chatID, userID int64) error
	RequestDeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Notify(ctx context.Context, chatID int64, text string, autoDeleteAfter time.Duration) error
}

// Store is the slice of the state store the engine needs.
type Store interface {
	GetChat(ctx context.Context, id int64) (*db.Chat, error)
	UpdateChatSettings(ctx context.Context, id int64, patch db.ChatSettingsPatch) error
	SetFloodLimits(ctx context.Context, id int64, threshold, windowSeconds int) error
	IncrementWarning(ctx context.Context, chatID, userID int64) (int, error)
	GetWarnings(ctx context.Context, chatID, userID int64) (int, error)
	ResetWarnings(ctx context.Context, chatID, userID int64) error
	AddBlacklistWord(ctx context.Context, chatID int64, word string) error
	RemoveBlacklistWord(ctx context.Context, chatID int64, word string) error
	ListBlacklist(ctx context.Context, chatID int64) ([]string, error)
	GetAFK(ctx context.Context, userID int64) (*db.AFKStatus, error)
	ClearAFK(ctx context.Context, userID int64) error
}

// Limits carries the process-wide flood settings: the mute length applied
// on a flood verdict and the threshold/window used for chats that have no
// stored limits of their own.
type Limits struct {
	MuteDuration     time.Duration
	DefaultThreshold int
	DefaultWindow    time.Duration
}

func (l Limits) withFallbacks() Limits {
	if l.DefaultThreshold <= 0 {
		l.DefaultThreshold = DefaultFloodThreshold
	}
	if l.DefaultWindow <= 0 {
		l.DefaultWindow = DefaultFloodWindow
	}
	return l
}

type Engine struct {
	store   Store
	tracker *flood.Tracker
	actions Actioner
	limits  Limits
}

func NewEngine(store Store, tracker *flood.Tracker, actions Actioner, limits Limits) *Engine {
	return &Engine{
		store:   store,
		tracker: tracker,
		actions: actions,
		limits:  limits.withFallbacks(),
	}
}

// Warn increments the user's warning count. Reaching WarnBanThreshold
// triggers exactly one ban request and resets the count, regardless of
// which command produced the increment.
func (e *Engine) Warn(ctx context.Context, chatID, userID int64, privileged bool) (count int, banned bool, err error) {
	if !privileged {
		return 0, false, ErrNotPermitted
	}

	count, err = e.store.IncrementWarning(ctx, chatID, userID)
	if err != nil {
		return 0, false, errors.Wrap(err, "cant increment warning")
	}
	observability.RecordWarning()

	if count < WarnBanThreshold {
		return count, false, nil
	}

	if err := e.actions.RequestBan(ctx, chatID, userID); err != nil {
		return count, false, errors.Wrap(err, "cant request ban")
	}
	observability.RecordAutoBan()
	if err := e.store.ResetWarnings(ctx, chatID, userID); err != nil {
		return count, true, errors.Wrap(err, "cant reset warnings after ban")
	}
	e.getLogEntry().WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
	}).Info("warning limit exceeded, user banned")
	return count, true, nil
}

func (e *Engine) ResetWarnings(ctx context.Context, chatID, userID int64, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	return e.store.ResetWarnings(ctx, chatID, userID)
}

// Warnings reports the current count, zero when no row exists.
func (e *Engine) Warnings(ctx context.Context, chatID, userID int64) (int, error) {
	return e.store.GetWarnings(ctx, chatID, userID)
}

func (e *Engine) SetAntiflood(ctx context.Context, chatID int64, enabled, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	return e.store.UpdateChatSettings(ctx, chatID, db.ChatSettingsPatch{Antiflood: &enabled})
}

// SetFloodLimits persists per-chat flood limits. Bounds match the original
// command contract: 2..20 messages over 1..60 seconds.
func (e *Engine) SetFloodLimits(ctx context.Context, chatID int64, threshold, windowSeconds int, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	if threshold < minFloodThreshold || threshold > maxFloodThreshold {
		return errors.Wrapf(ErrInvalidArgument, "threshold must be between %d and %d", minFloodThreshold, maxFloodThreshold)
	}
	if windowSeconds < minFloodWindow || windowSeconds > maxFloodWindow {
		return errors.Wrapf(ErrInvalidArgument, "timeframe must be between %d and %d seconds", minFloodWindow, maxFloodWindow)
	}
	return e.store.SetFloodLimits(ctx, chatID, threshold, windowSeconds)
}

func (e *Engine) SetRules(ctx context.Context, chatID int64, rules string, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	return e.store.UpdateChatSettings(ctx, chatID, db.ChatSettingsPatch{Rules: &rules})
}

func (e *Engine) AddBlacklistWord(ctx context.Context, chatID int64, word string, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	if word == "" {
		return errors.Wrap(ErrInvalidArgument, "empty word")
	}
	return e.store.AddBlacklistWord(ctx, chatID, word)
}

func (e *Engine) RemoveBlacklistWord(ctx context.Context, chatID int64, word string, privileged bool) error {
	if !privileged {
		return ErrNotPermitted
	}
	return e.store.RemoveBlacklistWord(ctx, chatID, word)
}

func (e *Engine) Blacklist(ctx context.Context, chatID int64) ([]string, error) {
	return e.store.ListBlacklist(ctx, chatID)
}

func (e *Engine) getLogEntry() *log.Entry {
	return log.WithField("context", "policy")
}
