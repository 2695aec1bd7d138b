package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/overseerbot/overseer/internal/db"
	"github.com/overseerbot/overseer/internal/flood"
)

type warnKey struct {
	chatID int64
	userID int64
}

type stubStore struct {
	chats     map[int64]*db.Chat
	warnings  map[warnKey]int
	blacklist map[int64][]string
	afk       map[int64]*db.AFKStatus

	floodLimits map[int64][2]int
	patches     []db.ChatSettingsPatch
}

func newStubStore() *stubStore {
	return &stubStore{
		chats:       map[int64]*db.Chat{},
		warnings:    map[warnKey]int{},
		blacklist:   map[int64][]string{},
		afk:         map[int64]*db.AFKStatus{},
		floodLimits: map[int64][2]int{},
	}
}

func (s *stubStore) GetChat(_ context.Context, id int64) (*db.Chat, error) {
	return s.chats[id], nil
}

func (s *stubStore) UpdateChatSettings(_ context.Context, id int64, patch db.ChatSettingsPatch) error {
	s.patches = append(s.patches, patch)
	chat, ok := s.chats[id]
	if !ok {
		chat = &db.Chat{ID: id}
		s.chats[id] = chat
	}
	if patch.Antiflood != nil {
		chat.Antiflood = *patch.Antiflood
	}
	if patch.Rules != nil {
		chat.Rules = *patch.Rules
	}
	return nil
}

func (s *stubStore) SetFloodLimits(_ context.Context, id int64, threshold, windowSeconds int) error {
	s.floodLimits[id] = [2]int{threshold, windowSeconds}
	return nil
}

func (s *stubStore) IncrementWarning(_ context.Context, chatID, userID int64) (int, error) {
	k := warnKey{chatID, userID}
	s.warnings[k]++
	return s.warnings[k], nil
}

func (s *stubStore) GetWarnings(_ context.Context, chatID, userID int64) (int, error) {
	return s.warnings[warnKey{chatID, userID}], nil
}

func (s *stubStore) ResetWarnings(_ context.Context, chatID, userID int64) error {
	delete(s.warnings, warnKey{chatID, userID})
	return nil
}

func (s *stubStore) AddBlacklistWord(_ context.Context, chatID int64, word string) error {
	s.blacklist[chatID] = append(s.blacklist[chatID], word)
	return nil
}

func (s *stubStore) RemoveBlacklistWord(_ context.Context, chatID int64, word string) error {
	words := s.blacklist[chatID][:0]
	for _, w := range s.blacklist[chatID] {
		if w != word {
			words = append(words, w)
		}
	}
	s.blacklist[chatID] = words
	return nil
}

func (s *stubStore) ListBlacklist(_ context.Context, chatID int64) ([]string, error) {
	return s.blacklist[chatID], nil
}

func (s *stubStore) GetAFK(_ context.Context, userID int64) (*db.AFKStatus, error) {
	return s.afk[userID], nil
}

func (s *stubStore) ClearAFK(_ context.Context, userID int64) error {
	delete(s.afk, userID)
	return nil
}

type actionRecorder struct {
	mutes   []string
	bans    []string
	deletes []string
	notices []string
}

func (r *actionRecorder) RequestMute(_ context.Context, chatID, userID int64, _ time.Time) error {
	r.mutes = append(r.mutes, fmt.Sprintf("%d/%d", chatID, userID))
	return nil
}

func (r *actionRecorder) RequestBan(_ context.Context, chatID, userID int64) error {
	r.bans = append(r.bans, fmt.Sprintf("%d/%d", chatID, userID))
	return nil
}

func (r *actionRecorder) RequestDeleteMessage(_ context.Context, chatID int64, messageID int) error {
	r.deletes = append(r.deletes, fmt.Sprintf("%d/%d", chatID, messageID))
	return nil
}

func (r *actionRecorder) Notify(_ context.Context, _ int64, text string, _ time.Duration) error {
	r.notices = append(r.notices, text)
	return nil
}

func newTestEngine() (*Engine, *stubStore, *actionRecorder) {
	return newTestEngineWithLimits(Limits{MuteDuration: 5 * time.Minute})
}

func newTestEngineWithLimits(limits Limits) (*Engine, *stubStore, *actionRecorder) {
	store := newStubStore()
	actions := &actionRecorder{}
	engine := NewEngine(store, flood.NewTracker(), actions, limits)
	return engine, store, actions
}

func TestWarnEscalatesToBanAtThreshold(t *testing.T) {
	t.Parallel()

	engine, _, actions := newTestEngine()
	ctx := context.Background()

	for i := 1; i < WarnBanThreshold; i++ {
		count, banned, err := engine.Warn(ctx, 1, 100, true)
		if err != nil {
			t.Fatalf("warn %d: %v", i, err)
		}
		if banned {
			t.Fatalf("warn %d must not ban", i)
		}
		if count != i {
			t.Fatalf("warn %d: got count %d", i, count)
		}
	}

	count, banned, err := engine.Warn(ctx, 1, 100, true)
	if err != nil {
		t.Fatalf("final warn: %v", err)
	}
	if !banned || count != WarnBanThreshold {
		t.Fatalf("expected ban at %d warnings, got count=%d banned=%v", WarnBanThreshold, count, banned)
	}
	if len(actions.bans) != 1 {
		t.Fatalf("expected exactly one ban request, got %d", len(actions.bans))
	}

	// The counter resets with the ban, so a fresh warning starts over.
	count, banned, err = engine.Warn(ctx, 1, 100, true)
	if err != nil {
		t.Fatalf("warn after ban: %v", err)
	}
	if banned || count != 1 {
		t.Fatalf("warning after ban should start at 1, got count=%d banned=%v", count, banned)
	}
}

func TestWarnRequiresPrivilege(t *testing.T) {
	t.Parallel()

	engine, store, actions := newTestEngine()

	_, _, err := engine.Warn(context.Background(), 1, 100, false)
	if !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if len(store.warnings) != 0 || len(actions.bans) != 0 {
		t.Fatal("unprivileged warn must not mutate state")
	}
}

func TestSetFloodLimitsValidatesBounds(t *testing.T) {
	t.Parallel()

	engine, store, _ := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		threshold int
		window    int
		ok        bool
	}{
		{2, 1, true},
		{20, 60, true},
		{1, 10, false},
		{21, 10, false},
		{5, 0, false},
		{5, 61, false},
	}
	for _, tc := range cases {
		err := engine.SetFloodLimits(ctx, 1, tc.threshold, tc.window, true)
		if tc.ok && err != nil {
			t.Fatalf("SetFloodLimits(%d, %d): unexpected error %v", tc.threshold, tc.window, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("SetFloodLimits(%d, %d): expected ErrInvalidArgument, got %v", tc.threshold, tc.window, err)
		}
	}
	if got := store.floodLimits[1]; got != [2]int{20, 60} {
		t.Fatalf("unexpected stored limits %v", got)
	}
}

func TestAddBlacklistWordRejectsEmpty(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	if err := engine.AddBlacklistWord(context.Background(), 1, "", true); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
