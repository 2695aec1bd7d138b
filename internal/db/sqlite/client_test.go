package sqlite

import (
	"context"
	"testing"

	"github.com/overseerbot/overseer/internal/db"
)

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()
	client, err := NewSQLiteClient(t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client, err := NewSQLiteClient(dir, "test.db")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	client, err = NewSQLiteClient(dir, "test.db")
	if err != nil {
		t.Fatalf("reopen over migrated file: %v", err)
	}
	_ = client.Close()
}

func TestUserRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	user, err := client.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("get absent user: %v", err)
	}
	if user != nil {
		t.Fatalf("absent user should be nil, got %+v", user)
	}

	if err := client.UpsertUser(ctx, 100, "alice", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := client.UpsertUser(ctx, 100, "alice_new", "Alice"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	user, err = client.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user == nil || user.Username != "alice_new" || user.FirstName != "Alice" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestChatDefaultsAndPatch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	if err := client.UpsertChat(ctx, -1001, "Test Group"); err != nil {
		t.Fatalf("upsert chat: %v", err)
	}
	chat, err := client.GetChat(ctx, -1001)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if chat == nil {
		t.Fatal("chat should exist")
	}
	if chat.Antiflood {
		t.Fatal("antiflood should default to off")
	}
	if !chat.WelcomeEnabled {
		t.Fatal("welcome should default to on")
	}
	if chat.FloodThreshold != 5 || chat.FloodWindowSeconds != 5 {
		t.Fatalf("unexpected flood defaults %d/%d", chat.FloodThreshold, chat.FloodWindowSeconds)
	}

	enabled := true
	rules := "be nice"
	if err := client.UpdateChatSettings(ctx, -1001, db.ChatSettingsPatch{Antiflood: &enabled, Rules: &rules}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	// An all-nil patch writes nothing and is not an error.
	if err := client.UpdateChatSettings(ctx, -1001, db.ChatSettingsPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}

	chat, err = client.GetChat(ctx, -1001)
	if err != nil {
		t.Fatalf("get chat after patch: %v", err)
	}
	if !chat.Antiflood || chat.Rules != "be nice" || chat.Title != "Test Group" {
		t.Fatalf("unexpected chat after patch %+v", chat)
	}

	if err := client.SetFloodLimits(ctx, -1001, 10, 30); err != nil {
		t.Fatalf("set flood limits: %v", err)
	}
	chat, _ = client.GetChat(ctx, -1001)
	if chat.FloodThreshold != 10 || chat.FloodWindowSeconds != 30 {
		t.Fatalf("unexpected flood limits %d/%d", chat.FloodThreshold, chat.FloodWindowSeconds)
	}
}

func TestWarningIncrementAndReset(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	count, err := client.GetWarnings(ctx, -1001, 100)
	if err != nil {
		t.Fatalf("get warnings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 warnings, got %d", count)
	}

	for want := 1; want <= 3; want++ {
		count, err = client.IncrementWarning(ctx, -1001, 100)
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if count != want {
			t.Fatalf("increment returned %d, want %d", count, want)
		}
	}

	// Another user's counter is independent.
	count, err = client.IncrementWarning(ctx, -1001, 200)
	if err != nil {
		t.Fatalf("increment other user: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}

	if err := client.ResetWarnings(ctx, -1001, 100); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, _ = client.GetWarnings(ctx, -1001, 100)
	if count != 0 {
		t.Fatalf("expected 0 after reset, got %d", count)
	}
	count, _ = client.GetWarnings(ctx, -1001, 200)
	if count != 1 {
		t.Fatalf("reset must not touch other users, got %d", count)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	if err := client.PutNote(ctx, -1001, "Rules", "read the pinned message"); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Names are case-insensitive, the latest write wins.
	if err := client.PutNote(ctx, -1001, "RULES", "updated content"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	note, err := client.GetNote(ctx, -1001, "rules")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if note == nil || note.Content != "updated content" {
		t.Fatalf("unexpected note %+v", note)
	}

	notes, err := client.ListNotes(ctx, -1001)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 || notes[0].Name != "rules" {
		t.Fatalf("unexpected notes %+v", notes)
	}

	if err := client.DeleteNote(ctx, -1001, "Rules"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	note, err = client.GetNote(ctx, -1001, "rules")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if note != nil {
		t.Fatalf("note should be gone, got %+v", note)
	}
}

func TestAFKRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	status, err := client.GetAFK(ctx, 100)
	if err != nil {
		t.Fatalf("get absent afk: %v", err)
	}
	if status != nil {
		t.Fatalf("absent afk should be nil, got %+v", status)
	}

	if err := client.SetAFK(ctx, 100, "lunch"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.SetAFK(ctx, 100, "long lunch"); err != nil {
		t.Fatalf("update: %v", err)
	}

	status, err = client.GetAFK(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if status == nil || status.Reason != "long lunch" {
		t.Fatalf("unexpected afk %+v", status)
	}

	if err := client.ClearAFK(ctx, 100); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// Clearing an already clear status is a no-op.
	if err := client.ClearAFK(ctx, 100); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	status, _ = client.GetAFK(ctx, 100)
	if status != nil {
		t.Fatalf("afk should be cleared, got %+v", status)
	}
}

func TestBlacklistDeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	for _, word := range []string{"Zebra", "apple", "ZEBRA", "apple"} {
		if err := client.AddBlacklistWord(ctx, -1001, word); err != nil {
			t.Fatalf("add %q: %v", word, err)
		}
	}

	words, err := client.ListBlacklist(ctx, -1001)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(words) != 2 || words[0] != "apple" || words[1] != "zebra" {
		t.Fatalf("unexpected blacklist %v", words)
	}

	if err := client.RemoveBlacklistWord(ctx, -1001, "APPLE"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	words, _ = client.ListBlacklist(ctx, -1001)
	if len(words) != 1 || words[0] != "zebra" {
		t.Fatalf("unexpected blacklist after remove %v", words)
	}
}

func TestWelcomeConfigPartialUpdates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	cfg, err := client.GetWelcomeConfig(ctx, -1001)
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if !cfg.WelcomeEnabled || cfg.GoodbyeEnabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	if err := client.SetWelcomeText(ctx, -1001, "hi {first}", ""); err != nil {
		t.Fatalf("set welcome text: %v", err)
	}
	if err := client.ToggleGoodbye(ctx, -1001, true); err != nil {
		t.Fatalf("toggle goodbye: %v", err)
	}
	if err := client.SetGoodbyeText(ctx, -1001, "bye {first}"); err != nil {
		t.Fatalf("set goodbye text: %v", err)
	}

	cfg, err = client.GetWelcomeConfig(ctx, -1001)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.WelcomeText != "hi {first}" || cfg.GoodbyeText != "bye {first}" {
		t.Fatalf("texts lost across partial updates %+v", cfg)
	}
	if !cfg.WelcomeEnabled || !cfg.GoodbyeEnabled {
		t.Fatalf("toggles lost across partial updates %+v", cfg)
	}

	if err := client.DeleteWelcomeConfig(ctx, -1001); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cfg, err = client.GetWelcomeConfig(ctx, -1001)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if cfg.WelcomeText != "" || !cfg.WelcomeEnabled || cfg.GoodbyeEnabled {
		t.Fatalf("expected defaults after delete, got %+v", cfg)
	}
}
