package bot

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestGetUN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		user *api.User
		want string
	}{
		{"nil user", nil, ""},
		{"with username", &api.User{UserName: "alice", FirstName: "Alice"}, "alice"},
		{"without username", &api.User{FirstName: "Alice", LastName: "Liddell"}, "Alice Liddell"},
		{"first name only", &api.User{FirstName: "Alice"}, "Alice"},
	}
	for _, tc := range cases {
		if got := GetUN(tc.user); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGetFullName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		user *api.User
		want string
	}{
		{"nil user", nil, ""},
		{"full name", &api.User{FirstName: "Alice", LastName: "Liddell", UserName: "alice"}, "Alice Liddell"},
		{"username fallback", &api.User{UserName: "alice"}, "alice"},
	}
	for _, tc := range cases {
		if got := GetFullName(tc.user); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	if got := ExtractText(nil); got != "" {
		t.Fatalf("nil message: got %q", got)
	}
	if got := ExtractText(&api.Message{Text: "hello"}); got != "hello" {
		t.Fatalf("text message: got %q", got)
	}
	if got := ExtractText(&api.Message{Caption: "a caption"}); got != "a caption" {
		t.Fatalf("caption message: got %q", got)
	}
}
