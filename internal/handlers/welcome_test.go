package handlers

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestFormatMemberTemplate(t *testing.T) {
	t.Parallel()

	chat := &api.Chat{ID: -1001, Title: "Go Nuts"}
	user := &api.User{ID: 42, FirstName: "Alice", LastName: "Liddell", UserName: "alice"}

	cases := []struct {
		template string
		want     string
	}{
		{"Welcome to {chat}, {mention}!", "Welcome to Go Nuts, @alice!"},
		{"{first} {last} ({username}, {id})", "Alice Liddell (alice, 42)"},
		{"chat id is {chatid}", "chat id is -1001"},
		{"no placeholders", "no placeholders"},
	}
	for _, tc := range cases {
		if got := formatMemberTemplate(tc.template, user, chat); got != tc.want {
			t.Fatalf("formatMemberTemplate(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestFormatMemberTemplateMentionFallsBackToFirstName(t *testing.T) {
	t.Parallel()

	chat := &api.Chat{ID: -1001, Title: "Go Nuts"}
	user := &api.User{ID: 7, FirstName: "Bob"}

	if got := formatMemberTemplate("hi {mention}", user, chat); got != "hi Bob" {
		t.Fatalf("got %q, want %q", got, "hi Bob")
	}
}

func TestOnOff(t *testing.T) {
	t.Parallel()

	if onOff(true) != "on" || onOff(false) != "off" {
		t.Fatal("onOff mapping is wrong")
	}
}
