package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
)

func TestConvert(t *testing.T) {
	t.Parallel()

	d := New(Config{AllowedChannels: []string{"c1"}}, nil)
	d.botID = "bot"

	user := &discordgo.User{ID: "u1", Username: "ivan", GlobalName: "Иван"}
	botMsg := &discordgo.Message{ID: "m0", Author: &discordgo.User{ID: "bot"}}

	tests := []struct {
		name     string
		msg      *discordgo.Message
		wantNil  bool
		typ      channels.MessageType
		command  string
		replyBot bool
	}{
		{"text", &discordgo.Message{ID: "1", ChannelID: "c1", GuildID: "g", Author: user, Content: "boss, привет"}, false, channels.MessageText, "", false},
		{"reply to bot", &discordgo.Message{ID: "2", ChannelID: "c1", Author: user, Content: "ок", ReferencedMessage: botMsg}, false, channels.MessageText, "", true},
		{"slash command", &discordgo.Message{ID: "3", ChannelID: "c1", Author: user, Content: "/Status"}, false, channels.MessageCommand, "status", false},
		{"bang command", &discordgo.Message{ID: "4", ChannelID: "c1", Author: user, Content: "!tests"}, false, channels.MessageCommand, "tests", false},
		{"own message", &discordgo.Message{ID: "5", ChannelID: "c1", Author: &discordgo.User{ID: "bot"}, Content: "x"}, true, "", "", false},
		{"other bot", &discordgo.Message{ID: "6", ChannelID: "c1", Author: &discordgo.User{ID: "b2", Bot: true}, Content: "x"}, true, "", "", false},
		{"channel not allowed", &discordgo.Message{ID: "7", ChannelID: "c2", Author: user, Content: "boss"}, true, "", "", false},
		{"empty", &discordgo.Message{ID: "8", ChannelID: "c1", Author: user, Content: "  "}, true, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := d.convert(tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("unexpected nil")
			}
			if got.Type != tt.typ || got.Command != tt.command || got.ReplyToBot != tt.replyBot {
				t.Errorf("got %+v", got)
			}
			if got.FromName != "Иван" {
				t.Errorf("FromName = %q", got.FromName)
			}
		})
	}
}

func TestSendWithoutSession(t *testing.T) {
	t.Parallel()
	d := New(DefaultConfig(), nil)
	if err := d.Send(context.Background(), "c", &channels.OutgoingMessage{Content: "x"}); err != channels.ErrChannelDisconnected {
		t.Errorf("err = %v", err)
	}
	if err := d.SendTyping(context.Background(), "c"); err != nil {
		t.Errorf("SendTyping err = %v", err)
	}
	if err := d.Connect(context.Background()); err == nil {
		t.Error("Connect without token should fail")
	}
}
