package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
)

type scriptReader struct {
	lines []string
}

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptReader) Close() error { return nil }

func TestConsole_Session(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := &scriptReader{lines: []string{"  ", "/Start", "привет, шеф"}}
	c := NewWithReader(Config{Speaker: "Иван"}, nil, r, &out)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	var got []*channels.IncomingMessage
	for i := 0; i < 2; i++ {
		select {
		case m := <-c.Receive():
			got = append(got, m)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end on EOF")
	}

	if got[0].Type != channels.MessageCommand || got[0].Command != "start" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Type != channels.MessageText || got[1].Content != "привет, шеф" {
		t.Errorf("second = %+v", got[1])
	}
	for _, m := range got {
		if !m.ReplyToBot || m.ChatID != ChatID || m.FromName != "Иван" || m.ID == "" {
			t.Errorf("bad envelope: %+v", m)
		}
	}
	if got[0].ID == got[1].ID {
		t.Error("message IDs must be unique")
	}

	if err := c.Send(context.Background(), ChatID, &channels.OutgoingMessage{Content: "Работать!"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Барашкин: Работать!") {
		t.Errorf("output = %q", out.String())
	}

	_ = c.Disconnect()
	if err := c.Send(context.Background(), ChatID, &channels.OutgoingMessage{Content: "x"}); err != channels.ErrChannelDisconnected {
		t.Errorf("Send after disconnect: %v", err)
	}
}
