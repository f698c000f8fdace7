package channels

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type stubChannel struct {
	name       string
	connectErr error
	in         chan *IncomingMessage

	mu        sync.Mutex
	connected bool
	sent      []*OutgoingMessage
	typing    int
}

func newStub(name string) *stubChannel {
	return &stubChannel{name: name, in: make(chan *IncomingMessage, 4)}
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Connect(context.Context) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *stubChannel) Disconnect() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *stubChannel) Send(_ context.Context, _ string, msg *OutgoingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubChannel) SendTyping(context.Context, string) error {
	s.mu.Lock()
	s.typing++
	s.mu.Unlock()
	return nil
}

func (s *stubChannel) Receive() <-chan *IncomingMessage { return s.in }

func (s *stubChannel) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *stubChannel) Health() HealthStatus { return HealthStatus{Connected: s.IsConnected()} }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_FanIn(t *testing.T) {
	t.Parallel()

	m := NewManager(quietLogger())
	a, b := newStub("a"), newStub("b")
	for _, ch := range []Channel{a, b} {
		if err := m.Register(ch); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Register(newStub("a")); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.in <- &IncomingMessage{Channel: "a", Content: "from a"}
	b.in <- &IncomingMessage{Channel: "b", Content: "from b"}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-m.Messages():
			seen[msg.Channel] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for messages")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("seen = %v", seen)
	}

	// Stop must return even though the stubs never close their streams.
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked")
	}
	if a.IsConnected() {
		t.Error("channel a still connected after Stop")
	}
}

func TestManager_Send(t *testing.T) {
	t.Parallel()

	m := NewManager(quietLogger())
	ch := newStub("tg")
	_ = m.Register(ch)

	ctx := context.Background()
	if err := m.Send(ctx, "tg", "1", &OutgoingMessage{Content: "x"}); !errors.Is(err, ErrChannelDisconnected) {
		t.Errorf("send before connect: err = %v", err)
	}
	if err := m.Send(ctx, "nope", "1", &OutgoingMessage{}); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("unknown channel: err = %v", err)
	}

	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if err := m.Send(ctx, "tg", "1", &OutgoingMessage{Content: "привет"}); err != nil {
		t.Fatal(err)
	}
	if err := m.SendTyping(ctx, "tg", "1"); err != nil {
		t.Fatal(err)
	}
	if len(ch.sent) != 1 || ch.sent[0].Content != "привет" || ch.typing != 1 {
		t.Errorf("sent = %v, typing = %d", ch.sent, ch.typing)
	}
}

func TestManager_StartFailsWhenNothingConnects(t *testing.T) {
	t.Parallel()

	m := NewManager(quietLogger())
	bad := newStub("bad")
	bad.connectErr = errors.New("401")
	_ = m.Register(bad)

	if err := m.Start(context.Background()); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("err = %v, want ErrConnectionFailed", err)
	}
	if !m.HasChannels() {
		t.Error("HasChannels = false")
	}
	if h := m.HealthAll()["bad"]; h.Connected {
		t.Error("bad channel reported healthy")
	}
}
