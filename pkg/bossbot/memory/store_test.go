package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testKey = ChatKey{Channel: "telegram", ChatID: "42"}

func TestRemember_EvictsOldest(t *testing.T) {
	t.Parallel()
	s := NewStore(0, nil)

	for i := 1; i <= 9; i++ {
		s.Remember(testKey, RoleUser, fmt.Sprintf("m%d", i))
	}

	hist := s.History(testKey)
	if len(hist) != DefaultMaxHistory {
		t.Fatalf("len = %d, want %d", len(hist), DefaultMaxHistory)
	}
	if hist[0] != "user: m2" {
		t.Errorf("oldest = %q, want user: m2", hist[0])
	}
	if hist[7] != "user: m9" {
		t.Errorf("newest = %q, want user: m9", hist[7])
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	s := NewStore(3, nil)

	if got := s.Render(testKey); got != "" {
		t.Errorf("empty chat renders %q", got)
	}

	s.Remember(testKey, RoleUser, "привет")
	s.Remember(testKey, RoleBoss, "работать!")
	if got, want := s.Render(testKey), "user: привет\nboss: работать!"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestTouch_Monotonic(t *testing.T) {
	t.Parallel()
	s := NewStore(0, nil)
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	s.Touch(testKey, t0)
	s.Touch(testKey, t0.Add(-time.Hour))

	got, ok := s.LastActivity(testKey)
	if !ok || !got.Equal(t0) {
		t.Errorf("LastActivity = %v, %v; want %v", got, ok, t0)
	}
}

func TestIdle(t *testing.T) {
	t.Parallel()
	s := NewStore(0, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	stale := ChatKey{Channel: "telegram", ChatID: "1"}
	fresh := ChatKey{Channel: "telegram", ChatID: "2"}
	exact := ChatKey{Channel: "telegram", ChatID: "3"}
	untracked := ChatKey{Channel: "telegram", ChatID: "4"}

	s.Touch(stale, now.Add(-31*time.Minute))
	s.Touch(fresh, now.Add(-29*time.Minute))
	s.Touch(exact, now.Add(-30*time.Minute))
	s.Remember(untracked, RoleUser, "history only")

	got := s.Idle(now, 30*time.Minute)
	if len(got) != 1 || got[0] != stale {
		t.Errorf("Idle = %v, want [%v]", got, stale)
	}
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()
	s := NewStore(0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := ChatKey{Channel: "c", ChatID: fmt.Sprint(i % 4)}
			for j := 0; j < 50; j++ {
				s.Touch(key, time.Now())
				s.Remember(key, RoleUser, "x")
				_ = s.Render(key)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}
	for i := 0; i < 4; i++ {
		key := ChatKey{Channel: "c", ChatID: fmt.Sprint(i)}
		if n := len(s.History(key)); n != DefaultMaxHistory {
			t.Errorf("chat %d history = %d", i, n)
		}
	}
}

type fakePersister struct {
	mu     sync.Mutex
	saved  map[ChatKey]ChatSnapshot
	loaded []ChatSnapshot
	err    error
}

func (f *fakePersister) SaveChat(snap ChatSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[ChatKey]ChatSnapshot)
	}
	f.saved[snap.Key] = snap
	return nil
}

func (f *fakePersister) LoadChats() ([]ChatSnapshot, error) { return f.loaded, nil }
func (f *fakePersister) Close() error                       { return nil }

func TestAttach_RestoresAndMirrors(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &fakePersister{loaded: []ChatSnapshot{{
		Key:          testKey,
		LastActivity: t0,
		History:      []string{"user: a", "user: b", "user: c"},
	}}}

	s := NewStore(2, nil)
	if err := s.Attach(p); err != nil {
		t.Fatal(err)
	}

	if hist := s.History(testKey); len(hist) != 2 || hist[0] != "user: b" {
		t.Errorf("restored history = %v", hist)
	}

	s.Remember(testKey, RoleBoss, "ок")
	snap := p.saved[testKey]
	if len(snap.History) != 2 || snap.History[1] != "boss: ок" {
		t.Errorf("mirrored snapshot = %+v", snap)
	}
	if !snap.LastActivity.Equal(t0) {
		t.Errorf("mirrored LastActivity = %v", snap.LastActivity)
	}
}

func TestPersistFailure_KeepsMemoryState(t *testing.T) {
	t.Parallel()
	p := &fakePersister{err: errors.New("disk full")}
	s := NewStore(0, nil)
	if err := s.Attach(p); err != nil {
		t.Fatal(err)
	}

	s.Remember(testKey, RoleUser, "still here")
	if got := s.Render(testKey); got != "user: still here" {
		t.Errorf("Render = %q", got)
	}
}
