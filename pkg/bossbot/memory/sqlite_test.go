package memory

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLite_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state", "bossbot.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s := NewStore(0, nil)
	if err := s.Attach(db); err != nil {
		t.Fatal(err)
	}
	s.Touch(testKey, t0)
	s.Remember(testKey, RoleUser, "привет")
	s.Remember(testKey, RoleBoss, "работать!")
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	restored := NewStore(0, nil)
	if err := restored.Attach(db); err != nil {
		t.Fatal(err)
	}
	if got, want := restored.Render(testKey), "user: привет\nboss: работать!"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
	if got, ok := restored.LastActivity(testKey); !ok || !got.Equal(t0) {
		t.Errorf("LastActivity = %v, %v", got, ok)
	}
}

func TestSQLite_HistoryOnlyChatStaysUntracked(t *testing.T) {
	t.Parallel()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "b.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.SaveChat(ChatSnapshot{Key: testKey, History: []string{"user: x"}}); err != nil {
		t.Fatal(err)
	}
	snaps, err := db.LoadChats()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || !snaps[0].LastActivity.IsZero() {
		t.Errorf("snaps = %+v", snaps)
	}
}
