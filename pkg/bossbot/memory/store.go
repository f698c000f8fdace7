// Package memory keeps per-chat conversation state: the last-activity
// timestamp that drives idle nudges and a short FIFO history used as LLM
// prompt context. State is in-process; a Persister can mirror it to disk.
package memory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultMaxHistory is how many lines each chat remembers.
const DefaultMaxHistory = 8

// Roles used in history lines.
const (
	RoleUser = "user"
	RoleBoss = "boss"
)

// ChatKey identifies a chat across channels.
type ChatKey struct {
	Channel string
	ChatID  string
}

// String returns "channel:chat_id".
func (k ChatKey) String() string {
	return k.Channel + ":" + k.ChatID
}

// ChatSnapshot is a copy of one chat's state.
type ChatSnapshot struct {
	Key          ChatKey
	LastActivity time.Time
	History      []string
}

// Persister mirrors chat state to durable storage.
type Persister interface {
	SaveChat(snap ChatSnapshot) error
	LoadChats() ([]ChatSnapshot, error)
	Close() error
}

type chatState struct {
	lastActivity time.Time
	history      []string
}

// Store holds the state of every chat the bot has seen. All methods are
// safe for concurrent use; one mutex guards the whole map.
type Store struct {
	mu         sync.Mutex
	chats      map[ChatKey]*chatState
	maxHistory int
	persister  Persister
	logger     *slog.Logger
}

// NewStore creates an empty store. maxHistory <= 0 selects DefaultMaxHistory.
func NewStore(maxHistory int, logger *slog.Logger) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		chats:      make(map[ChatKey]*chatState),
		maxHistory: maxHistory,
		logger:     logger.With("component", "memory"),
	}
}

// MaxHistory returns the per-chat history cap.
func (s *Store) MaxHistory() int { return s.maxHistory }

// Attach restores state from p and mirrors every later change to it.
func (s *Store) Attach(p Persister) error {
	snaps, err := p.LoadChats()
	if err != nil {
		return fmt.Errorf("loading chats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		hist := snap.History
		if len(hist) > s.maxHistory {
			hist = hist[len(hist)-s.maxHistory:]
		}
		s.chats[snap.Key] = &chatState{
			lastActivity: snap.LastActivity,
			history:      append([]string(nil), hist...),
		}
	}
	s.persister = p
	s.logger.Info("chat state restored", "chats", len(snaps))
	return nil
}

// Touch records activity in a chat. Timestamps never move backwards.
func (s *Store) Touch(key ChatKey, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(key)
	if at.After(st.lastActivity) {
		st.lastActivity = at
	}
	s.persist(key, st)
}

// Remember appends "role: text" to the chat history, evicting the oldest
// line once the cap is exceeded.
func (s *Store) Remember(key ChatKey, role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(key)
	st.history = append(st.history, role+": "+text)
	if over := len(st.history) - s.maxHistory; over > 0 {
		st.history = append(st.history[:0], st.history[over:]...)
	}
	s.persist(key, st)
}

// Render joins the chat history with newlines.
func (s *Store) Render(key ChatKey) string {
	return strings.Join(s.History(key), "\n")
}

// History returns a copy of the chat history, oldest first.
func (s *Store) History(key ChatKey) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[key]
	if !ok {
		return nil
	}
	return append([]string(nil), st.history...)
}

// LastActivity returns the last activity time of a chat.
func (s *Store) LastActivity(key ChatKey) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[key]
	if !ok || st.lastActivity.IsZero() {
		return time.Time{}, false
	}
	return st.lastActivity, true
}

// Idle returns the tracked chats whose last activity is more than
// threshold before now, sorted by key.
func (s *Store) Idle(now time.Time, threshold time.Duration) []ChatKey {
	s.mu.Lock()
	var keys []ChatKey
	for k, st := range s.chats {
		if st.lastActivity.IsZero() {
			continue
		}
		if now.Sub(st.lastActivity) > threshold {
			keys = append(keys, k)
		}
	}
	s.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len returns the number of chats in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func (s *Store) getOrCreate(key ChatKey) *chatState {
	st, ok := s.chats[key]
	if !ok {
		st = &chatState{}
		s.chats[key] = st
	}
	return st
}

// persist must be called with s.mu held.
func (s *Store) persist(key ChatKey, st *chatState) {
	if s.persister == nil {
		return
	}
	snap := ChatSnapshot{
		Key:          key,
		LastActivity: st.lastActivity,
		History:      append([]string(nil), st.history...),
	}
	if err := s.persister.SaveChat(snap); err != nil {
		s.logger.Warn("failed to persist chat", "chat", key.String(), "error", err)
	}
}
