package persona

import (
	"math/rand"
	"sync"
	"time"
)

// Picker chooses one entry from a phrase set.
type Picker interface {
	Pick(set []string) string
}

// RandPicker picks uniformly using a seeded source. Safe for concurrent use.
type RandPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker returns a RandPicker seeded with seed. Equal seeds produce
// equal pick sequences.
func NewPicker(seed int64) *RandPicker {
	return &RandPicker{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimePicker returns a RandPicker seeded from the wall clock.
func NewTimePicker() *RandPicker {
	return NewPicker(time.Now().UnixNano())
}

// Pick returns a random element of set, or "" for an empty set.
func (p *RandPicker) Pick(set []string) string {
	if len(set) == 0 {
		return ""
	}
	p.mu.Lock()
	i := p.rnd.Intn(len(set))
	p.mu.Unlock()
	return set[i]
}

// Int63n returns a random value in [0, n). Used by the idle schedule so the
// whole bot can share one seeded source.
func (p *RandPicker) Int63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Int63n(n)
}

// FirstPicker always returns the first element. Handy in tests.
type FirstPicker struct{}

// Pick returns set[0], or "" for an empty set.
func (FirstPicker) Pick(set []string) string {
	if len(set) == 0 {
		return ""
	}
	return set[0]
}
